// Package catalog holds the curated search keyword universe. The lists are
// static on purpose: the daily cycle partition is only stable if the keyword
// order never changes mid-day, so the catalog is compiled in and loaded once
// per process rather than read from the database per cycle.
package catalog

// LocaleKeyword is the single high-recall geography term searched in phase 1.
const LocaleKeyword = "Астана"

// Domain keywords searched in phase 2, grouped by category. The categories
// are informational; searches run over the flat ordered union.
var (
	ServiceKeywords = []string{
		"остеопат",
		"остеопатия",
		"мануальный терапевт",
		"мануальная терапия",
		"кинезиолог",
		"массаж спины",
		"лечебный массаж",
		"вертебролог",
	}

	SymptomKeywords = []string{
		"болит спина",
		"боль в спине",
		"боль в шее",
		"сколиоз",
		"остеохондроз",
		"грыжа позвоночника",
		"протрузия",
		"защемление нерва",
		"сутулость",
		"головные боли",
	}

	AudienceKeywords = []string{
		"массаж для грудничка",
		"остеопат для ребенка",
		"массаж беременным",
		"реабилитация после родов",
		"спина после спортзала",
		"осанка у ребенка",
	}
)

// DomainKeywords returns the full ordered keyword universe. The order is
// fixed: services, symptoms, audience.
func DomainKeywords() []string {
	all := make([]string, 0, len(ServiceKeywords)+len(SymptomKeywords)+len(AudienceKeywords))
	all = append(all, ServiceKeywords...)
	all = append(all, SymptomKeywords...)
	all = append(all, AudienceKeywords...)
	return all
}

// ChunkFor splits keywords into cycles contiguous chunks of ceil(len/cycles)
// and returns the chunk for cycleIndex. The last chunk may be shorter, or
// empty when cycles does not divide the list evenly. Out-of-range indexes
// return an empty slice.
func ChunkFor(keywords []string, cycleIndex, cycles int) []string {
	if cycles <= 0 || cycleIndex < 0 || cycleIndex >= cycles {
		return nil
	}

	size := (len(keywords) + cycles - 1) / cycles
	start := cycleIndex * size
	if start >= len(keywords) {
		return nil
	}

	end := start + size
	if end > len(keywords) {
		end = len(keywords)
	}

	return keywords[start:end]
}
