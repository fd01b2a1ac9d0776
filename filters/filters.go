// Package filters implements the zero-cost local checks applied to raw post
// text before any model call. All functions are pure and total: missing text
// behaves as an empty string and never matches anything.
package filters

import (
	"strings"

	"github.com/DosDaiynSol/infinity-life-assistant/catalog"
)

// Rejection reasons, stored on skipped candidates and surfaced in logs.
const (
	ReasonSpam         = "spam pattern"
	ReasonOtherCity    = "mentions another city without the target city"
	ReasonNoTargetCity = "no target city mention"
	ReasonNotSeeking   = "not a question or request"
	ReasonOffTopic     = "no health topic mention"
)

// Stemmed so that case and grammatical inflections still match
// ("Астане", "Астану", "астанинский").
var targetCityMarkers = []string{"астан", "astana"}

var otherCityMarkers = []string{
	"алмат", "almaty",
	"шымкент",
	"караганд",
	"актобе",
	"павлодар",
	"тараз",
	"атырау",
	"актау",
	"усть-каменогорск",
	"семей",
	"костанай",
	"москв", "moscow",
	"петербург", "питер",
	"ташкент",
	"бишкек",
}

var seekingCues = []string{
	"посоветуй",
	"посоветует",
	"порекоменд",
	"рекомендуйте",
	"подскаж",
	"подскажите",
	"ищу",
	"ищем",
	"кто знает",
	"кто-нибудь знает",
	"куда обратиться",
	"к кому обратиться",
	"нужен",
	"нужна",
	"где найти",
	"помогите найти",
	"recommend",
	"looking for",
}

var healthCues = []string{
	"болит",
	"боль",
	"врач",
	"доктор",
	"клиник",
	"лечен",
	"лечит",
	"массаж",
	"спина",
	"спину",
	"спине",
	"шея",
	"шее",
	"позвоночник",
	"сустав",
	"остео",
	"невролог",
	"ортопед",
	"реабилитац",
	"здоровь",
	"медицин",
}

// FromLocaleSearch filters a candidate surfaced by the city keyword. The city
// search over-recalls topically (any local chatter), so on top of the shared
// spam and geography checks it requires a health or domain-keyword mention.
func FromLocaleSearch(text string) (bool, string) {
	lower := strings.ToLower(text)

	if IsSpam(lower) {
		return false, ReasonSpam
	}
	if mentionsOtherCity(lower) && !mentionsTargetCity(lower) {
		return false, ReasonOtherCity
	}
	if !isSeeking(lower) {
		return false, ReasonNotSeeking
	}
	if !mentionsHealthTopic(lower) {
		return false, ReasonOffTopic
	}

	return true, ""
}

// FromDomainSearch filters a candidate surfaced by a topical keyword. The
// keyword already guarantees topical relevance, but the same keyword is used
// in every city, so the geography checks are strict instead.
func FromDomainSearch(text string) (bool, string) {
	lower := strings.ToLower(text)

	if IsSpam(lower) {
		return false, ReasonSpam
	}
	if !mentionsTargetCity(lower) {
		return false, ReasonNoTargetCity
	}
	if mentionsOtherCity(lower) && !mentionsTargetCity(lower) {
		return false, ReasonOtherCity
	}
	if !isSeeking(lower) {
		return false, ReasonNotSeeking
	}

	return true, ""
}

func mentionsTargetCity(lower string) bool {
	return containsAny(lower, targetCityMarkers)
}

func mentionsOtherCity(lower string) bool {
	return containsAny(lower, otherCityMarkers)
}

func isSeeking(lower string) bool {
	return strings.Contains(lower, "?") || containsAny(lower, seekingCues)
}

func mentionsHealthTopic(lower string) bool {
	if containsAny(lower, healthCues) {
		return true
	}
	for _, keyword := range catalog.DomainKeywords() {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func containsAny(lower string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
