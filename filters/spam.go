package filters

import "strings"

// Substrings that mark a post as promotional or off-topic noise regardless of
// anything else it says. Matched against lowercased text.
var spamPatterns = []string{
	// selling and discounts
	"продам",
	"продаю",
	"распродажа",
	"скидка",
	"скидки",
	"акция",
	"промокод",
	"купи",
	"заказать",
	"оптом",
	"прайс",
	// follow-for-follow and engagement bait
	"взаимная подписка",
	"подпишись",
	"подписка за подписку",
	"взаимные лайки",
	"follow for follow",
	"f4f",
	// gambling and crypto
	"казино",
	"ставки на спорт",
	"букмекер",
	"крипт",
	"crypto",
	"бинанс",
	"трейдинг",
	// income schemes
	"заработок",
	"пассивный доход",
	"работа на дому",
	"удаленный доход",
	"инвестиции под",
	// unrelated services commonly flooding local searches
	"наращивание ресниц",
	"маникюр",
	"грузоперевозки",
	"аренда квартир",
	"такси",
}

// IsSpam reports whether the text matches any known spam pattern.
func IsSpam(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range spamPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
