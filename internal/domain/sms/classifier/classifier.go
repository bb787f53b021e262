// Package classifier maps extracted fields to a suggested category using a
// fixed priority-ordered keyword rule table. First matching rule wins; no
// match falls back to "Other" with the review flag forced.
package classifier

import (
	"strings"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
)

// FallbackCategory is suggested when no rule matches.
const FallbackCategory = "Other"

// Rule maps keyword matches to a category. An empty Direction matches both
// directions. Category names come from the seeded defaults; this stage never
// invents new categories and never alters numeric fields.
type Rule struct {
	Category  string
	Direction sms.Direction
	Keywords  []string
}

// Rules is the static priority-ordered table. Specific merchants and
// services come before generic flow-of-money rules.
var Rules = []Rule{
	{Category: "Airtime & Data", Keywords: []string{"airtime", "bundles", "data bundle", "faiba"}},
	{Category: "Bills & Utilities", Keywords: []string{"kplc", "nairobi water", "zuku", "dstv", "gotv", "startimes", "electricity", "internet", "rent"}},
	{Category: "Food & Dining", Keywords: []string{"restaurant", "cafe", "java", "kfc", "pizza", "nyama choma", "dining", "hotel"}},
	{Category: "Shopping", Keywords: []string{"naivas", "quickmart", "carrefour", "tuskys", "chandarana", "supermarket", "mall", "store"}},
	{Category: "Transport", Keywords: []string{"uber", "bolt", "little cab", "matatu", "bus", "taxi", "petrol", "fuel", "shell", "total energies"}},
	{Category: "Health & Fitness", Keywords: []string{"hospital", "pharmacy", "chemist", "clinic", "doctor", "dentist", "gym"}},
	{Category: "Education", Keywords: []string{"school", "tuition", "university", "college", "course"}},
	{Category: "Entertainment", Keywords: []string{"netflix", "showmax", "spotify", "cinema", "movie", "club"}},
	{Category: "Savings & Investments", Keywords: []string{"mshwari", "m-shwari", "kcb m-pesa", "savings", "investment", "sacco"}},
	{Category: "Income", Direction: sms.DirectionIncoming, Keywords: []string{"received from", "money received", "cash deposit", "salary", "wages", "bonus", "commission"}},
	{Category: "Money Transfer", Keywords: []string{"sent to", "paid to", "withdrawal", "cash withdrawal", "agent", "paybill", "till"}},
}

// Classify returns the suggested category for the extracted fields and
// whether the suggestion requires review. A rule match is trusted; the
// fallback is not.
func Classify(fields sms.ExtractedFields) (string, bool) {
	haystack := strings.ToLower(fields.Description + " " + fields.CounterpartyName)

	for _, rule := range Rules {
		if rule.Direction != "" && rule.Direction != fields.Direction {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				return rule.Category, false
			}
		}
	}
	return FallbackCategory, true
}
