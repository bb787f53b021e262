// Package extractor parses a candidate notification string into typed
// fields with a confidence score, using first-match-wins template matching
// over a closed set of known wording patterns.
package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
)

// optionalFieldPenalty is subtracted from the confidence for every optional
// field the matched template expected but did not find.
const optionalFieldPenalty = 0.15

// Extract parses one candidate message. It returns the extracted fields and
// a confidence in [0,1], or an error wrapping sms.ErrTemplateNotMatched or
// sms.ErrMandatoryFieldMissing with a human-readable reason. It never
// returns a low-confidence guess for a missing mandatory field.
func Extract(message string) (sms.ExtractedFields, float64, error) {
	lower := strings.ToLower(message)

	tmpl := matchTemplate(lower)
	if tmpl == nil {
		return sms.ExtractedFields{}, 0, fmt.Errorf("%w: text resembles no known notification wording", sms.ErrTemplateNotMatched)
	}

	fields := sms.ExtractedFields{Direction: tmpl.direction}
	missing := 0

	for _, rule := range tmpl.rules {
		if applyRule(&fields, rule, message) {
			continue
		}
		if rule.mandatory {
			return sms.ExtractedFields{}, 0, fmt.Errorf("%w: template %q matched but amount was not found", sms.ErrMandatoryFieldMissing, tmpl.name)
		}
		missing++
	}

	if fields.Amount.IsNegative() {
		return sms.ExtractedFields{}, 0, fmt.Errorf("%w: negative amount", sms.ErrMandatoryFieldMissing)
	}

	fields.Description = tmpl.describe(&fields)

	confidence := 1.0 - float64(missing)*optionalFieldPenalty
	if confidence < 0 {
		confidence = 0
	}
	return fields, confidence, nil
}

func matchTemplate(lowerMessage string) *template {
	for i := range templates {
		allFound := true
		for _, marker := range templates[i].markers {
			if !strings.Contains(lowerMessage, marker) {
				allFound = false
				break
			}
		}
		if allFound {
			return &templates[i]
		}
	}
	return nil
}

// applyRule captures one field from the message. It reports false when the
// anchor did not match or the captured value could not be normalized.
func applyRule(f *sms.ExtractedFields, rule fieldRule, message string) bool {
	m := rule.pattern.FindStringSubmatch(message)
	if m == nil {
		return false
	}

	switch rule.kind {
	case fieldAmount:
		amount, err := ParseAmount(m[1])
		if err != nil {
			return false
		}
		f.Amount = amount
	case fieldCounterparty:
		f.CounterpartyName = strings.TrimSpace(m[1])
	case fieldPhone:
		f.PhoneNumber = m[1]
	case fieldReference:
		f.Reference = strings.TrimSpace(m[1])
	case fieldReceipt:
		f.ReceiptID = m[1]
	case fieldDate:
		timePart := ""
		if len(m) > 2 {
			timePart = m[2]
		}
		t, err := parseMessageDate(m[1], timePart)
		if err != nil {
			return false
		}
		f.TransactionDate = t
	case fieldBalance:
		return setMoney(&f.BalanceAfter, m[1])
	case fieldTransactionFee:
		return setMoney(&f.TransactionFee, m[1])
	case fieldAccessFee:
		return setMoney(&f.AccessFee, m[1])
	case fieldFacilityRepaid:
		return setMoney(&f.FacilityRepaid, m[1])
	case fieldFacilityOutstanding:
		return setMoney(&f.FacilityOutstanding, m[1])
	case fieldFacilityLimit:
		return setMoney(&f.FacilityLimit, m[1])
	case fieldFacilityDueDate:
		t, err := parseMessageDate(m[1], "")
		if err != nil {
			return false
		}
		f.FacilityDueDate = t
	}
	return true
}

func setMoney(dst **decimal.Decimal, raw string) bool {
	amount, err := ParseAmount(raw)
	if err != nil {
		return false
	}
	*dst = &amount
	return true
}

// ParseAmount normalizes a captured money token (thousands separators
// stripped) into a fixed-point decimal. Money is never represented as a
// binary float.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

// FormatAmount renders an amount in its canonical display form: two decimal
// places with comma thousands separators. ParseAmount(FormatAmount(d))
// round-trips to d.
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	dot := strings.Index(fixed, ".")
	intPart, fracPart := fixed[:dot], fixed[dot:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteString(fracPart)
	return b.String()
}

// Notification date formats, day first (3/10/25 means 3 October 2025).
var messageDateFormats = []string{
	"2/1/06",
	"2/1/2006",
}

var messageTimeFormats = []string{
	"3:04 PM",
	"3:04PM",
	"15:04",
}

// parseMessageDate parses an embedded "3/10/25" date and optional
// "10:55 PM" time-of-day into a single timestamp.
func parseMessageDate(dateStr, timeStr string) (time.Time, error) {
	var day time.Time
	var err error
	for _, layout := range messageDateFormats {
		day, err = time.Parse(layout, strings.TrimSpace(dateStr))
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", dateStr)
	}

	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return day, nil
	}
	for _, layout := range messageTimeFormats {
		clock, terr := time.Parse(layout, timeStr)
		if terr == nil {
			return time.Date(day.Year(), day.Month(), day.Day(),
				clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
		}
	}
	// A malformed time part does not invalidate the date.
	return day, nil
}
