package extractor

import (
	"regexp"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
)

// fieldKind names a capturable field within a template.
type fieldKind int

const (
	fieldAmount fieldKind = iota
	fieldCounterparty
	fieldPhone
	fieldReference
	fieldReceipt
	fieldDate
	fieldBalance
	fieldTransactionFee
	fieldAccessFee
	fieldFacilityRepaid
	fieldFacilityOutstanding
	fieldFacilityLimit
	fieldFacilityDueDate
)

// fieldRule locates one field by anchor pattern. Group 1 is the value;
// date rules use group 2 for the time-of-day part.
type fieldRule struct {
	kind      fieldKind
	pattern   *regexp.Regexp
	mandatory bool
}

// template is one recognized notification wording pattern. Matching is
// first-match-wins over the ordered templates list: all marker substrings
// (lowercase) must be present for the template to be selected.
type template struct {
	name      string
	markers   []string
	direction sms.Direction
	describe  func(f *sms.ExtractedFields) string
	rules     []fieldRule
}

const moneyRx = `[Kk][Ss][Hh]\.?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`

var (
	receiptRx  = regexp.MustCompile(`^([A-Z][A-Z0-9]{9})\s+[Cc]onfirmed`)
	dateRx     = regexp.MustCompile(`(?i)\bon\s+(\d{1,2}/\d{1,2}/\d{2,4})(?:\s+at\s+(\d{1,2}:\d{2}\s*(?:[AP]M)?))?`)
	balanceRx  = regexp.MustCompile(`(?i)m-pesa balance is\s+` + moneyRx)
	txCostRx   = regexp.MustCompile(`(?i)transaction cost,?\s*` + moneyRx)
	phoneRx    = regexp.MustCompile(`\b((?:\+?254|0)[17]\d{8})\b`)
	accessFeeRx = regexp.MustCompile(`(?i)access fee(?: charged)?(?:,| is)?\s*` + moneyRx)

	receivedAmountRx = regexp.MustCompile(`(?i)received\s+` + moneyRx)
	receivedFromRx   = regexp.MustCompile(`(?i)\breceived\s+[Kk][Ss][Hh]\.?\s*[0-9,.]+\s+from\s+([A-Za-z][A-Za-z0-9 .'&-]{0,60}?)(?:\s+(?:\+?254|0)[17]\d{8}\b|\s+on\s|[.,])`)

	sentAmountRx = regexp.MustCompile(`(?i)` + moneyRx + `\s+sent to`)
	sentToRx     = regexp.MustCompile(`(?i)\bsent to\s+([A-Za-z][A-Za-z0-9 .'&-]{0,60}?)(?:\s+(?:\+?254|0)[17]\d{8}\b|\s+for account\b|\s+on\s|[.,])`)
	accountRx    = regexp.MustCompile(`(?i)\bfor account\s+([A-Za-z0-9][A-Za-z0-9 /-]{0,40}?)(?:\s+on\s|[.,])`)

	paidAmountRx = regexp.MustCompile(`(?i)` + moneyRx + `\s+paid to`)
	paidToRx     = regexp.MustCompile(`(?i)\bpaid to\s+([A-Za-z][A-Za-z0-9 .'&-]{0,60}?)(?:\s+on\s|[.,])`)

	withdrawAmountRx = regexp.MustCompile(`(?i)withdraw\s+` + moneyRx)
	withdrawFromRx   = regexp.MustCompile(`(?i)withdraw\s+[Kk][Ss][Hh]\.?\s*[0-9,.]+\s+from\s+([A-Za-z0-9][A-Za-z0-9 .'&-]{0,60}?)(?:\s+new m-pesa\b|[.,])`)

	airtimeAmountRx = regexp.MustCompile(`(?i)bought\s+` + moneyRx)

	depositAmountRx = regexp.MustCompile(`(?i)give\s+` + moneyRx + `\s+cash to`)
	depositToRx     = regexp.MustCompile(`(?i)\bcash to\s+([A-Za-z0-9][A-Za-z0-9 .'&-]{0,60}?)(?:\s+new m-pesa\b|[.,])`)

	facilityRepaidRx      = regexp.MustCompile(`(?i)` + moneyRx + `\s+has been used to(?:\s+(?:fully|partially))?\s+(?:re)?pay`)
	facilityOutstandingRx = regexp.MustCompile(`(?i)outstanding fuliza(?: m-pesa)? amount is\s+` + moneyRx)
	facilityLimitRx       = regexp.MustCompile(`(?i)fuliza m-pesa limit is\s+` + moneyRx)
	facilityDueRx         = regexp.MustCompile(`(?i)\bdue on\s+(\d{1,2}/\d{1,2}/\d{2,4})`)
)

// templates is the closed, priority-ordered set of known notification
// wordings. More specific templates come first: a Fuliza-bundled receipt
// would otherwise be claimed by the plain received template.
var templates = []template{
	{
		name:      "received_with_facility_repayment",
		markers:   []string{"received", "fuliza"},
		direction: sms.DirectionIncoming,
		describe:  describeReceived,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: receivedAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldCounterparty, pattern: receivedFromRx},
			{kind: fieldPhone, pattern: phoneRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
			{kind: fieldFacilityRepaid, pattern: facilityRepaidRx},
			{kind: fieldAccessFee, pattern: accessFeeRx},
			{kind: fieldFacilityOutstanding, pattern: facilityOutstandingRx},
			{kind: fieldFacilityLimit, pattern: facilityLimitRx},
			{kind: fieldFacilityDueDate, pattern: facilityDueRx},
		},
	},
	{
		name:      "received",
		markers:   []string{"confirmed", "received"},
		direction: sms.DirectionIncoming,
		describe:  describeReceived,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: receivedAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldCounterparty, pattern: receivedFromRx},
			{kind: fieldPhone, pattern: phoneRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
		},
	},
	{
		name:      "paybill",
		markers:   []string{"sent to", "for account"},
		direction: sms.DirectionOutgoing,
		describe:  describeSent,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: sentAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldCounterparty, pattern: sentToRx},
			{kind: fieldReference, pattern: accountRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
			{kind: fieldTransactionFee, pattern: txCostRx},
		},
	},
	{
		name:      "sent",
		markers:   []string{"confirmed", "sent to"},
		direction: sms.DirectionOutgoing,
		describe:  describeSent,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: sentAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldCounterparty, pattern: sentToRx},
			{kind: fieldPhone, pattern: phoneRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
			{kind: fieldTransactionFee, pattern: txCostRx},
		},
	},
	{
		name:      "buy_goods",
		markers:   []string{"confirmed", "paid to"},
		direction: sms.DirectionOutgoing,
		describe:  describePaid,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: paidAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldCounterparty, pattern: paidToRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
			{kind: fieldTransactionFee, pattern: txCostRx},
		},
	},
	{
		name:      "withdraw",
		markers:   []string{"confirmed", "withdraw ksh"},
		direction: sms.DirectionOutgoing,
		describe:  describeWithdraw,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: withdrawAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldCounterparty, pattern: withdrawFromRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
			{kind: fieldTransactionFee, pattern: txCostRx},
		},
	},
	{
		name:      "airtime",
		markers:   []string{"confirmed", "you bought", "airtime"},
		direction: sms.DirectionOutgoing,
		describe:  describeAirtime,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: airtimeAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
		},
	},
	{
		name:      "agent_deposit",
		markers:   []string{"give ksh", "cash to"},
		direction: sms.DirectionIncoming,
		describe:  describeDeposit,
		rules: []fieldRule{
			{kind: fieldAmount, pattern: depositAmountRx, mandatory: true},
			{kind: fieldReceipt, pattern: receiptRx},
			{kind: fieldCounterparty, pattern: depositToRx},
			{kind: fieldDate, pattern: dateRx},
			{kind: fieldBalance, pattern: balanceRx},
		},
	},
}

func describeReceived(f *sms.ExtractedFields) string {
	if f.CounterpartyName != "" {
		return "Received from " + f.CounterpartyName
	}
	return "Money received"
}

func describeSent(f *sms.ExtractedFields) string {
	if f.CounterpartyName != "" {
		if f.Reference != "" {
			return "Sent to " + f.CounterpartyName + " for account " + f.Reference
		}
		return "Sent to " + f.CounterpartyName
	}
	return "Money sent"
}

func describePaid(f *sms.ExtractedFields) string {
	if f.CounterpartyName != "" {
		return "Paid to " + f.CounterpartyName
	}
	return "Merchant payment"
}

func describeWithdraw(f *sms.ExtractedFields) string {
	if f.CounterpartyName != "" {
		return "Withdrawal from " + f.CounterpartyName
	}
	return "Cash withdrawal"
}

func describeAirtime(_ *sms.ExtractedFields) string {
	return "Airtime purchase"
}

func describeDeposit(f *sms.ExtractedFields) string {
	if f.CounterpartyName != "" {
		return "Cash deposit at " + f.CounterpartyName
	}
	return "Cash deposit"
}
