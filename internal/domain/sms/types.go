// Package sms defines the shared types of the SMS parsing and import pipeline.
package sms

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction indicates the flow of money relative to the account owner.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// LegRole tags a record within a transaction group.
type LegRole string

const (
	RolePrimary           LegRole = "primary"
	RoleFee               LegRole = "fee"
	RoleFacilityDeduction LegRole = "facility_deduction"
	RoleAccessFee         LegRole = "access_fee"
)

// ReviewThreshold is the confidence below which a record always requires review.
const ReviewThreshold = 0.6

// ExtractedFields holds the typed fields parsed from one notification.
// Monetary values are fixed-point decimals, never binary floats. Optional
// fields are pointers (money) or zero values (strings, dates); presence
// depends on the matched template.
type ExtractedFields struct {
	Amount          decimal.Decimal
	Direction       Direction
	Description     string
	TransactionDate time.Time // zero when the text carried no date

	CounterpartyName string
	PhoneNumber      string
	Reference        string // paybill/till account reference
	ReceiptID        string // provider transaction code
	BalanceAfter     *decimal.Decimal

	TransactionFee      *decimal.Decimal
	AccessFee           *decimal.Decimal
	FacilityRepaid      *decimal.Decimal // amount auto-deducted to repay the credit facility
	FacilityOutstanding *decimal.Decimal
	FacilityLimit       *decimal.Decimal
	FacilityDueDate     time.Time // zero when absent
}

// ParsedRecord is one fully parsed notification ready for import.
type ParsedRecord struct {
	Fields            ExtractedFields
	Confidence        float64
	SuggestedCategory string
	RequiresReview    bool
	SourceMessage     string
	MessageHash       string
}

// Leg is a dependent record synthesized from a compound notification.
type Leg struct {
	Role        LegRole
	Amount      decimal.Decimal
	Description string
}

// DecomposedRecord is the output of compound decomposition: the primary
// record plus zero or more legs sharing a group identifier. GroupID is
// uuid.Nil when the record is not compound. Note carries a non-fatal
// decomposition inconsistency reason when decomposition was skipped.
type DecomposedRecord struct {
	Primary ParsedRecord
	Legs    []Leg
	GroupID uuid.UUID
	Note    string
}

// MessageResult is the per-message outcome of a parse-batch operation,
// reported in input order.
type MessageResult struct {
	Message           string           `json:"message"`
	Success           bool             `json:"success"`
	Fields            *ExtractedFields `json:"parsedFields,omitempty"`
	Confidence        float64          `json:"confidence,omitempty"`
	SuggestedCategory string           `json:"suggestedCategory,omitempty"`
	RequiresReview    bool             `json:"requiresReview,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// ImportOptions controls one import operation.
type ImportOptions struct {
	AutoCategorize bool
	RequireReview  bool
	FallbackDate   time.Time // applied only when the text carried no transaction date
}

// ImportResult summarizes one import operation. Computed once, never mutated.
type ImportResult struct {
	SuccessfulImports int       `json:"successfulImports"`
	DuplicatesFound   int       `json:"duplicatesFound"`
	ParsingErrors     int       `json:"parsingErrors"`
	TotalProcessed    int       `json:"totalProcessed"`
	ImportSessionID   uuid.UUID `json:"importSessionId"`
}

// HashMessage computes the deduplication fingerprint of a raw message:
// SHA-256 of the whitespace-collapsed, case-preserved text. The hash is the
// sole dedup key; parsed fields are not, because two distinct messages can
// parse to identical fields.
func HashMessage(message string) string {
	normalized := strings.Join(strings.Fields(message), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
