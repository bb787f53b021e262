// Package decomposer expands a compound notification, one that bundles an
// incoming payment with an automatic credit-facility repayment, into a
// primary record plus dependent legs sharing a transaction group.
package decomposer

import (
	"github.com/google/uuid"

	"github.com/pesatrack/pesatrack/internal/domain/sms"
)

// Decompose inspects a parsed record for compound markers. A record is
// compound when it describes a funds-received event together with an
// automatic facility deduction. The expansion is pure and bounded: one
// primary plus at most two legs, never a growing tree.
//
// The decomposer never invents amounts. If the deducted sub-amount cannot
// be reconciled with the received amount, decomposition is skipped and the
// facility fields stay on the single record as metadata only, with a
// non-fatal note explaining why.
func Decompose(record sms.ParsedRecord) sms.DecomposedRecord {
	fields := record.Fields
	if fields.Direction != sms.DirectionIncoming || fields.FacilityRepaid == nil {
		return sms.DecomposedRecord{Primary: record}
	}

	repaid := *fields.FacilityRepaid
	if !repaid.IsPositive() {
		return sms.DecomposedRecord{
			Primary: record,
			Note:    "facility repayment amount could not be isolated; kept as single record",
		}
	}
	if repaid.GreaterThan(fields.Amount) {
		return sms.DecomposedRecord{
			Primary: record,
			Note:    "facility repayment exceeds received amount; kept as single record",
		}
	}

	legs := []sms.Leg{
		{
			Role:        sms.RoleFacilityDeduction,
			Amount:      repaid,
			Description: "Fuliza repayment",
		},
	}
	if fields.AccessFee != nil && fields.AccessFee.IsPositive() {
		legs = append(legs, sms.Leg{
			Role:        sms.RoleAccessFee,
			Amount:      *fields.AccessFee,
			Description: "Fuliza access fee",
		})
	}

	return sms.DecomposedRecord{
		Primary: record,
		Legs:    legs,
		GroupID: uuid.New(),
	}
}
