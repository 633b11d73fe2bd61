package factoring

import (
	"fmt"

	"github.com/factorpool/backend/internal/domain/shared"
)

// BpsDenominator is the basis-point scale all rates are quoted in
const BpsDenominator = 10000

// DaysPerYear is the day-count convention for fee proration
const DaysPerYear = 365

// FeeTerms is the fee schedule snapshotted into an approval at creation
// time. It is immutable afterwards: later policy changes never touch
// already-approved receivables.
//
// All rates are annualized basis points except UpfrontBps (the fraction of
// face value advanced) and MinDaysInterestApplied (the floor on billable
// days).
type FeeTerms struct {
	TargetYieldBps         int64 `json:"target_yield_bps"`
	SpreadBps              int64 `json:"spread_bps"`
	UpfrontBps             int64 `json:"upfront_bps"`
	ProtocolFeeBps         int64 `json:"protocol_fee_bps"`
	AdminFeeBps            int64 `json:"admin_fee_bps"`
	MinDaysInterestApplied int64 `json:"min_days_interest_applied"`
}

// Validate checks the terms are internally consistent
func (t FeeTerms) Validate() error {
	for _, f := range []struct {
		name string
		bps  int64
	}{
		{"target_yield_bps", t.TargetYieldBps},
		{"spread_bps", t.SpreadBps},
		{"upfront_bps", t.UpfrontBps},
		{"protocol_fee_bps", t.ProtocolFeeBps},
		{"admin_fee_bps", t.AdminFeeBps},
	} {
		if f.bps < 0 || f.bps > BpsDenominator {
			return shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("%s must be between 0 and %d basis points", f.name, BpsDenominator))
		}
	}
	if t.MinDaysInterestApplied < 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "min_days_interest_applied cannot be negative")
	}
	return nil
}
