package pool

import (
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CapitalAccount computes the pool's total net worth attributable to unit
// holders: liquid cash minus fee liabilities and the committed loss
// reserve, plus the carrying value of funded-but-unsettled receivables
// (their net funded amount, not face value).
//
// It fails explicitly when cumulative fee deductions exceed cumulative
// realized fee revenue: that is an accounting inconsistency, not a price.
func CapitalAccount(s *State, activeCarrying decimal.Decimal) (decimal.Decimal, error) {
	if s.FeeDeductions.GreaterThan(s.RealizedFeeRevenue) {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvariantViolation,
			"Fee deductions exceed realized fee revenue")
	}
	capital := s.LiquidBalance.
		Sub(s.ProtocolFeeBalance).
		Sub(s.AdminFeeBalance).
		Sub(s.LossReserveBalance).
		Add(activeCarrying)
	return capital, nil
}

// PricePerUnit divides the capital account over outstanding ownership
// units. With no units outstanding a unit is worth exactly one accounting
// asset.
func PricePerUnit(capital, totalUnits decimal.Decimal) decimal.Decimal {
	if totalUnits.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return capital.Div(totalUnits)
}

// UnitsForAssets converts an asset amount into units at the given price
func UnitsForAssets(assets, price decimal.Decimal) decimal.Decimal {
	return assets.Div(price)
}

// AssetsForUnits converts units into their asset value at the given price
func AssetsForUnits(units, price decimal.Decimal) decimal.Decimal {
	return units.Mul(price)
}
