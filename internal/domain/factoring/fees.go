package factoring

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeBreakdown holds the four fee components of a receivable, each prorated
// over billable days at its annualized rate against face value.
type FeeBreakdown struct {
	AdminFee    decimal.Decimal `json:"admin_fee"`
	Interest    decimal.Decimal `json:"interest"`
	Spread      decimal.Decimal `json:"spread"`
	ProtocolFee decimal.Decimal `json:"protocol_fee"`
}

// Total returns the sum of all four components
func (b FeeBreakdown) Total() decimal.Decimal {
	return b.AdminFee.Add(b.Interest).Add(b.Spread).Add(b.ProtocolFee)
}

// scale multiplies every component by factor, preserving the breakdown shape
func (b FeeBreakdown) scale(factor decimal.Decimal) FeeBreakdown {
	return FeeBreakdown{
		AdminFee:    b.AdminFee.Mul(factor),
		Interest:    b.Interest.Mul(factor),
		Spread:      b.Spread.Mul(factor),
		ProtocolFee: b.ProtocolFee.Mul(factor),
	}
}

// FundingQuote is the result of pricing an approval at a chosen advance rate
type FundingQuote struct {
	GrossAmount  decimal.Decimal `json:"gross_amount"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	Fees         FeeBreakdown    `json:"fees"`
	BillableDays int64           `json:"billable_days"`
}

// BillableDays converts an elapsed interval into whole billable days,
// floored at minDays. A receivable repaid early still pays for minDays.
func BillableDays(from, to time.Time, minDays int64) int64 {
	days := int64(to.Sub(from).Hours() / 24)
	if days < minDays {
		return minDays
	}
	return days
}

// feeComponents prorates each rate over days against face value:
// face * bps/10000 * days/365
func feeComponents(faceValue decimal.Decimal, terms FeeTerms, days int64) FeeBreakdown {
	denom := decimal.NewFromInt(BpsDenominator * DaysPerYear)
	prorate := func(bps int64) decimal.Decimal {
		return faceValue.Mul(decimal.NewFromInt(bps)).Mul(decimal.NewFromInt(days)).Div(denom)
	}
	return FeeBreakdown{
		AdminFee:    prorate(terms.AdminFeeBps),
		Interest:    prorate(terms.TargetYieldBps),
		Spread:      prorate(terms.SpreadBps),
		ProtocolFee: prorate(terms.ProtocolFeeBps),
	}
}

// TargetFees prices an approval at funding time. Fees are prorated over
// max(daysToDue, MinDaysInterestApplied). The gross amount is the chosen
// advance plus the upfront protocol fee, capped at face value; the net
// amount (what the originator receives) is gross minus all four target
// components, floored at zero.
func TargetFees(faceValue decimal.Decimal, terms FeeTerms, chosenUpfrontBps, daysToDue int64) FundingQuote {
	days := daysToDue
	if days < terms.MinDaysInterestApplied {
		days = terms.MinDaysInterestApplied
	}
	fees := feeComponents(faceValue, terms, days)

	gross := faceValue.Mul(decimal.NewFromInt(chosenUpfrontBps)).
		Div(decimal.NewFromInt(BpsDenominator)).
		Add(fees.ProtocolFee)
	if gross.GreaterThan(faceValue) {
		gross = faceValue
	}

	net := gross.Sub(fees.Total())
	if net.IsNegative() {
		net = decimal.Zero
	}

	return FundingQuote{
		GrossAmount:  gross,
		NetAmount:    net,
		Fees:         fees,
		BillableDays: days,
	}
}

// RealizedFees recomputes the four components over the days actually
// elapsed since funding (floored at MinDaysInterestApplied) and caps the
// combined amount at the collectible headroom: what the obligor still owed
// at funding time (faceValue - initialPaid) minus what was advanced. A
// receivable can never owe more in fees than the cash the pool can still
// collect above its advance. When the cap binds, the components are scaled
// proportionally so the breakdown still sums to the cap.
func RealizedFees(faceValue, initialPaid, fundedNet decimal.Decimal, terms FeeTerms, fundedAt, asOf time.Time) FeeBreakdown {
	days := BillableDays(fundedAt, asOf, terms.MinDaysInterestApplied)
	fees := feeComponents(faceValue, terms, days)

	headroom := faceValue.Sub(initialPaid).Sub(fundedNet)
	if headroom.IsNegative() {
		headroom = decimal.Zero
	}
	total := fees.Total()
	if total.GreaterThan(headroom) {
		if total.IsZero() {
			return fees
		}
		fees = fees.scale(headroom.Div(total))
	}
	return fees
}
