package factoring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// prorated computes face * bps/10000 * days/365 the same way the fee model
// does, so assertions compare exact decimals instead of rounded floats
func prorated(face decimal.Decimal, bps, days int64) decimal.Decimal {
	return face.Mul(decimal.NewFromInt(bps)).
		Mul(decimal.NewFromInt(days)).
		Div(decimal.NewFromInt(BpsDenominator * DaysPerYear))
}

func standardTerms() FeeTerms {
	return FeeTerms{
		TargetYieldBps:         1000,
		SpreadBps:              0,
		UpfrontBps:             8000,
		ProtocolFeeBps:         0,
		AdminFeeBps:            0,
		MinDaysInterestApplied: 30,
	}
}

func TestBillableDays(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("floors partial days", func(t *testing.T) {
		assert.Equal(t, int64(60), BillableDays(base, base.Add(60*24*time.Hour+23*time.Hour), 0))
	})

	t.Run("applies the minimum for early repayment", func(t *testing.T) {
		assert.Equal(t, int64(30), BillableDays(base, base.Add(5*24*time.Hour), 30))
	})

	t.Run("negative intervals floor at the minimum", func(t *testing.T) {
		assert.Equal(t, int64(30), BillableDays(base, base.Add(-24*time.Hour), 30))
		assert.Equal(t, int64(0), BillableDays(base, base.Add(-24*time.Hour), 0))
	})
}

func TestFeeBreakdown_Total(t *testing.T) {
	b := FeeBreakdown{
		AdminFee:    dec("1"),
		Interest:    dec("2.5"),
		Spread:      dec("0.5"),
		ProtocolFee: dec("1"),
	}
	assert.True(t, b.Total().Equal(dec("5")))
}

func TestTargetFees(t *testing.T) {
	face := dec("100000")

	t.Run("prices a standard sixty day funding", func(t *testing.T) {
		quote := TargetFees(face, standardTerms(), 8000, 60)

		wantInterest := prorated(face, 1000, 60)
		wantGross := dec("80000")

		assert.Equal(t, int64(60), quote.BillableDays)
		assert.True(t, quote.Fees.Interest.Equal(wantInterest))
		assert.True(t, quote.GrossAmount.Equal(wantGross))
		assert.True(t, quote.NetAmount.Equal(wantGross.Sub(wantInterest)))
	})

	t.Run("floors billable days at the minimum", func(t *testing.T) {
		quote := TargetFees(face, standardTerms(), 8000, 5)
		assert.Equal(t, int64(30), quote.BillableDays)
		assert.True(t, quote.Fees.Interest.Equal(prorated(face, 1000, 30)))
	})

	t.Run("caps gross at face value", func(t *testing.T) {
		terms := standardTerms()
		terms.UpfrontBps = 10000
		terms.ProtocolFeeBps = 500

		quote := TargetFees(face, terms, 10000, 60)
		assert.True(t, quote.GrossAmount.Equal(face))
	})

	t.Run("floors net at zero", func(t *testing.T) {
		terms := standardTerms()
		terms.TargetYieldBps = 10000
		terms.AdminFeeBps = 10000

		quote := TargetFees(face, terms, 100, 3650)
		assert.True(t, quote.NetAmount.IsZero())
	})

	t.Run("honors the chosen advance below the approved maximum", func(t *testing.T) {
		quote := TargetFees(face, standardTerms(), 5000, 60)
		assert.True(t, quote.GrossAmount.Equal(dec("50000")))
	})
}

func TestRealizedFees(t *testing.T) {
	face := dec("100000")
	fundedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("recomputes over elapsed days", func(t *testing.T) {
		fees := RealizedFees(face, decimal.Zero, dec("78000"), standardTerms(), fundedAt, fundedAt.Add(45*24*time.Hour))
		assert.True(t, fees.Interest.Equal(prorated(face, 1000, 45)))
	})

	t.Run("floors elapsed days at the minimum", func(t *testing.T) {
		fees := RealizedFees(face, decimal.Zero, dec("78000"), standardTerms(), fundedAt, fundedAt.Add(24*time.Hour))
		assert.True(t, fees.Interest.Equal(prorated(face, 1000, 30)))
	})

	t.Run("caps the total at face minus funded net", func(t *testing.T) {
		terms := standardTerms()
		terms.TargetYieldBps = 5000
		terms.AdminFeeBps = 5000
		fundedNet := dec("99000")

		fees := RealizedFees(face, decimal.Zero, fundedNet, terms, fundedAt, fundedAt.Add(365*24*time.Hour))
		headroom := face.Sub(fundedNet)

		assert.True(t, fees.Total().Equal(headroom))
		// the cap scales components proportionally
		assert.True(t, fees.Interest.Equal(fees.AdminFee))
	})

	t.Run("pre-funding payments shrink the cap", func(t *testing.T) {
		terms := standardTerms()
		terms.TargetYieldBps = 5000
		initialPaid := dec("20000")
		fundedNet := dec("79500")

		fees := RealizedFees(face, initialPaid, fundedNet, terms, fundedAt, fundedAt.Add(365*24*time.Hour))

		// only 500 of collectible headroom remains above the advance
		assert.True(t, fees.Total().Equal(dec("500")))
	})

	t.Run("zeroes fees when funded net exceeds face", func(t *testing.T) {
		fees := RealizedFees(face, decimal.Zero, dec("100001"), standardTerms(), fundedAt, fundedAt.Add(60*24*time.Hour))
		assert.True(t, fees.Total().IsZero())
	})
}

// An originator funds a 100,000 receivable due in 60 days at an 80% advance
// and 10% target yield, and the obligor repays on day 30. The pool keeps
// the fees for 30 billable days and kicks the rest of the face value back
// to the receiver; pool cash in always equals face value out.
func TestFees_EarlyRepaymentSettlement(t *testing.T) {
	face := dec("100000")
	terms := standardTerms()
	fundedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	quote := TargetFees(face, terms, 8000, 60)
	require.True(t, quote.NetAmount.IsPositive())

	paidAt := fundedAt.Add(30 * 24 * time.Hour)
	realized := RealizedFees(face, decimal.Zero, quote.NetAmount, terms, fundedAt, paidAt)

	// 30 days of fees, half the 60-day target
	assert.True(t, realized.Interest.Equal(prorated(face, 1000, 30)))

	kickback := face.Sub(quote.NetAmount).Sub(realized.Total())
	assert.True(t, kickback.IsPositive())

	// settlement identity: advance + fees + kickback account for the face
	assert.True(t, quote.NetAmount.Add(realized.Total()).Add(kickback).Equal(face))
}

func TestFeeTerms_Validate(t *testing.T) {
	t.Run("accepts standard terms", func(t *testing.T) {
		assert.NoError(t, standardTerms().Validate())
	})

	t.Run("rejects rates outside the basis point range", func(t *testing.T) {
		terms := standardTerms()
		terms.UpfrontBps = 10001
		assert.Error(t, terms.Validate())

		terms = standardTerms()
		terms.SpreadBps = -1
		assert.Error(t, terms.Validate())
	})

	t.Run("rejects negative minimum days", func(t *testing.T) {
		terms := standardTerms()
		terms.MinDaysInterestApplied = -1
		assert.Error(t, terms.Validate())
	})
}
