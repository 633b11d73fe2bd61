package pool

import (
	"testing"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/google/uuid"
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

func testSettings() Settings {
	return Settings{
		ApprovalDuration: 72 * time.Hour,
		GracePeriodDays:  30,
		DefaultTerms: factoring.FeeTerms{
			TargetYieldBps:         1000,
			UpfrontBps:             8000,
			MinDaysInterestApplied: 30,
		},
		MaxQueueSize:        100,
		ReserveSplitDivisor: 2,
		StatusPageLimit:     100,
		ReconcileBatchSize:  50,
	}
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(uuid.New(), testSettings())
	require.NoError(t, err)
	return s
}

func TestNewState(t *testing.T) {
	t.Run("starts with zero balances", func(t *testing.T) {
		s := newTestState(t)
		assert.True(t, s.LiquidBalance.IsZero())
		assert.True(t, s.AvailableLiquidity().IsZero())
		assert.True(t, s.RealizedGains.IsZero())
	})

	t.Run("rejects an empty custody account", func(t *testing.T) {
		_, err := NewState(uuid.Nil, testSettings())
		assert.Error(t, err)
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		settings := testSettings()
		settings.MaxQueueSize = 0
		_, err := NewState(uuid.New(), settings)
		assert.Error(t, err)
	})
}

func TestState_DepositAndPayOut(t *testing.T) {
	s := newTestState(t)

	require.NoError(t, s.Deposit(dec("1000")))
	assert.True(t, s.AvailableLiquidity().Equal(dec("1000")))

	require.NoError(t, s.PayOut(dec("400")))
	assert.True(t, s.LiquidBalance.Equal(dec("600")))

	assert.Error(t, s.PayOut(dec("601")))
	assert.Error(t, s.PayOut(decimal.Zero))
	assert.Error(t, s.Deposit(dec("-1")))
}

func TestState_AvailableLiquidity_ExcludesEarmarks(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Deposit(dec("1000")))
	require.NoError(t, s.TopUpReserve(dec("200")))

	// the top-up adds cash and earmarks it at the same time
	assert.True(t, s.LiquidBalance.Equal(dec("1200")))
	assert.True(t, s.AvailableLiquidity().Equal(dec("1000")))

	s.ProtocolFeeBalance = dec("50")
	s.AdminFeeBalance = dec("30")
	assert.True(t, s.AvailableLiquidity().Equal(dec("920")))
}

func TestState_ApplyFunding(t *testing.T) {
	t.Run("books the advance and earmarks the upfront protocol fee", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("100000")))

		err := s.ApplyFunding(dec("80500"), dec("78000"), dec("500"))
		require.NoError(t, err)

		assert.True(t, s.LiquidBalance.Equal(dec("22000")))
		assert.True(t, s.ProtocolFeeBalance.Equal(dec("500")))
		assert.True(t, s.RealizedFeeRevenue.Equal(dec("500")))
		assert.True(t, s.FeeDeductions.Equal(dec("500")))
	})

	t.Run("rejects a gross above available liquidity", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("1000")))
		assert.Error(t, s.ApplyFunding(dec("1001"), dec("900"), decimal.Zero))
	})
}

func TestState_ApplyReconciliation(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Deposit(dec("100000")))
	require.NoError(t, s.ApplyFunding(dec("80000"), dec("78000"), decimal.Zero))

	realized := factoring.FeeBreakdown{
		AdminFee:    dec("100"),
		Interest:    dec("800"),
		Spread:      dec("50"),
		ProtocolFee: dec("200"),
	}
	kickback := dec("100000").Sub(dec("78000")).Sub(realized.Total())

	s.ApplyReconciliation(dec("100000"), kickback, realized, dec("150"))

	// cash: 22000 + 100000 - kickback
	assert.True(t, s.LiquidBalance.Equal(dec("122000").Sub(kickback)))
	// protocol credit is incremental over the target already booked
	assert.True(t, s.ProtocolFeeBalance.Equal(dec("50")))
	assert.True(t, s.AdminFeeBalance.Equal(dec("150")))
	assert.True(t, s.RealizedGains.Equal(dec("800")))
	assert.True(t, s.RealizedFeeRevenue.Equal(realized.Total().Sub(dec("150"))))
}

func TestState_ApplyUnfactor(t *testing.T) {
	t.Run("books a positive settlement", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("1000")))

		err := s.ApplyUnfactor(dec("500"), decimal.Zero, factoring.FeeBreakdown{Interest: dec("20")}, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, s.LiquidBalance.Equal(dec("1500")))
		assert.True(t, s.RealizedGains.Equal(dec("20")))
	})

	t.Run("books collected obligor payments alongside the settlement", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("1000")))

		err := s.ApplyUnfactor(dec("100"), dec("400"), factoring.FeeBreakdown{Interest: dec("20")}, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, s.LiquidBalance.Equal(dec("1500")))
		assert.True(t, s.RealizedGains.Equal(dec("20")))
	})

	t.Run("rejects a net outflow above available liquidity", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("100")))
		assert.Error(t, s.ApplyUnfactor(dec("-101"), decimal.Zero, factoring.FeeBreakdown{}, decimal.Zero))
	})

	t.Run("collected cash offsets a refund for the liquidity check", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("100")))

		err := s.ApplyUnfactor(dec("-150"), dec("60"), factoring.FeeBreakdown{}, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, s.LiquidBalance.Equal(dec("10")))
	})
}

func TestState_Impairment(t *testing.T) {
	t.Run("gain splits the reserve and never exceeds the loss", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("1000")))
		require.NoError(t, s.TopUpReserve(dec("400")))

		assert.True(t, s.ImpairmentGain(dec("1000")).Equal(dec("200")))
		assert.True(t, s.ImpairmentGain(dec("50")).Equal(dec("50")))
	})

	t.Run("apply and reverse are symmetric", func(t *testing.T) {
		s := newTestState(t)
		require.NoError(t, s.Deposit(dec("1000")))
		require.NoError(t, s.TopUpReserve(dec("400")))

		gain := s.ImpairmentGain(dec("500"))
		s.ApplyImpairment(gain, dec("500"))

		assert.True(t, s.LossReserveBalance.Equal(dec("200")))
		assert.True(t, s.RealizedGains.Equal(dec("-300")))

		s.ReverseImpairment(gain, dec("500"))
		assert.True(t, s.LossReserveBalance.Equal(dec("400")))
		assert.True(t, s.RealizedGains.IsZero())
	})
}

func TestState_WithdrawFees(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.Deposit(dec("1000")))
	s.ProtocolFeeBalance = dec("300")
	s.AdminFeeBalance = dec("200")

	require.NoError(t, s.WithdrawProtocolFees(dec("100")))
	assert.True(t, s.ProtocolFeeBalance.Equal(dec("200")))
	assert.True(t, s.LiquidBalance.Equal(dec("900")))

	assert.Error(t, s.WithdrawProtocolFees(dec("201")))
	assert.Error(t, s.WithdrawAdminFees(dec("201")))
	assert.Error(t, s.WithdrawAdminFees(decimal.Zero))

	require.NoError(t, s.WithdrawAdminFees(dec("200")))
	assert.True(t, s.AdminFeeBalance.IsZero())
}

func TestState_UpdateSettings(t *testing.T) {
	s := newTestState(t)

	settings := testSettings()
	settings.GracePeriodDays = 45
	require.NoError(t, s.UpdateSettings(settings))
	assert.Equal(t, int64(45), s.Settings.GracePeriodDays)

	settings.ReserveSplitDivisor = 0
	assert.Error(t, s.UpdateSettings(settings))
}
