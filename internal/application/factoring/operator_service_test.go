package factoring

import (
	"context"
	"testing"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the singleton pool state", func(t *testing.T) {
		f := newFixture(t)
		state, err := f.engine.Bootstrap(ctx, f.operator, f.custody, fixtureSettings())
		require.NoError(t, err)

		assert.Equal(t, f.custody, state.CustodyAccount)
		assert.True(t, state.LiquidBalance.IsZero())
	})

	t.Run("runs exactly once", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrap(t)
		_, err := f.engine.Bootstrap(ctx, f.operator, f.custody, fixtureSettings())
		assertCode(t, err, shared.CodeInvalidState)
	})

	t.Run("rejects unusable settings", func(t *testing.T) {
		f := newFixture(t)
		settings := fixtureSettings()
		settings.ReconcileBatchSize = 0
		_, err := f.engine.Bootstrap(ctx, f.operator, f.custody, settings)
		assertCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("rejects an actor without the operate capability", func(t *testing.T) {
		f := newFixture(t)
		f.access.deny(f.depositor, factoring.OperationOperate)
		_, err := f.engine.Bootstrap(ctx, f.depositor, f.custody, fixtureSettings())
		assertCode(t, err, shared.CodeUnauthorized)
	})
}

func TestEngine_TopUpReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("adds cash earmarked for loss absorption", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrap(t)

		require.NoError(t, f.engine.TopUpReserve(ctx, f.operator, dec("1000")))

		state := f.poolState(t)
		assert.True(t, state.LossReserveBalance.Equal(dec("1000")))
		assert.True(t, state.LiquidBalance.Equal(dec("1000")))
		assert.True(t, state.AvailableLiquidity().IsZero())
		assert.Equal(t, pool.EventReserveToppedUp, f.events.lastType())
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrap(t)
		err := f.engine.TopUpReserve(ctx, f.operator, dec("-5"))
		assertCode(t, err, shared.CodeInvalidInput)
	})
}

func TestEngine_WithdrawFees(t *testing.T) {
	ctx := context.Background()

	feeTerms := factoring.FeeTerms{
		TargetYieldBps:         1000,
		UpfrontBps:             8000,
		ProtocolFeeBps:         500,
		AdminFeeBps:            200,
		MinDaysInterestApplied: 30,
	}

	setup := func(t *testing.T) (*fixture, uuid.UUID) {
		f := newFixture(t)
		f.bootstrap(t)
		f.deposit(t, f.depositor, "100000")
		id := f.addReceivable("100000", 60)
		_, err := f.engine.Approve(ctx, f.underwriter, id, &feeTerms)
		require.NoError(t, err)
		_, err = f.engine.Fund(ctx, f.originator, id, 8000, uuid.Nil)
		require.NoError(t, err)
		return f, id
	}

	t.Run("pays out the earmarked protocol fee", func(t *testing.T) {
		f, _ := setup(t)
		target := accrued(dec("100000"), 500, 60)
		require.True(t, f.poolState(t).ProtocolFeeBalance.Equal(target))

		require.NoError(t, f.engine.WithdrawProtocolFees(ctx, f.operator, uuid.Nil, dec("500")))

		state := f.poolState(t)
		assert.True(t, state.ProtocolFeeBalance.Equal(target.Sub(dec("500"))))
		assert.Equal(t, pool.EventFeesWithdrawn, f.events.lastType())

		err := f.engine.WithdrawProtocolFees(ctx, f.operator, uuid.Nil, target)
		assert.ErrorIs(t, err, shared.ErrInsufficientLiquidity)
	})

	t.Run("pays out admin fees realized at settlement", func(t *testing.T) {
		f, id := setup(t)
		f.markPaid(id)
		f.now = f.now.Add(60 * 24 * time.Hour)
		_, err := f.engine.Reconcile(ctx)
		require.NoError(t, err)

		admin := accrued(dec("100000"), 200, 60)
		require.True(t, f.poolState(t).AdminFeeBalance.Equal(admin))

		payee := uuid.New()
		require.NoError(t, f.engine.WithdrawAdminFees(ctx, f.operator, payee, admin))
		assert.True(t, f.poolState(t).AdminFeeBalance.IsZero())
	})

	t.Run("rejects an actor without the operate capability", func(t *testing.T) {
		f, _ := setup(t)
		f.access.deny(f.depositor, factoring.OperationOperate)
		err := f.engine.WithdrawProtocolFees(ctx, f.depositor, uuid.Nil, dec("1"))
		assertCode(t, err, shared.CodeUnauthorized)
	})
}

func TestEngine_UpdateSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the policy surface", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrap(t)

		settings := fixtureSettings()
		settings.GracePeriodDays = 45
		require.NoError(t, f.engine.UpdateSettings(ctx, f.operator, settings))
		assert.Equal(t, int64(45), f.poolState(t).Settings.GracePeriodDays)
	})

	t.Run("rejects unusable settings", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrap(t)

		settings := fixtureSettings()
		settings.MaxQueueSize = 0
		err := f.engine.UpdateSettings(ctx, f.operator, settings)
		assertCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("leaves captured approval terms untouched", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrap(t)
		f.deposit(t, f.depositor, "100000")
		id := f.addReceivable("100000", 60)
		_, err := f.engine.Approve(ctx, f.underwriter, id, nil)
		require.NoError(t, err)

		settings := fixtureSettings()
		settings.DefaultTerms.TargetYieldBps = 2000
		require.NoError(t, f.engine.UpdateSettings(ctx, f.operator, settings))

		approval, err := f.engine.GetApproval(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), approval.Terms.TargetYieldBps)
	})
}
