package factoring

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A pool seeded with 200,000 funds a 100,000 receivable at an 80% advance
// and 10% target yield, and the obligor repays on day 30 of 60. The unit
// price holds at one through funding (cash is swapped for carrying value)
// and rises once the repayment is reconciled.
func TestEngine_EarlyRepaymentScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bootstrap(t)
	f.deposit(t, f.depositor, "200000")

	status, err := f.engine.PoolStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.PricePerUnit.Equal(decimal.NewFromInt(1)))

	id := f.addReceivable("100000", 60)
	quote := f.approveAndFund(t, id)

	// funding trades liquid cash for carrying value at par
	status, err = f.engine.PoolStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.PricePerUnit.Equal(decimal.NewFromInt(1)))
	assert.True(t, status.ActiveCarrying.Equal(quote.NetAmount))

	f.markPaid(id)
	f.now = f.now.Add(30 * 24 * time.Hour)
	report, err := f.engine.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Reconciled)

	interest := accrued(dec("100000"), 1000, 30)
	status, err = f.engine.PoolStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.CapitalAccount.Equal(dec("200000").Add(interest)))
	assert.True(t, status.PricePerUnit.GreaterThan(decimal.NewFromInt(1)))

	// thirty billable days keep half the sixty day target
	assert.True(t, interest.LessThan(accrued(dec("100000"), 1000, 60)))

	// a partial redemption pays out at the appreciated price in full
	result, err := f.engine.RequestRedeem(ctx, f.depositor, dec("100000"))
	require.NoError(t, err)
	assert.True(t, result.ImmediateUnits.Equal(dec("100000")))
	assert.True(t, result.QueuedUnits.IsZero())
	assert.True(t, result.ImmediateAssets.Equal(dec("100000").Mul(result.Price)))
	assert.True(t, result.ImmediateAssets.GreaterThan(dec("100000")))
}

// Impairment recognizes the loss in the unit price; a later detected
// repayment restores it above par.
func TestEngine_PriceReflectsImpairment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bootstrap(t)
	f.deposit(t, f.depositor, "100000")

	id := f.addReceivable("50000", 60)
	quote := f.approveAndFund(t, id)

	f.now = f.now.Add(91 * 24 * time.Hour)
	_, err := f.engine.Impair(ctx, f.operator, id)
	require.NoError(t, err)

	status, err := f.engine.PoolStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.CapitalAccount.Equal(dec("100000").Sub(quote.NetAmount)))
	assert.True(t, status.PricePerUnit.LessThan(decimal.NewFromInt(1)))

	f.markPaid(id)
	_, err = f.engine.Reconcile(ctx)
	require.NoError(t, err)

	status, err = f.engine.PoolStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.PricePerUnit.GreaterThan(decimal.NewFromInt(1)))
}
