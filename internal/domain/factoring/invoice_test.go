package factoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApproval(t *testing.T) *InvoiceApproval {
	t.Helper()
	a, err := NewInvoiceApproval(
		uuid.New(),
		uuid.New(),
		dec("100000"),
		decimal.Zero,
		time.Now().Add(60*24*time.Hour),
		standardTerms(),
		72*time.Hour,
	)
	require.NoError(t, err)
	return a
}

func fundTestApproval(t *testing.T, a *InvoiceApproval) FundingQuote {
	t.Helper()
	quote := TargetFees(a.FaceValue, a.Terms, 8000, 60)
	require.NoError(t, a.Fund(time.Now(), 8000, uuid.New(), quote))
	return quote
}

func TestNewInvoiceApproval(t *testing.T) {
	t.Run("creates an approved record with captured facts", func(t *testing.T) {
		a := newTestApproval(t)

		assert.Equal(t, ApprovalStatusApproved, a.Status)
		assert.True(t, a.FundedGross.IsZero())
		assert.Nil(t, a.FundedAt)
		assert.Len(t, a.GetDomainEvents(), 1)
	})

	t.Run("rejects empty receivable", func(t *testing.T) {
		_, err := NewInvoiceApproval(uuid.Nil, uuid.New(), dec("100"), decimal.Zero,
			time.Now(), standardTerms(), time.Hour)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive face value", func(t *testing.T) {
		_, err := NewInvoiceApproval(uuid.New(), uuid.New(), decimal.Zero, decimal.Zero,
			time.Now(), standardTerms(), time.Hour)
		assert.Error(t, err)
	})

	t.Run("rejects already paid receivables", func(t *testing.T) {
		_, err := NewInvoiceApproval(uuid.New(), uuid.New(), dec("100"), dec("100"),
			time.Now(), standardTerms(), time.Hour)
		assert.Error(t, err)
	})

	t.Run("rejects invalid terms", func(t *testing.T) {
		terms := standardTerms()
		terms.UpfrontBps = 20000
		_, err := NewInvoiceApproval(uuid.New(), uuid.New(), dec("100"), decimal.Zero,
			time.Now(), terms, time.Hour)
		assert.Error(t, err)
	})
}

func TestInvoiceApproval_Fund(t *testing.T) {
	t.Run("records the advance", func(t *testing.T) {
		a := newTestApproval(t)
		before := a.GetVersion()
		quote := fundTestApproval(t, a)

		assert.Equal(t, ApprovalStatusFunded, a.Status)
		assert.True(t, a.IsActive())
		require.NotNil(t, a.FundedAt)
		assert.Equal(t, int64(8000), a.ChosenUpfrontBps)
		assert.True(t, a.FundedGross.Equal(quote.GrossAmount))
		assert.True(t, a.FundedNet.Equal(quote.NetAmount))
		assert.True(t, a.TargetProtocolFee.Equal(quote.Fees.ProtocolFee))
		assert.Equal(t, before+1, a.GetVersion())
	})

	t.Run("rejects funding twice", func(t *testing.T) {
		a := newTestApproval(t)
		fundTestApproval(t, a)
		err := a.Fund(time.Now(), 8000, uuid.New(), FundingQuote{})
		assert.Error(t, err)
	})

	t.Run("rejects an expired approval", func(t *testing.T) {
		a := newTestApproval(t)
		err := a.Fund(a.ExpiresAt.Add(time.Minute), 8000, uuid.New(), FundingQuote{})
		assert.Error(t, err)
	})

	t.Run("rejects an advance above the underwritten maximum", func(t *testing.T) {
		a := newTestApproval(t)
		err := a.Fund(time.Now(), 9000, uuid.New(), FundingQuote{})
		assert.Error(t, err)
	})

	t.Run("rejects an empty receiver", func(t *testing.T) {
		a := newTestApproval(t)
		err := a.Fund(time.Now(), 8000, uuid.Nil, FundingQuote{})
		assert.Error(t, err)
	})
}

func TestInvoiceApproval_MarkReconciled(t *testing.T) {
	t.Run("closes a funded approval", func(t *testing.T) {
		a := newTestApproval(t)
		fundTestApproval(t, a)

		err := a.MarkReconciled(time.Now(), FeeBreakdown{}, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, ApprovalStatusReconciled, a.Status)
		assert.NotNil(t, a.ReconciledAt)
		assert.True(t, a.Status.IsTerminal())
	})

	t.Run("rejects an unfunded approval", func(t *testing.T) {
		a := newTestApproval(t)
		assert.Error(t, a.MarkReconciled(time.Now(), FeeBreakdown{}, decimal.Zero))
	})
}

func TestInvoiceApproval_ImpairAndReverse(t *testing.T) {
	a := newTestApproval(t)
	fundTestApproval(t, a)

	require.NoError(t, a.MarkImpaired(time.Now(), dec("10"), dec("100")))
	assert.Equal(t, ApprovalStatusImpaired, a.Status)
	assert.False(t, a.IsActive())
	assert.False(t, a.Status.IsTerminal())

	// a detected repayment brings it back to active for settlement
	require.NoError(t, a.ReverseImpairment(time.Now()))
	assert.Equal(t, ApprovalStatusFunded, a.Status)

	require.NoError(t, a.MarkReconciled(time.Now(), FeeBreakdown{}, decimal.Zero))
	assert.Error(t, a.ReverseImpairment(time.Now()))
}

func TestInvoiceApproval_MarkUnfactored(t *testing.T) {
	t.Run("closes a funded approval", func(t *testing.T) {
		a := newTestApproval(t)
		fundTestApproval(t, a)

		err := a.MarkUnfactored(time.Now(), dec("500"), FeeBreakdown{})
		require.NoError(t, err)
		assert.Equal(t, ApprovalStatusUnfactored, a.Status)
		assert.NotNil(t, a.UnfactoredAt)
	})

	t.Run("rejects a reconciled approval", func(t *testing.T) {
		a := newTestApproval(t)
		fundTestApproval(t, a)
		require.NoError(t, a.MarkReconciled(time.Now(), FeeBreakdown{}, decimal.Zero))
		assert.Error(t, a.MarkUnfactored(time.Now(), decimal.Zero, FeeBreakdown{}))
	})
}

func TestInvoiceApproval_GraceDeadline(t *testing.T) {
	a := newTestApproval(t)
	deadline := a.GraceDeadline(30)
	assert.Equal(t, a.DueDate.Add(30*24*time.Hour), deadline)
}
