package factoring

import (
	"context"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	Scanned    int  `json:"scanned"`
	Reconciled int  `json:"reconciled"`
	Reversed   int  `json:"reversed"`
	Remaining  bool `json:"remaining"`
}

// Reconcile settles receivables the registry reports as fully paid while
// in pool custody: realized fees are credited, the kickback is returned to
// the receiver, and the approval is closed. Impaired receivables observed
// paid have their write-off reversed first, then settle the same way.
//
// At most ReconcileBatchSize receivables are settled per call; Remaining
// reports whether paid receivables were left for a follow-up call. The pass
// is idempotent: settling returns custody to the receiver, so a settled
// receivable drops out of the scan and re-running converges to nothing to
// do.
func (e *Engine) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var report *ReconcileReport

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		state, err := e.state(ctx)
		if err != nil {
			return err
		}
		report, err = e.reconcilePass(ctx, ev, state)
		if err != nil {
			return err
		}
		return e.states.SaveWithLock(ctx, state)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("reconciliation pass completed",
		zap.Int("scanned", report.Scanned),
		zap.Int("reconciled", report.Reconciled),
		zap.Int("reversed", report.Reversed),
		zap.Bool("remaining", report.Remaining))

	return report, nil
}

// reconcileGate runs a reconciliation pass and refuses the calling payout
// operation if paid-but-unreconciled receivables remain. Every operation
// that pays out at the unit price must pass through here first so the price
// reflects all detected repayments.
func (e *Engine) reconcileGate(ctx context.Context, ev *eventSink, state *pool.State) error {
	report, err := e.reconcilePass(ctx, ev, state)
	if err != nil {
		return err
	}
	if report.Remaining {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Paid receivables remain unreconciled; run reconciliation first")
	}
	return nil
}

// reconcilePass asks the registry for fully paid receivables in pool
// custody and settles up to ReconcileBatchSize of them. The query is
// bounded to one over-fetched page, so the cost of a pass is proportional
// to the batch size no matter how large the active set is.
func (e *Engine) reconcilePass(ctx context.Context, ev *eventSink, state *pool.State) (*ReconcileReport, error) {
	batch := state.Settings.ReconcileBatchSize
	report := &ReconcileReport{}

	// one extra entry distinguishes "batch exhausted" from "all settled"
	paid, err := e.registry.FindPaid(ctx, state.CustodyAccount, shared.Page{Limit: batch + 1})
	if err != nil {
		return nil, err
	}
	if len(paid) > batch {
		report.Remaining = true
		paid = paid[:batch]
	}

	for _, receivableID := range paid {
		report.Scanned++

		a, err := e.approvals.FindByReceivableID(ctx, receivableID)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, shared.NewDomainError(shared.CodeInvariantViolation,
				"Paid receivable in pool custody has no approval")
		}

		switch a.Status {
		case factoring.ApprovalStatusFunded:
			if err := e.settle(ctx, ev, state, a); err != nil {
				return nil, err
			}
			report.Reconciled++
		case factoring.ApprovalStatusImpaired:
			if err := e.reverseAndSettle(ctx, ev, state, a); err != nil {
				return nil, err
			}
			report.Reversed++
			report.Reconciled++
		default:
			return nil, shared.NewDomainError(shared.CodeInvariantViolation,
				"Paid receivable in pool custody has a closed approval")
		}
	}

	return report, nil
}

// settle closes one funded receivable observed fully paid: the collectible
// remainder of the face value arrives, realized fees are kept, the surplus
// above net plus fees goes back to the receiver as kickback, and custody
// returns to the receiver. The kickback floors at zero so a settlement
// never charges the receiver.
func (e *Engine) settle(ctx context.Context, ev *eventSink, state *pool.State, a *factoring.InvoiceApproval) error {
	now := e.clock()
	realized := factoring.RealizedFees(a.FaceValue, a.InitialPaidAmount, a.FundedNet, a.Terms, *a.FundedAt, now)

	collectible := a.FaceValue.Sub(a.InitialPaidAmount)
	kickback := collectible.Sub(a.FundedNet).Sub(realized.Total())
	if kickback.IsNegative() {
		kickback = decimal.Zero
	}

	state.ApplyReconciliation(collectible, kickback, realized, a.TargetProtocolFee)
	if err := a.MarkReconciled(now, realized, kickback); err != nil {
		return err
	}
	if err := e.registry.TransferTo(ctx, a.Receiver, a.ReceivableID); err != nil {
		return err
	}
	if err := e.approvals.SaveWithLock(ctx, a); err != nil {
		return err
	}
	ev.drain(a)
	return nil
}

// reverseAndSettle handles the late-payment path: an impaired receivable the
// registry now reports paid has its write-off backed out before the normal
// settlement runs.
func (e *Engine) reverseAndSettle(ctx context.Context, ev *eventSink, state *pool.State, a *factoring.InvoiceApproval) error {
	now := e.clock()

	record, err := e.impairments.FindByReceivableID(ctx, a.ReceivableID)
	if err != nil {
		return err
	}
	if record == nil {
		return shared.NewDomainError(shared.CodeInvariantViolation,
			"Impaired approval has no impairment record")
	}

	gain, loss, err := record.Reverse(now)
	if err != nil {
		return err
	}
	state.ReverseImpairment(gain, loss)
	if err := a.ReverseImpairment(now); err != nil {
		return err
	}
	if err := e.impairments.Save(ctx, record); err != nil {
		return err
	}

	return e.settle(ctx, ev, state, a)
}
