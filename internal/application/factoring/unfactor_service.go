package factoring

import (
	"context"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UnfactorQuote is the signed settlement for unwinding a funded receivable.
// A positive settlement is what the creditor owes the pool (advance plus
// accrued fees minus what the obligor paid since funding); a negative
// settlement is what the pool refunds the creditor. Collected is the
// obligor cash received while the pool held custody; executing the unwind
// books it into the pool alongside the settlement.
type UnfactorQuote struct {
	Settlement decimal.Decimal        `json:"settlement"`
	Realized   factoring.FeeBreakdown `json:"realized"`
	Collected  decimal.Decimal        `json:"collected"`
	PaidToDate decimal.Decimal        `json:"paid_to_date"`
}

// PreviewUnfactor computes the settlement the creditor would owe (or be
// owed) to unwind a funded receivable right now, without executing it
func (e *Engine) PreviewUnfactor(ctx context.Context, receivableID uuid.UUID) (*UnfactorQuote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	approval, facts, err := e.unfactorable(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	quote := e.unfactorQuote(approval, facts)
	return &quote, nil
}

// Unfactor lets the original creditor buy a funded receivable back: the
// signed settlement moves, accrued fees are realized, and custody of the
// receivable returns to the creditor. Other paid receivables are reconciled
// first so the unwind does not race a detected repayment.
func (e *Engine) Unfactor(ctx context.Context, actor, receivableID uuid.UUID) (*UnfactorQuote, error) {
	var quote UnfactorQuote

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		state, err := e.state(ctx)
		if err != nil {
			return err
		}
		if err := e.reconcileGate(ctx, ev, state); err != nil {
			return err
		}

		approval, facts, err := e.unfactorable(ctx, receivableID)
		if err != nil {
			return err
		}
		if actor != approval.Creditor {
			return shared.NewDomainError(shared.CodeUnauthorized,
				"Only the original creditor may unfactor")
		}

		now := e.clock()
		quote = e.unfactorQuote(approval, facts)

		if err := state.ApplyUnfactor(quote.Settlement, quote.Collected, quote.Realized, approval.TargetProtocolFee); err != nil {
			return err
		}
		if err := approval.MarkUnfactored(now, quote.Settlement, quote.Realized); err != nil {
			return err
		}
		if err := e.registry.TransferTo(ctx, approval.Creditor, receivableID); err != nil {
			return err
		}

		if err := e.approvals.SaveWithLock(ctx, approval); err != nil {
			return err
		}
		if err := e.states.SaveWithLock(ctx, state); err != nil {
			return err
		}
		ev.drain(approval)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("receivable unfactored",
		zap.String("receivable_id", receivableID.String()),
		zap.String("settlement", quote.Settlement.String()))

	return &quote, nil
}

// unfactorable loads an approval and its registry facts and checks the
// receivable can still be unwound
func (e *Engine) unfactorable(ctx context.Context, receivableID uuid.UUID) (*factoring.InvoiceApproval, *factoring.ReceivableFacts, error) {
	approval, err := e.approvals.FindByReceivableID(ctx, receivableID)
	if err != nil {
		return nil, nil, err
	}
	if approval == nil {
		return nil, nil, shared.NewDomainError(shared.CodeNotFound, "No approval for receivable")
	}
	if !approval.IsActive() {
		return nil, nil, shared.NewDomainError(shared.CodeInvalidState, "Receivable is not active")
	}

	facts, err := e.facts(ctx, receivableID)
	if err != nil {
		return nil, nil, err
	}
	if facts.IsFullyPaid() {
		return nil, nil, shared.NewDomainError(shared.CodeInvalidState,
			"Receivable is fully paid; reconcile it instead")
	}
	return approval, facts, nil
}

func (e *Engine) unfactorQuote(a *factoring.InvoiceApproval, facts *factoring.ReceivableFacts) UnfactorQuote {
	realized := factoring.RealizedFees(a.FaceValue, a.InitialPaidAmount, a.FundedNet, a.Terms, *a.FundedAt, e.clock())

	// only cash paid after funding reached the pool; anything before went
	// to the original creditor
	collected := facts.PaidAmount.Sub(a.InitialPaidAmount)
	settlement := a.FundedNet.Add(realized.Total()).Sub(collected)

	return UnfactorQuote{
		Settlement: settlement,
		Realized:   realized,
		Collected:  collected,
		PaidToDate: facts.PaidAmount,
	}
}
