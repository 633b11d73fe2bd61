package factoring

import (
	"context"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteFunding prices an approval at a chosen advance rate without funding
// it. The quote is advisory: the actual funding reprices against the clock
// at execution time.
func (e *Engine) QuoteFunding(ctx context.Context, receivableID uuid.UUID, chosenUpfrontBps int64) (*factoring.FundingQuote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	approval, err := e.approvals.FindByReceivableID(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "No approval for receivable")
	}
	if chosenUpfrontBps <= 0 || chosenUpfrontBps > approval.Terms.UpfrontBps {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Chosen upfront exceeds approved rate")
	}

	now := e.clock()
	daysToDue := factoring.BillableDays(now, approval.DueDate, 0)
	quote := factoring.TargetFees(approval.FaceValue, approval.Terms, chosenUpfrontBps, daysToDue)
	return &quote, nil
}

// Fund executes the advance against an approved receivable: the pool takes
// custody of the receivable, pays the net amount to the receiver, and
// earmarks the upfront protocol fee. The registry facts must not have moved
// since approval.
func (e *Engine) Fund(ctx context.Context, actor, receivableID uuid.UUID, chosenUpfrontBps int64, receiver uuid.UUID) (*factoring.FundingQuote, error) {
	if receiver == uuid.Nil {
		receiver = actor
	}

	var quote factoring.FundingQuote

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationFund); err != nil {
			return err
		}

		state, err := e.state(ctx)
		if err != nil {
			return err
		}

		approval, err := e.approvals.FindByReceivableID(ctx, receivableID)
		if err != nil {
			return err
		}
		if approval == nil {
			return shared.NewDomainError(shared.CodeNotFound, "No approval for receivable")
		}

		facts, err := e.facts(ctx, receivableID)
		if err != nil {
			return err
		}
		if facts.Canceled || facts.Rejected {
			return shared.NewDomainError(shared.CodeInvalidState, "Receivable is canceled or rejected")
		}
		if facts.IsFullyPaid() {
			return shared.NewDomainError(shared.CodeInvalidState, "Receivable is already fully paid")
		}
		if !facts.PaidAmount.Equal(approval.InitialPaidAmount) {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Paid amount changed since approval")
		}
		if facts.Creditor != approval.Creditor {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Creditor changed since approval")
		}
		if facts.Owner == state.CustodyAccount {
			return shared.NewDomainError(shared.CodeInvalidState, "Receivable is already pool-owned")
		}

		now := e.clock()
		daysToDue := factoring.BillableDays(now, approval.DueDate, 0)
		quote = factoring.TargetFees(approval.FaceValue, approval.Terms, chosenUpfrontBps, daysToDue)

		if err := approval.Fund(now, chosenUpfrontBps, receiver, quote); err != nil {
			return err
		}
		if err := state.ApplyFunding(quote.GrossAmount, quote.NetAmount, quote.Fees.ProtocolFee); err != nil {
			return err
		}
		if err := e.registry.TransferTo(ctx, state.CustodyAccount, receivableID); err != nil {
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

	e.logger.Info("receivable funded",
		zap.String("receivable_id", receivableID.String()),
		zap.String("receiver", receiver.String()),
		zap.Int64("chosen_upfront_bps", chosenUpfrontBps),
		zap.String("net_amount", quote.NetAmount.String()))

	return &quote, nil
}
