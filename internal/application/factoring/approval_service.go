package factoring

import (
	"context"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Approve underwrites a receivable against the external registry facts.
// When terms is nil the pool's current default fee terms are captured; the
// approval keeps whatever terms it was underwritten with even if the pool
// defaults change later.
func (e *Engine) Approve(ctx context.Context, actor, receivableID uuid.UUID, terms *factoring.FeeTerms) (*factoring.InvoiceApproval, error) {
	var approval *factoring.InvoiceApproval

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationApprove); err != nil {
			return err
		}

		state, err := e.state(ctx)
		if err != nil {
			return err
		}

		facts, err := e.facts(ctx, receivableID)
		if err != nil {
			return err
		}
		if facts.SettlementAsset != valueobject.DefaultAsset {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Receivable does not settle in the pool's accounting asset")
		}
		if facts.Canceled || facts.Rejected {
			return shared.NewDomainError(shared.CodeInvalidState, "Receivable is canceled or rejected")
		}

		existing, err := e.approvals.FindByReceivableID(ctx, receivableID)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewDomainError(shared.CodeInvalidState, "Receivable already has an approval")
		}

		effective := state.Settings.DefaultTerms
		if terms != nil {
			effective = *terms
		}

		approval, err = factoring.NewInvoiceApproval(
			receivableID,
			facts.Creditor,
			facts.FaceValue,
			facts.PaidAmount,
			facts.DueDate,
			effective,
			state.Settings.ApprovalDuration,
		)
		if err != nil {
			return err
		}

		if err := e.approvals.Save(ctx, approval); err != nil {
			return err
		}
		ev.drain(approval)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("receivable approved",
		zap.String("receivable_id", receivableID.String()),
		zap.String("creditor", approval.Creditor.String()),
		zap.Time("expires_at", approval.ExpiresAt))

	return approval, nil
}
