package factoring

import (
	"context"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImpairResult reports the ledger impact of a write-off
type ImpairResult struct {
	GainAmount decimal.Decimal `json:"gain_amount"`
	LossAmount decimal.Decimal `json:"loss_amount"`
}

// Impair writes off an active receivable that stayed unpaid past its grace
// deadline. The loss is the net funded amount; the reserve contributes its
// configured share as an offsetting gain. A later observed repayment
// reverses the whole write-off through reconciliation.
func (e *Engine) Impair(ctx context.Context, actor, receivableID uuid.UUID) (*ImpairResult, error) {
	var result *ImpairResult

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationOperate); err != nil {
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
		if !approval.IsActive() {
			return shared.NewDomainError(shared.CodeInvalidState, "Receivable is not active")
		}

		facts, err := e.facts(ctx, receivableID)
		if err != nil {
			return err
		}
		if facts.IsFullyPaid() {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Receivable is fully paid; reconcile it instead")
		}

		now := e.clock()
		if !now.After(approval.GraceDeadline(state.Settings.GracePeriodDays)) {
			return shared.NewDomainError(shared.CodeInvariantViolation, "Grace period has not elapsed")
		}

		loss := approval.FundedNet
		gain := state.ImpairmentGain(loss)

		record, err := e.impairments.FindByReceivableID(ctx, receivableID)
		if err != nil {
			return err
		}
		if record == nil {
			record, err = factoring.NewImpairmentRecord(receivableID, gain, loss)
			if err != nil {
				return err
			}
		} else {
			if err := record.Reapply(now, gain, loss); err != nil {
				return err
			}
		}

		state.ApplyImpairment(gain, loss)
		if err := approval.MarkImpaired(now, gain, loss); err != nil {
			return err
		}

		if err := e.impairments.Save(ctx, record); err != nil {
			return err
		}
		if err := e.approvals.SaveWithLock(ctx, approval); err != nil {
			return err
		}
		if err := e.states.SaveWithLock(ctx, state); err != nil {
			return err
		}
		ev.drain(approval)

		result = &ImpairResult{GainAmount: gain, LossAmount: loss}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Warn("receivable impaired",
		zap.String("receivable_id", receivableID.String()),
		zap.String("loss", result.LossAmount.String()),
		zap.String("reserve_gain", result.GainAmount.String()))

	return result, nil
}
