package factoring

import (
	"context"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Bootstrap creates the singleton pool state. It can run exactly once.
func (e *Engine) Bootstrap(ctx context.Context, actor, custodyAccount uuid.UUID, settings pool.Settings) (*pool.State, error) {
	var state *pool.State

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationOperate); err != nil {
			return err
		}
		existing, err := e.states.Get(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewDomainError(shared.CodeInvalidState, "Pool is already bootstrapped")
		}
		state, err = pool.NewState(custodyAccount, settings)
		if err != nil {
			return err
		}
		return e.states.Save(ctx, state)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("pool bootstrapped",
		zap.String("custody_account", custodyAccount.String()))
	return state, nil
}

// TopUpReserve books operator cash into the loss-absorption reserve
func (e *Engine) TopUpReserve(ctx context.Context, actor uuid.UUID, amount decimal.Decimal) error {
	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationOperate); err != nil {
			return err
		}
		state, err := e.state(ctx)
		if err != nil {
			return err
		}
		if err := state.TopUpReserve(amount); err != nil {
			return err
		}
		if err := e.states.SaveWithLock(ctx, state); err != nil {
			return err
		}
		ev.add(pool.NewReserveToppedUpEvent(state, amount))
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("loss reserve topped up", zap.String("amount", amount.String()))
	return nil
}

// WithdrawProtocolFees pays accumulated protocol fees out of the pool
func (e *Engine) WithdrawProtocolFees(ctx context.Context, actor, to uuid.UUID, amount decimal.Decimal) error {
	return e.withdrawFees(ctx, actor, to, amount, "protocol", (*pool.State).WithdrawProtocolFees)
}

// WithdrawAdminFees pays accumulated admin and spread fees out of the pool
func (e *Engine) WithdrawAdminFees(ctx context.Context, actor, to uuid.UUID, amount decimal.Decimal) error {
	return e.withdrawFees(ctx, actor, to, amount, "admin", (*pool.State).WithdrawAdminFees)
}

func (e *Engine) withdrawFees(ctx context.Context, actor, to uuid.UUID, amount decimal.Decimal, balance string, withdraw func(*pool.State, decimal.Decimal) error) error {
	if to == uuid.Nil {
		to = actor
	}

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationOperate); err != nil {
			return err
		}
		state, err := e.state(ctx)
		if err != nil {
			return err
		}
		if err := withdraw(state, amount); err != nil {
			return err
		}
		if err := e.states.SaveWithLock(ctx, state); err != nil {
			return err
		}
		ev.add(pool.NewFeesWithdrawnEvent(state, balance, amount, to))
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("fees withdrawn",
		zap.String("balance", balance),
		zap.String("amount", amount.String()),
		zap.String("to", to.String()))
	return nil
}

// UpdateSettings replaces the pool policy settings. Fee terms captured by
// existing approvals are unaffected.
func (e *Engine) UpdateSettings(ctx context.Context, actor uuid.UUID, settings pool.Settings) error {
	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationOperate); err != nil {
			return err
		}
		state, err := e.state(ctx)
		if err != nil {
			return err
		}
		if err := state.UpdateSettings(settings); err != nil {
			return err
		}
		return e.states.SaveWithLock(ctx, state)
	})
	if err != nil {
		return err
	}

	e.logger.Info("pool settings updated")
	return nil
}
