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

// DepositResult reports the units minted for a deposit
type DepositResult struct {
	Units decimal.Decimal `json:"units"`
	Price decimal.Decimal `json:"price"`
}

// RedeemResult reports how a withdrawal request was split between immediate
// payout and the queue
type RedeemResult struct {
	ImmediateUnits  decimal.Decimal `json:"immediate_units"`
	ImmediateAssets decimal.Decimal `json:"immediate_assets"`
	QueuedUnits     decimal.Decimal `json:"queued_units"`
	Price           decimal.Decimal `json:"price"`
}

// Deposit books depositor assets into the pool and mints ownership units at
// the current price. Paid receivables are reconciled first so the price the
// depositor pays already reflects detected repayments.
func (e *Engine) Deposit(ctx context.Context, actor uuid.UUID, assets decimal.Decimal) (*DepositResult, error) {
	var result *DepositResult

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		if err := e.requireAllowed(ctx, actor, factoring.OperationDeposit); err != nil {
			return err
		}
		if assets.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError(shared.CodeInvalidInput, "Deposit amount must be positive")
		}

		state, err := e.state(ctx)
		if err != nil {
			return err
		}
		if err := e.reconcileGate(ctx, ev, state); err != nil {
			return err
		}

		price, err := e.pricePerUnit(ctx, state)
		if err != nil {
			return err
		}
		if price.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Pool capital is not positive; deposits are disabled")
		}

		units := pool.UnitsForAssets(assets, price)
		if err := state.Deposit(assets); err != nil {
			return err
		}
		if err := e.units.Mint(ctx, actor, units); err != nil {
			return err
		}
		if err := e.states.SaveWithLock(ctx, state); err != nil {
			return err
		}
		ev.add(pool.NewDepositedEvent(state, actor, assets, units, price))

		result = &DepositResult{Units: units, Price: price}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("deposit accepted",
		zap.String("depositor", actor.String()),
		zap.String("assets", assets.String()),
		zap.String("units", result.Units.String()))

	return result, nil
}

// RequestRedeem redeems up to the requested units at the current price.
// Whatever immediate liquidity cannot cover is enqueued; the request is
// capped at the units the owner holds and has not already queued.
func (e *Engine) RequestRedeem(ctx context.Context, actor uuid.UUID, units decimal.Decimal) (*RedeemResult, error) {
	if units.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Redeem units must be positive")
	}

	var result *RedeemResult
	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		state, price, err := e.preparePayout(ctx, ev, actor)
		if err != nil {
			return err
		}
		result, err = e.redeem(ctx, ev, state, actor, units, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logRedeem(actor, result)
	return result, nil
}

// RequestWithdraw redeems by asset amount instead of units: the amount is
// converted at the current price and follows the same capped, queue-backed
// path as RequestRedeem
func (e *Engine) RequestWithdraw(ctx context.Context, actor uuid.UUID, assets decimal.Decimal) (*RedeemResult, error) {
	if assets.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Withdraw amount must be positive")
	}

	var result *RedeemResult
	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		state, price, err := e.preparePayout(ctx, ev, actor)
		if err != nil {
			return err
		}
		result, err = e.redeem(ctx, ev, state, actor, pool.UnitsForAssets(assets, price), price)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.logRedeem(actor, result)
	return result, nil
}

// preparePayout runs the shared front half of every price-based payout:
// capability check, reconciliation gate, and pricing
func (e *Engine) preparePayout(ctx context.Context, ev *eventSink, actor uuid.UUID) (*pool.State, decimal.Decimal, error) {
	if err := e.requireAllowed(ctx, actor, factoring.OperationWithdraw); err != nil {
		return nil, decimal.Zero, err
	}
	state, err := e.state(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if err := e.reconcileGate(ctx, ev, state); err != nil {
		return nil, decimal.Zero, err
	}
	price, err := e.pricePerUnit(ctx, state)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, shared.NewDomainError(shared.CodeInvalidState,
			"Pool capital is not positive; redemptions are disabled")
	}
	return state, price, nil
}

func (e *Engine) redeem(ctx context.Context, ev *eventSink, state *pool.State, actor uuid.UUID, units, price decimal.Decimal) (*RedeemResult, error) {
	balance, err := e.units.BalanceOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	queued, err := e.queue.SumUnitsByOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	redeemable := balance.Sub(queued)
	if redeemable.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "No redeemable units")
	}
	if units.GreaterThan(redeemable) {
		units = redeemable
	}

	// serve what current liquidity covers, queue the rest
	liquidity := state.AvailableLiquidity()
	immediateUnits := units
	immediateAssets := pool.AssetsForUnits(units, price)
	if immediateAssets.GreaterThan(liquidity) {
		immediateAssets = liquidity
		immediateUnits = pool.UnitsForAssets(liquidity, price)
	}

	if immediateUnits.GreaterThan(decimal.Zero) {
		if err := state.PayOut(immediateAssets); err != nil {
			return nil, err
		}
		if err := e.units.Burn(ctx, actor, immediateUnits); err != nil {
			return nil, err
		}
		ev.add(pool.NewRedeemedEvent(state, actor, immediateUnits, immediateAssets, false))
	}

	remainder := units.Sub(immediateUnits)
	if remainder.GreaterThan(decimal.Zero) {
		count, err := e.queue.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count >= state.Settings.MaxQueueSize {
			// published directly so the refusal is observable despite
			// the rollback
			_ = e.events.Publish(ctx, pool.NewQueueFullEvent(state, actor, state.Settings.MaxQueueSize))
			return nil, shared.ErrCapacityExceeded
		}
		entry, err := pool.NewRedemptionQueueEntry(actor, remainder, pool.AssetsForUnits(remainder, price))
		if err != nil {
			return nil, err
		}
		if err := e.queue.Enqueue(ctx, entry); err != nil {
			return nil, err
		}
		ev.add(pool.NewRedemptionQueuedEvent(state, actor, remainder, entry.Position))
	}

	if err := e.states.SaveWithLock(ctx, state); err != nil {
		return nil, err
	}

	return &RedeemResult{
		ImmediateUnits:  immediateUnits,
		ImmediateAssets: immediateAssets,
		QueuedUnits:     remainder,
		Price:           price,
	}, nil
}

// QueueProcessReport summarizes one queue-processing pass
type QueueProcessReport struct {
	EntriesServed  int             `json:"entries_served"`
	EntriesDropped int             `json:"entries_dropped"`
	UnitsServed    decimal.Decimal `json:"units_served"`
	AssetsPaid     decimal.Decimal `json:"assets_paid"`
}

// ProcessRedemptionQueue serves queued withdrawals front-to-back at the
// current price until liquidity runs out. Entries whose owners no longer
// hold the queued units are shrunk to their balance, or dropped when the
// balance is gone. Stopping early is not an error; a later call resumes
// from the front.
func (e *Engine) ProcessRedemptionQueue(ctx context.Context) (*QueueProcessReport, error) {
	report := &QueueProcessReport{UnitsServed: decimal.Zero, AssetsPaid: decimal.Zero}

	err := e.run(ctx, func(ctx context.Context, ev *eventSink) error {
		state, err := e.state(ctx)
		if err != nil {
			return err
		}
		if err := e.reconcileGate(ctx, ev, state); err != nil {
			return err
		}
		price, err := e.pricePerUnit(ctx, state)
		if err != nil {
			return err
		}
		if price.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Pool capital is not positive; redemptions are disabled")
		}

		// the queue is capped at MaxQueueSize, so one pass over it is
		// already bounded
		entries, err := e.queue.Front(ctx, int(state.Settings.MaxQueueSize))
		if err != nil {
			return err
		}

		for i := range entries {
			entry := &entries[i]

			balance, err := e.units.BalanceOf(ctx, entry.Owner)
			if err != nil {
				return err
			}
			if balance.LessThanOrEqual(decimal.Zero) {
				if err := e.queue.Remove(ctx, entry.ID); err != nil {
					return err
				}
				report.EntriesDropped++
				continue
			}
			if balance.LessThan(entry.Units) {
				// owner moved units away since queuing; shrink to
				// what they still hold
				if _, err := entry.Serve(entry.Units.Sub(balance)); err != nil {
					return err
				}
			}

			maxUnits := pool.UnitsForAssets(state.AvailableLiquidity(), price)
			serve := decimal.Min(entry.Units, maxUnits)
			if serve.LessThanOrEqual(decimal.Zero) {
				if err := e.queue.Update(ctx, entry); err != nil {
					return err
				}
				break
			}

			assets := pool.AssetsForUnits(serve, price)
			if err := state.PayOut(assets); err != nil {
				return err
			}
			if err := e.units.Burn(ctx, entry.Owner, serve); err != nil {
				return err
			}
			done, err := entry.Serve(serve)
			if err != nil {
				return err
			}
			ev.add(pool.NewRedeemedEvent(state, entry.Owner, serve, assets, true))

			report.EntriesServed++
			report.UnitsServed = report.UnitsServed.Add(serve)
			report.AssetsPaid = report.AssetsPaid.Add(assets)

			if done {
				if err := e.queue.Remove(ctx, entry.ID); err != nil {
					return err
				}
			} else {
				if err := e.queue.Update(ctx, entry); err != nil {
					return err
				}
				break
			}
		}

		return e.states.SaveWithLock(ctx, state)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("redemption queue processed",
		zap.Int("entries_served", report.EntriesServed),
		zap.Int("entries_dropped", report.EntriesDropped),
		zap.String("assets_paid", report.AssetsPaid.String()))

	return report, nil
}

func (e *Engine) logRedeem(actor uuid.UUID, r *RedeemResult) {
	e.logger.Info("redemption request handled",
		zap.String("owner", actor.String()),
		zap.String("immediate_units", r.ImmediateUnits.String()),
		zap.String("queued_units", r.QueuedUnits.String()))
}
