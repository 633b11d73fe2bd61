package factoring

import (
	"context"
	"sync"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine owns the pool accounting state and exposes every mutating
// operation of the factoring pool. Operations are strictly sequential: a
// single mutex serializes them, and each one runs inside one storage
// transaction so it either fully commits or fully reverts.
type Engine struct {
	mu sync.Mutex

	tx          shared.TransactionManager
	approvals   factoring.ApprovalRepository
	impairments factoring.ImpairmentRepository
	states      pool.StateRepository
	queue       pool.QueueRepository
	registry    factoring.ReceivableRegistry
	access      factoring.AccessController
	units       factoring.UnitLedger
	events      shared.EventPublisher
	logger      *zap.Logger

	clock func() time.Time
}

// NewEngine creates the factoring engine
func NewEngine(
	tx shared.TransactionManager,
	approvals factoring.ApprovalRepository,
	impairments factoring.ImpairmentRepository,
	states pool.StateRepository,
	queue pool.QueueRepository,
	registry factoring.ReceivableRegistry,
	access factoring.AccessController,
	units factoring.UnitLedger,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		tx:          tx,
		approvals:   approvals,
		impairments: impairments,
		states:      states,
		queue:       queue,
		registry:    registry,
		access:      access,
		units:       units,
		events:      events,
		logger:      logger,
		clock:       time.Now,
	}
}

// run serializes an operation and wraps it in a transaction. Events raised
// during the operation are published only after the transaction commits.
func (e *Engine) run(ctx context.Context, fn func(ctx context.Context, ev *eventSink) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sink := &eventSink{}
	if err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return fn(ctx, sink)
	}); err != nil {
		return err
	}
	sink.flush(ctx, e.events, e.logger)
	return nil
}

// eventSink collects domain events raised during an operation
type eventSink struct {
	events []shared.DomainEvent
}

func (s *eventSink) add(events ...shared.DomainEvent) {
	s.events = append(s.events, events...)
}

// drain moves the pending events off an aggregate into the sink
func (s *eventSink) drain(agg shared.AggregateRoot) {
	s.add(agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
}

func (s *eventSink) flush(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger) {
	if len(s.events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, s.events...); err != nil {
		logger.Error("failed to publish domain events", zap.Error(err))
	}
}

// state loads the singleton pool state, failing if the pool has not been
// bootstrapped
func (e *Engine) state(ctx context.Context) (*pool.State, error) {
	s, err := e.states.Get(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Pool is not bootstrapped")
	}
	return s, nil
}

// requireAllowed consults the access collaborator before a gated operation
func (e *Engine) requireAllowed(ctx context.Context, actor uuid.UUID, op factoring.Operation) error {
	ok, err := e.access.IsAllowed(ctx, actor, op)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrUnauthorized
	}
	return nil
}

// facts fetches registry facts, translating an unknown receivable into a
// NOT_FOUND domain error
func (e *Engine) facts(ctx context.Context, receivableID uuid.UUID) (*factoring.ReceivableFacts, error) {
	f, err := e.registry.GetFacts(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Receivable not found in registry")
	}
	return f, nil
}

// pricePerUnit computes the current unit price from the capital account and
// outstanding unit supply. Callers that pay out at this price must have run
// the reconciliation gate first.
func (e *Engine) pricePerUnit(ctx context.Context, state *pool.State) (decimal.Decimal, error) {
	carrying, err := e.approvals.SumActiveNet(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	capital, err := pool.CapitalAccount(state, carrying)
	if err != nil {
		return decimal.Zero, err
	}
	supply, err := e.units.TotalSupply(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return pool.PricePerUnit(capital, supply), nil
}
