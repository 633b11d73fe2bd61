package pool

import (
	"context"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StateRepository persists the singleton pool accounting state
type StateRepository interface {
	// Get returns the pool state, nil if the pool is not bootstrapped
	Get(ctx context.Context) (*State, error)

	// Save creates or updates the pool state
	Save(ctx context.Context, state *State) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, state *State) error
}

// QueueRepository persists the bounded FIFO redemption queue
type QueueRepository interface {
	// Enqueue appends an entry at the back of the queue
	Enqueue(ctx context.Context, entry *RedemptionQueueEntry) error

	// Count returns the number of queued entries
	Count(ctx context.Context) (int64, error)

	// Front returns up to limit entries from the front of the queue in
	// FIFO order
	Front(ctx context.Context, limit int) ([]RedemptionQueueEntry, error)

	// List returns a page of the queue in FIFO order
	List(ctx context.Context, page shared.Page) ([]RedemptionQueueEntry, error)

	// Update persists a partially served entry
	Update(ctx context.Context, entry *RedemptionQueueEntry) error

	// Remove deletes a fully served entry
	Remove(ctx context.Context, id uuid.UUID) error

	// SumUnitsByOwner returns the units already queued for an owner
	SumUnitsByOwner(ctx context.Context, owner uuid.UUID) (decimal.Decimal, error)
}
