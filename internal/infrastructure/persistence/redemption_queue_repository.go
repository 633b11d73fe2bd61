package persistence

import (
	"context"

	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormQueueRepository implements pool.QueueRepository using GORM. FIFO
// order is the monotonically increasing position column; positions are
// never reused, so the order survives removals.
type GormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository creates a new GormQueueRepository
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

// Enqueue appends an entry at the back of the queue, assigning the next
// position
func (r *GormQueueRepository) Enqueue(ctx context.Context, entry *pool.RedemptionQueueEntry) error {
	db := conn(ctx, r.db)

	var result struct {
		Max int64
	}
	if err := db.
		Model(&pool.RedemptionQueueEntry{}).
		Select("COALESCE(MAX(position), 0) as max").
		Scan(&result).Error; err != nil {
		return err
	}
	entry.Position = result.Max + 1

	return db.Create(entry).Error
}

// Count returns the number of queued entries
func (r *GormQueueRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&pool.RedemptionQueueEntry{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Front returns up to limit entries from the front of the queue in FIFO order
func (r *GormQueueRepository) Front(ctx context.Context, limit int) ([]pool.RedemptionQueueEntry, error) {
	return r.list(ctx, 0, limit)
}

// List returns a page of the queue in FIFO order
func (r *GormQueueRepository) List(ctx context.Context, page shared.Page) ([]pool.RedemptionQueueEntry, error) {
	return r.list(ctx, page.Offset, page.Limit)
}

func (r *GormQueueRepository) list(ctx context.Context, offset, limit int) ([]pool.RedemptionQueueEntry, error) {
	var entries []pool.RedemptionQueueEntry
	if err := conn(ctx, r.db).
		Order("position ASC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Update persists a partially served entry
func (r *GormQueueRepository) Update(ctx context.Context, entry *pool.RedemptionQueueEntry) error {
	return conn(ctx, r.db).Save(entry).Error
}

// Remove deletes a fully served entry
func (r *GormQueueRepository) Remove(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&pool.RedemptionQueueEntry{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumUnitsByOwner returns the units already queued for an owner
func (r *GormQueueRepository) SumUnitsByOwner(ctx context.Context, owner uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := conn(ctx, r.db).
		Model(&pool.RedemptionQueueEntry{}).
		Select("COALESCE(SUM(units), 0) as total").
		Where("owner = ?", owner).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormQueueRepository implements QueueRepository
var _ pool.QueueRepository = (*GormQueueRepository)(nil)
