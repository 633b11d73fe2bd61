package persistence

import (
	"context"
	"errors"

	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStateRepository implements pool.StateRepository using GORM. The pool
// state is a singleton row.
type GormStateRepository struct {
	db *gorm.DB
}

// NewGormStateRepository creates a new GormStateRepository
func NewGormStateRepository(db *gorm.DB) *GormStateRepository {
	return &GormStateRepository{db: db}
}

// Get returns the pool state, nil if the pool is not bootstrapped
func (r *GormStateRepository) Get(ctx context.Context) (*pool.State, error) {
	var state pool.State
	if err := conn(ctx, r.db).
		Order("created_at ASC").
		First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Save creates or updates the pool state
func (r *GormStateRepository) Save(ctx context.Context, state *pool.State) error {
	return conn(ctx, r.db).Save(state).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormStateRepository) SaveWithLock(ctx context.Context, state *pool.State) error {
	result := conn(ctx, r.db).
		Model(state).
		Where("id = ? AND version <= ?", state.ID, state.Version).
		Select("*").
		Updates(state)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormStateRepository implements StateRepository
var _ pool.StateRepository = (*GormStateRepository)(nil)
