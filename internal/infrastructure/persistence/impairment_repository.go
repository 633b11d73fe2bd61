package persistence

import (
	"context"
	"errors"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImpairmentRepository implements factoring.ImpairmentRepository using GORM
type GormImpairmentRepository struct {
	db *gorm.DB
}

// NewGormImpairmentRepository creates a new GormImpairmentRepository
func NewGormImpairmentRepository(db *gorm.DB) *GormImpairmentRepository {
	return &GormImpairmentRepository{db: db}
}

// FindByReceivableID finds the impairment record for a receivable, nil if none
func (r *GormImpairmentRepository) FindByReceivableID(ctx context.Context, receivableID uuid.UUID) (*factoring.ImpairmentRecord, error) {
	var record factoring.ImpairmentRecord
	if err := conn(ctx, r.db).
		Where("receivable_id = ?", receivableID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Save creates or updates an impairment record
func (r *GormImpairmentRepository) Save(ctx context.Context, record *factoring.ImpairmentRecord) error {
	return conn(ctx, r.db).Save(record).Error
}

// Ensure GormImpairmentRepository implements ImpairmentRepository
var _ factoring.ImpairmentRepository = (*GormImpairmentRepository)(nil)
