package persistence

import (
	"context"
	"errors"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormApprovalRepository implements factoring.ApprovalRepository using GORM
type GormApprovalRepository struct {
	db *gorm.DB
}

// NewGormApprovalRepository creates a new GormApprovalRepository
func NewGormApprovalRepository(db *gorm.DB) *GormApprovalRepository {
	return &GormApprovalRepository{db: db}
}

// FindByReceivableID finds the approval for a receivable, nil if none
func (r *GormApprovalRepository) FindByReceivableID(ctx context.Context, receivableID uuid.UUID) (*factoring.InvoiceApproval, error) {
	var approval factoring.InvoiceApproval
	if err := conn(ctx, r.db).
		Where("receivable_id = ?", receivableID).
		First(&approval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &approval, nil
}

// FindActive returns a page of funded approvals ordered by funding time
func (r *GormApprovalRepository) FindActive(ctx context.Context, page shared.Page) ([]factoring.InvoiceApproval, error) {
	return r.findByStatus(ctx, factoring.ApprovalStatusFunded, page)
}

// FindImpaired returns a page of impaired approvals ordered by funding time
func (r *GormApprovalRepository) FindImpaired(ctx context.Context, page shared.Page) ([]factoring.InvoiceApproval, error) {
	return r.findByStatus(ctx, factoring.ApprovalStatusImpaired, page)
}

func (r *GormApprovalRepository) findByStatus(ctx context.Context, status factoring.ApprovalStatus, page shared.Page) ([]factoring.InvoiceApproval, error) {
	var approvals []factoring.InvoiceApproval
	if err := conn(ctx, r.db).
		Where("status = ?", status).
		Order("funded_at ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// CountActive returns the size of the active set
func (r *GormApprovalRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&factoring.InvoiceApproval{}).
		Where("status = ?", factoring.ApprovalStatusFunded).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumActiveNet returns the total funded net of the active set. Impaired
// approvals are excluded; their carrying value was written off.
func (r *GormApprovalRepository) SumActiveNet(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := conn(ctx, r.db).
		Model(&factoring.InvoiceApproval{}).
		Select("COALESCE(SUM(funded_net), 0) as total").
		Where("status = ?", factoring.ApprovalStatusFunded).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates an approval
func (r *GormApprovalRepository) Save(ctx context.Context, approval *factoring.InvoiceApproval) error {
	return conn(ctx, r.db).Save(approval).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormApprovalRepository) SaveWithLock(ctx context.Context, approval *factoring.InvoiceApproval) error {
	result := conn(ctx, r.db).
		Model(approval).
		Where("id = ? AND version <= ?", approval.ID, approval.Version).
		Select("*").
		Updates(approval)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormApprovalRepository implements ApprovalRepository
var _ factoring.ApprovalRepository = (*GormApprovalRepository)(nil)
