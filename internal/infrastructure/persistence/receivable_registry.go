package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receivable is the registry's record of an issued receivable. In a
// deployment where receivables live in an external system this table is
// replaced by a client adapter; the engine only sees ReceivableFacts.
type Receivable struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	FaceValue       decimal.Decimal   `gorm:"type:decimal(38,18);not null" json:"face_value"`
	PaidAmount      decimal.Decimal   `gorm:"type:decimal(38,18);not null" json:"paid_amount"`
	DueDate         time.Time         `json:"due_date"`
	Creditor        uuid.UUID         `gorm:"type:uuid;not null;index" json:"creditor"`
	Owner           uuid.UUID         `gorm:"type:uuid;not null;index" json:"owner"`
	Canceled        bool              `gorm:"not null" json:"canceled"`
	Rejected        bool              `gorm:"not null" json:"rejected"`
	SettlementAsset valueobject.Asset `gorm:"type:varchar(16);not null" json:"settlement_asset"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Receivable) TableName() string {
	return "receivables"
}

// GormReceivableRegistry implements factoring.ReceivableRegistry against a
// local receivables table and doubles as the integration surface for
// issuing receivables and reporting obligor payments.
type GormReceivableRegistry struct {
	db *gorm.DB
}

// NewGormReceivableRegistry creates a new GormReceivableRegistry
func NewGormReceivableRegistry(db *gorm.DB) *GormReceivableRegistry {
	return &GormReceivableRegistry{db: db}
}

// GetFacts returns the current facts for a receivable, nil if unknown
func (r *GormReceivableRegistry) GetFacts(ctx context.Context, receivableID uuid.UUID) (*factoring.ReceivableFacts, error) {
	rec, err := r.find(ctx, receivableID)
	if err != nil || rec == nil {
		return nil, err
	}
	return &factoring.ReceivableFacts{
		ReceivableID:    rec.ID,
		FaceValue:       rec.FaceValue,
		PaidAmount:      rec.PaidAmount,
		DueDate:         rec.DueDate,
		Creditor:        rec.Creditor,
		Owner:           rec.Owner,
		Canceled:        rec.Canceled,
		Rejected:        rec.Rejected,
		SettlementAsset: rec.SettlementAsset,
	}, nil
}

// TransferTo moves custody of the receivable to newOwner
func (r *GormReceivableRegistry) TransferTo(ctx context.Context, newOwner, receivableID uuid.UUID) error {
	result := conn(ctx, r.db).
		Model(&Receivable{}).
		Where("id = ?", receivableID).
		Updates(map[string]interface{}{"owner": newOwner, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeNotFound, "Receivable not found in registry")
	}
	return nil
}

// FindPaid returns the ids of fully paid receivables held by owner in
// payment-detection order, bounded by the page
func (r *GormReceivableRegistry) FindPaid(ctx context.Context, owner uuid.UUID, page shared.Page) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := conn(ctx, r.db).
		Model(&Receivable{}).
		Where("owner = ? AND paid_amount >= face_value", owner).
		Order("updated_at ASC, id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Issue registers a new receivable
func (r *GormReceivableRegistry) Issue(ctx context.Context, rec *Receivable) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.FaceValue.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Face value must be positive")
	}
	if rec.Creditor == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Creditor cannot be empty")
	}
	if rec.Owner == uuid.Nil {
		rec.Owner = rec.Creditor
	}
	if rec.SettlementAsset == "" {
		rec.SettlementAsset = valueobject.DefaultAsset
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return conn(ctx, r.db).Create(rec).Error
}

// RecordPayment adds an obligor payment to a receivable, capped at face
// value
func (r *GormReceivableRegistry) RecordPayment(ctx context.Context, receivableID uuid.UUID, amount decimal.Decimal) (*Receivable, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment amount must be positive")
	}

	rec, err := r.find(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Receivable not found in registry")
	}
	if rec.Canceled || rec.Rejected {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Receivable is canceled or rejected")
	}

	rec.PaidAmount = rec.PaidAmount.Add(amount)
	if rec.PaidAmount.GreaterThan(rec.FaceValue) {
		rec.PaidAmount = rec.FaceValue
	}
	rec.UpdatedAt = time.Now()
	if err := conn(ctx, r.db).Save(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// Cancel marks a receivable canceled; an approval against it can no longer
// be funded
func (r *GormReceivableRegistry) Cancel(ctx context.Context, receivableID uuid.UUID) error {
	return r.setFlag(ctx, receivableID, "canceled")
}

// Reject marks a receivable rejected by its obligor
func (r *GormReceivableRegistry) Reject(ctx context.Context, receivableID uuid.UUID) error {
	return r.setFlag(ctx, receivableID, "rejected")
}

func (r *GormReceivableRegistry) setFlag(ctx context.Context, receivableID uuid.UUID, column string) error {
	result := conn(ctx, r.db).
		Model(&Receivable{}).
		Where("id = ?", receivableID).
		Updates(map[string]interface{}{column: true, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeNotFound, "Receivable not found in registry")
	}
	return nil
}

func (r *GormReceivableRegistry) find(ctx context.Context, receivableID uuid.UUID) (*Receivable, error) {
	var rec Receivable
	if err := conn(ctx, r.db).
		Where("id = ?", receivableID).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Ensure GormReceivableRegistry implements ReceivableRegistry
var _ factoring.ReceivableRegistry = (*GormReceivableRegistry)(nil)
