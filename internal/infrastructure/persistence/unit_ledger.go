package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitBalance is one owner's ownership-unit balance row
type UnitBalance struct {
	Owner     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Balance   decimal.Decimal `gorm:"type:decimal(38,18);not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (UnitBalance) TableName() string {
	return "unit_balances"
}

// GormUnitLedger implements factoring.UnitLedger on a balance table. Mint
// and burn run inside the engine's operation transaction, so balance and
// pool cash always move together.
type GormUnitLedger struct {
	db *gorm.DB
}

// NewGormUnitLedger creates a new GormUnitLedger
func NewGormUnitLedger(db *gorm.DB) *GormUnitLedger {
	return &GormUnitLedger{db: db}
}

// BalanceOf returns the owner's unit balance, zero if the owner is unknown
func (l *GormUnitLedger) BalanceOf(ctx context.Context, owner uuid.UUID) (decimal.Decimal, error) {
	var row UnitBalance
	if err := conn(ctx, l.db).
		Where("owner = ?", owner).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return row.Balance, nil
}

// TotalSupply returns the sum of all unit balances
func (l *GormUnitLedger) TotalSupply(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := conn(ctx, l.db).
		Model(&UnitBalance{}).
		Select("COALESCE(SUM(balance), 0) as total").
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Mint credits units to an owner
func (l *GormUnitLedger) Mint(ctx context.Context, owner uuid.UUID, units decimal.Decimal) error {
	if units.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Minted units must be positive")
	}

	db := conn(ctx, l.db)
	balance, err := l.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	return db.Save(&UnitBalance{
		Owner:     owner,
		Balance:   balance.Add(units),
		UpdatedAt: time.Now(),
	}).Error
}

// Burn debits units from an owner, failing if the balance is insufficient
func (l *GormUnitLedger) Burn(ctx context.Context, owner uuid.UUID, units decimal.Decimal) error {
	if units.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Burned units must be positive")
	}

	balance, err := l.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if units.GreaterThan(balance) {
		return shared.NewDomainError(shared.CodeInvalidState, "Unit balance is insufficient")
	}
	return conn(ctx, l.db).Save(&UnitBalance{
		Owner:     owner,
		Balance:   balance.Sub(units),
		UpdatedAt: time.Now(),
	}).Error
}

// Ensure GormUnitLedger implements UnitLedger
var _ factoring.UnitLedger = (*GormUnitLedger)(nil)
