package pool

import (
	"time"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RedemptionQueueEntry is one queued withdrawal request. Entries are
// strictly FIFO by Position and only ever hold units the owner actually
// had when the request was capped.
type RedemptionQueueEntry struct {
	shared.BaseEntity
	Position        int64           `gorm:"uniqueIndex;not null" json:"position"`
	Owner           uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner"`
	Units           decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"units"`
	RequestedAssets decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"requested_assets"`
}

// TableName returns the table name for GORM
func (RedemptionQueueEntry) TableName() string {
	return "redemption_queue_entries"
}

// NewRedemptionQueueEntry creates a queue entry for the unserved remainder
// of a withdrawal request
func NewRedemptionQueueEntry(owner uuid.UUID, units, requestedAssets decimal.Decimal) (*RedemptionQueueEntry, error) {
	if owner == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Owner cannot be empty")
	}
	if units.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Queued units must be positive")
	}
	return &RedemptionQueueEntry{
		BaseEntity:      shared.NewBaseEntity(),
		Owner:           owner,
		Units:           units,
		RequestedAssets: requestedAssets,
	}, nil
}

// Serve reduces the entry by the served units and reports whether the
// entry is exhausted
func (e *RedemptionQueueEntry) Serve(units decimal.Decimal) (done bool, err error) {
	if units.LessThanOrEqual(decimal.Zero) || units.GreaterThan(e.Units) {
		return false, shared.NewDomainError(shared.CodeInvalidInput, "Served units out of range")
	}
	e.Units = e.Units.Sub(units)
	e.UpdatedAt = time.Now()
	return e.Units.IsZero(), nil
}
