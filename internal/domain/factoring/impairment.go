package factoring

import (
	"time"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImpairmentRecord is the per-receivable gain/loss record produced when a
// receivable crosses its grace deadline unpaid. The loss is the net funded
// amount written off; the gain is what the loss-absorption reserve
// contributed. If the receivable is later observed fully paid the record is
// reversed and the ledger entries zeroed.
type ImpairmentRecord struct {
	shared.BaseAggregateRoot
	ReceivableID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"receivable_id"`
	GainAmount   decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"gain_amount"`
	LossAmount   decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"loss_amount"`
	Impaired     bool            `gorm:"not null;index" json:"impaired"`
	ImpairedAt   time.Time       `json:"impaired_at"`
	ReversedAt   *time.Time      `json:"reversed_at,omitempty"`
}

// TableName returns the table name for GORM
func (ImpairmentRecord) TableName() string {
	return "impairment_records"
}

// NewImpairmentRecord creates an impairment for a receivable. The caller is
// responsible for computing loss (the net funded amount) and gain (the
// reserve draw); gain may never exceed loss.
func NewImpairmentRecord(receivableID uuid.UUID, gain, loss decimal.Decimal) (*ImpairmentRecord, error) {
	if receivableID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Receivable ID cannot be empty")
	}
	if loss.IsNegative() || gain.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Impairment amounts cannot be negative")
	}
	if gain.GreaterThan(loss) {
		return nil, shared.NewDomainError(shared.CodeInvariantViolation, "Impairment gain cannot exceed loss")
	}

	return &ImpairmentRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceivableID:      receivableID,
		GainAmount:        gain,
		LossAmount:        loss,
		Impaired:          true,
		ImpairedAt:        time.Now(),
	}, nil
}

// Reapply re-impairs a previously reversed record. A receivable that was
// reversed back to active can cross its grace deadline again.
func (r *ImpairmentRecord) Reapply(now time.Time, gain, loss decimal.Decimal) error {
	if r.Impaired {
		return shared.NewDomainError(shared.CodeInvalidState, "Impairment is already active")
	}
	if loss.IsNegative() || gain.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Impairment amounts cannot be negative")
	}
	if gain.GreaterThan(loss) {
		return shared.NewDomainError(shared.CodeInvariantViolation, "Impairment gain cannot exceed loss")
	}

	r.GainAmount = gain
	r.LossAmount = loss
	r.Impaired = true
	r.ImpairedAt = now
	r.ReversedAt = nil
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// Reverse clears the impairment after the receivable was observed fully
// paid, zeroing the ledger entries. Returns the amounts that were recorded
// so the caller can restore the reserve and the realized-gain counters.
func (r *ImpairmentRecord) Reverse(now time.Time) (gain, loss decimal.Decimal, err error) {
	if !r.Impaired {
		return decimal.Zero, decimal.Zero,
			shared.NewDomainError(shared.CodeInvalidState, "Impairment is not active")
	}

	gain = r.GainAmount
	loss = r.LossAmount

	r.Impaired = false
	r.GainAmount = decimal.Zero
	r.LossAmount = decimal.Zero
	r.ReversedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	return gain, loss, nil
}
