package factoring

import (
	"context"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalRepository defines persistence for invoice approvals. The active
// set (funded, no terminal outcome) is only ever read through paginated
// queries ordered by funding time.
type ApprovalRepository interface {
	// FindByReceivableID finds the approval for a receivable, nil if none
	FindByReceivableID(ctx context.Context, receivableID uuid.UUID) (*InvoiceApproval, error)

	// FindActive returns a page of the active set ordered by funded_at
	FindActive(ctx context.Context, page shared.Page) ([]InvoiceApproval, error)

	// FindImpaired returns a page of impaired approvals ordered by funded_at
	FindImpaired(ctx context.Context, page shared.Page) ([]InvoiceApproval, error)

	// CountActive returns the size of the active set
	CountActive(ctx context.Context) (int64, error)

	// SumActiveNet returns the total carrying value (funded net) of the
	// active set
	SumActiveNet(ctx context.Context) (decimal.Decimal, error)

	// Save creates or updates an approval
	Save(ctx context.Context, approval *InvoiceApproval) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, approval *InvoiceApproval) error
}

// ImpairmentRepository defines persistence for impairment records
type ImpairmentRepository interface {
	// FindByReceivableID finds the impairment record for a receivable,
	// nil if none
	FindByReceivableID(ctx context.Context, receivableID uuid.UUID) (*ImpairmentRecord, error)

	// Save creates or updates an impairment record
	Save(ctx context.Context, record *ImpairmentRecord) error
}
