package factoring

import (
	"context"
	"time"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableFacts are the externally-sourced facts about a receivable,
// fetched from whatever system issued it. The engine never mutates these
// except through custody transfer.
type ReceivableFacts struct {
	ReceivableID    uuid.UUID
	FaceValue       decimal.Decimal
	PaidAmount      decimal.Decimal
	DueDate         time.Time
	Creditor        uuid.UUID
	Owner           uuid.UUID
	Canceled        bool
	Rejected        bool
	SettlementAsset valueobject.Asset
}

// IsFullyPaid returns true when the obligor has paid the full face value
func (f *ReceivableFacts) IsFullyPaid() bool {
	return f.PaidAmount.GreaterThanOrEqual(f.FaceValue)
}

// ReceivableRegistry is the adapter to the external receivable system:
// facts lookup plus ownership transfer of the receivable token.
type ReceivableRegistry interface {
	// GetFacts returns the current facts for a receivable, or nil if the
	// registry does not know it
	GetFacts(ctx context.Context, receivableID uuid.UUID) (*ReceivableFacts, error)

	// TransferTo moves custody of the receivable to newOwner
	TransferTo(ctx context.Context, newOwner, receivableID uuid.UUID) error

	// FindPaid returns the ids of fully paid receivables held by owner,
	// bounded by the page. The registry indexes payment state, so the
	// cost is proportional to the page, not to the owner's holdings.
	FindPaid(ctx context.Context, owner uuid.UUID, page shared.Page) ([]uuid.UUID, error)
}

// Operation is the capability kind checked before mutating operations
type Operation string

const (
	OperationDeposit  Operation = "DEPOSIT"
	OperationWithdraw Operation = "WITHDRAW"
	OperationFund     Operation = "FUND"
	OperationApprove  Operation = "APPROVE"
	OperationOperate  Operation = "OPERATE" // settings, reserve top-up, fee withdrawal
)

// AccessController is the identity/allow-list collaborator consulted before
// any gated operation
type AccessController interface {
	IsAllowed(ctx context.Context, actor uuid.UUID, op Operation) (bool, error)
}

// UnitLedger is the fungible ownership-unit bookkeeping collaborator. Only
// valuation of units is specified by this engine; mint/burn/balances live
// behind this port.
type UnitLedger interface {
	BalanceOf(ctx context.Context, owner uuid.UUID) (decimal.Decimal, error)
	TotalSupply(ctx context.Context) (decimal.Decimal, error)
	Mint(ctx context.Context, owner uuid.UUID, units decimal.Decimal) error
	Burn(ctx context.Context, owner uuid.UUID, units decimal.Decimal) error
}
