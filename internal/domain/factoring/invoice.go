package factoring

import (
	"fmt"
	"time"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalStatus represents the lifecycle state of an invoice approval
type ApprovalStatus string

const (
	ApprovalStatusApproved   ApprovalStatus = "APPROVED"   // Underwritten, awaiting funding
	ApprovalStatusFunded     ApprovalStatus = "FUNDED"     // Advance paid out, receivable active
	ApprovalStatusReconciled ApprovalStatus = "RECONCILED" // Externally repaid, fees realized
	ApprovalStatusImpaired   ApprovalStatus = "IMPAIRED"   // Written off past the grace deadline
	ApprovalStatusUnfactored ApprovalStatus = "UNFACTORED" // Voluntarily unwound by the creditor
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusApproved, ApprovalStatusFunded, ApprovalStatusReconciled,
		ApprovalStatusImpaired, ApprovalStatusUnfactored:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the approval can never become active again.
// IMPAIRED is not terminal: a later repayment reverses it back through
// reconciliation.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusReconciled || s == ApprovalStatusUnfactored
}

// InvoiceApproval is the per-receivable approval/funding record. It owns no
// cash; it records underwriting terms and lifecycle facts. An approval is
// funded at most once; FundedAt != nil means the receivable is active.
type InvoiceApproval struct {
	shared.BaseAggregateRoot
	ReceivableID uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"receivable_id"`
	Status       ApprovalStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// Creditor of record when the approval was underwritten. Funding fails
	// if the registry reports a different creditor by then.
	Creditor  uuid.UUID `gorm:"type:uuid;not null" json:"creditor"`
	ExpiresAt time.Time `json:"expires_at"`
	DueDate   time.Time `json:"due_date"`

	Terms FeeTerms `gorm:"embedded;embeddedPrefix:terms_" json:"terms"`

	// Face value and paid amount captured at approval time, used to detect
	// externally-driven state changes before funding.
	FaceValue         decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"face_value"`
	InitialPaidAmount decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"initial_paid_amount"`

	// Funding facts, zero until funded
	FundedAt          *time.Time      `gorm:"index" json:"funded_at,omitempty"`
	Receiver          uuid.UUID       `gorm:"type:uuid" json:"receiver"`
	ChosenUpfrontBps  int64           `json:"chosen_upfront_bps"`
	FundedGross       decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"funded_gross"`
	FundedNet         decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"funded_net"`
	TargetProtocolFee decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"target_protocol_fee"`

	ReconciledAt *time.Time `json:"reconciled_at,omitempty"`
	UnfactoredAt *time.Time `json:"unfactored_at,omitempty"`
}

// TableName returns the table name for GORM
func (InvoiceApproval) TableName() string {
	return "invoice_approvals"
}

// NewInvoiceApproval underwrites a receivable. The caller (approval service)
// has already checked the registry facts: the receivable exists, is not
// fully paid, and settles in the pool's accounting asset.
func NewInvoiceApproval(
	receivableID uuid.UUID,
	creditor uuid.UUID,
	faceValue decimal.Decimal,
	paidAmount decimal.Decimal,
	dueDate time.Time,
	terms FeeTerms,
	approvalDuration time.Duration,
) (*InvoiceApproval, error) {
	if receivableID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Receivable ID cannot be empty")
	}
	if creditor == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Creditor cannot be empty")
	}
	if faceValue.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Face value must be positive")
	}
	if paidAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Paid amount cannot be negative")
	}
	if paidAmount.GreaterThanOrEqual(faceValue) {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Receivable is already fully paid")
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	a := &InvoiceApproval{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceivableID:      receivableID,
		Status:            ApprovalStatusApproved,
		Creditor:          creditor,
		ExpiresAt:         now.Add(approvalDuration),
		DueDate:           dueDate,
		Terms:             terms,
		FaceValue:         faceValue,
		InitialPaidAmount: paidAmount,
		FundedGross:       decimal.Zero,
		FundedNet:         decimal.Zero,
		TargetProtocolFee: decimal.Zero,
	}

	a.AddDomainEvent(NewInvoiceApprovedEvent(a))

	return a, nil
}

// IsActive returns true if the receivable is funded and has no terminal
// outcome recorded; only active approvals are scanned by reconciliation
// and the status scanner
func (a *InvoiceApproval) IsActive() bool {
	return a.Status == ApprovalStatusFunded
}

// IsExpired returns true if the approval window has elapsed
func (a *InvoiceApproval) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// GraceDeadline returns the instant after which an unpaid receivable may be
// impaired
func (a *InvoiceApproval) GraceDeadline(gracePeriodDays int64) time.Time {
	return a.DueDate.Add(time.Duration(gracePeriodDays) * 24 * time.Hour)
}

// Fund records the advance against this approval. chosenUpfrontBps may be
// at most the underwritten UpfrontBps; the quote must have been computed
// against the chosen value, never the approved maximum.
func (a *InvoiceApproval) Fund(now time.Time, chosenUpfrontBps int64, receiver uuid.UUID, quote FundingQuote) error {
	if a.Status != ApprovalStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot fund approval in %s status", a.Status))
	}
	if a.IsExpired(now) {
		return shared.NewDomainError(shared.CodeInvalidState, "Approval has expired")
	}
	if chosenUpfrontBps <= 0 || chosenUpfrontBps > a.Terms.UpfrontBps {
		return shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Chosen upfront %d bps exceeds approved %d bps", chosenUpfrontBps, a.Terms.UpfrontBps))
	}
	if receiver == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Receiver cannot be empty")
	}

	fundedAt := now
	a.Status = ApprovalStatusFunded
	a.FundedAt = &fundedAt
	a.Receiver = receiver
	a.ChosenUpfrontBps = chosenUpfrontBps
	a.FundedGross = quote.GrossAmount
	a.FundedNet = quote.NetAmount
	a.TargetProtocolFee = quote.Fees.ProtocolFee
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewInvoiceFundedEvent(a))

	return nil
}

// MarkReconciled terminates the approval after the receivable was observed
// externally repaid. Allowed from FUNDED, or from IMPAIRED after the
// impairment has been reversed by the caller.
func (a *InvoiceApproval) MarkReconciled(now time.Time, realized FeeBreakdown, kickback decimal.Decimal) error {
	if a.Status != ApprovalStatusFunded {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot reconcile approval in %s status", a.Status))
	}

	a.Status = ApprovalStatusReconciled
	a.ReconciledAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewInvoiceReconciledEvent(a, realized, kickback))

	return nil
}

// MarkImpaired writes the receivable off after its grace deadline
func (a *InvoiceApproval) MarkImpaired(now time.Time, gain, loss decimal.Decimal) error {
	if a.Status != ApprovalStatusFunded {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot impair approval in %s status", a.Status))
	}

	a.Status = ApprovalStatusImpaired
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewInvoiceImpairedEvent(a, gain, loss))

	return nil
}

// ReverseImpairment returns an impaired approval to FUNDED so a detected
// repayment can reconcile it normally
func (a *InvoiceApproval) ReverseImpairment(now time.Time) error {
	if a.Status != ApprovalStatusImpaired {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot reverse impairment for approval in %s status", a.Status))
	}

	a.Status = ApprovalStatusFunded
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewImpairmentReversedEvent(a))

	return nil
}

// MarkUnfactored terminates the approval after the original creditor
// settled the signed unfactor amount and took the receivable back
func (a *InvoiceApproval) MarkUnfactored(now time.Time, settlement decimal.Decimal, realized FeeBreakdown) error {
	if a.Status != ApprovalStatusFunded {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot unfactor approval in %s status", a.Status))
	}

	a.Status = ApprovalStatusUnfactored
	a.UnfactoredAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewInvoiceUnfactoredEvent(a, settlement, realized))

	return nil
}
