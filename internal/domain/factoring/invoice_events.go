package factoring

import (
	"time"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names for invoice approval lifecycle events
const (
	EventInvoiceApproved    = "InvoiceApproved"
	EventInvoiceFunded      = "InvoiceFunded"
	EventInvoiceReconciled  = "InvoiceReconciled"
	EventInvoiceImpaired    = "InvoiceImpaired"
	EventImpairmentReversed = "ImpairmentReversed"
	EventInvoiceUnfactored  = "InvoiceUnfactored"
)

const aggregateTypeApproval = "InvoiceApproval"

// InvoiceApprovedEvent is raised when a receivable is underwritten
type InvoiceApprovedEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Creditor     uuid.UUID       `json:"creditor"`
	FaceValue    decimal.Decimal `json:"face_value"`
	DueDate      time.Time       `json:"due_date"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Terms        FeeTerms        `json:"terms"`
}

// EventType returns the event type name
func (e *InvoiceApprovedEvent) EventType() string {
	return EventInvoiceApproved
}

// NewInvoiceApprovedEvent creates a new InvoiceApprovedEvent
func NewInvoiceApprovedEvent(a *InvoiceApproval) *InvoiceApprovedEvent {
	return &InvoiceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceApproved, aggregateTypeApproval, a.ID),
		ReceivableID:    a.ReceivableID,
		Creditor:        a.Creditor,
		FaceValue:       a.FaceValue,
		DueDate:         a.DueDate,
		ExpiresAt:       a.ExpiresAt,
		Terms:           a.Terms,
	}
}

// InvoiceFundedEvent is raised when the advance is paid out
type InvoiceFundedEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Receiver     uuid.UUID       `json:"receiver"`
	GrossAmount  decimal.Decimal `json:"gross_amount"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	DueDate      time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *InvoiceFundedEvent) EventType() string {
	return EventInvoiceFunded
}

// NewInvoiceFundedEvent creates a new InvoiceFundedEvent
func NewInvoiceFundedEvent(a *InvoiceApproval) *InvoiceFundedEvent {
	return &InvoiceFundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceFunded, aggregateTypeApproval, a.ID),
		ReceivableID:    a.ReceivableID,
		Receiver:        a.Receiver,
		GrossAmount:     a.FundedGross,
		NetAmount:       a.FundedNet,
		DueDate:         a.DueDate,
	}
}

// InvoiceReconciledEvent is raised when a repaid receivable is reconciled,
// carrying the realized fee breakdown and the signed kickback paid to the
// receiver
type InvoiceReconciledEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Receiver     uuid.UUID       `json:"receiver"`
	Realized     FeeBreakdown    `json:"realized"`
	Kickback     decimal.Decimal `json:"kickback"`
}

// EventType returns the event type name
func (e *InvoiceReconciledEvent) EventType() string {
	return EventInvoiceReconciled
}

// NewInvoiceReconciledEvent creates a new InvoiceReconciledEvent
func NewInvoiceReconciledEvent(a *InvoiceApproval, realized FeeBreakdown, kickback decimal.Decimal) *InvoiceReconciledEvent {
	return &InvoiceReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceReconciled, aggregateTypeApproval, a.ID),
		ReceivableID:    a.ReceivableID,
		Receiver:        a.Receiver,
		Realized:        realized,
		Kickback:        kickback,
	}
}

// InvoiceImpairedEvent is raised when an overdue receivable is written off
type InvoiceImpairedEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID       `json:"receivable_id"`
	GainAmount   decimal.Decimal `json:"gain_amount"`
	LossAmount   decimal.Decimal `json:"loss_amount"`
}

// EventType returns the event type name
func (e *InvoiceImpairedEvent) EventType() string {
	return EventInvoiceImpaired
}

// NewInvoiceImpairedEvent creates a new InvoiceImpairedEvent
func NewInvoiceImpairedEvent(a *InvoiceApproval, gain, loss decimal.Decimal) *InvoiceImpairedEvent {
	return &InvoiceImpairedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceImpaired, aggregateTypeApproval, a.ID),
		ReceivableID:    a.ReceivableID,
		GainAmount:      gain,
		LossAmount:      loss,
	}
}

// ImpairmentReversedEvent is raised when an impaired receivable is later
// observed fully paid and the write-off is undone
type ImpairmentReversedEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID `json:"receivable_id"`
}

// EventType returns the event type name
func (e *ImpairmentReversedEvent) EventType() string {
	return EventImpairmentReversed
}

// NewImpairmentReversedEvent creates a new ImpairmentReversedEvent
func NewImpairmentReversedEvent(a *InvoiceApproval) *ImpairmentReversedEvent {
	return &ImpairmentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventImpairmentReversed, aggregateTypeApproval, a.ID),
		ReceivableID:    a.ReceivableID,
	}
}

// InvoiceUnfactoredEvent is raised when the original creditor unwinds a
// funding, carrying the signed settlement (positive = creditor paid the
// pool)
type InvoiceUnfactoredEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Creditor     uuid.UUID       `json:"creditor"`
	Settlement   decimal.Decimal `json:"settlement"`
	Realized     FeeBreakdown    `json:"realized"`
}

// EventType returns the event type name
func (e *InvoiceUnfactoredEvent) EventType() string {
	return EventInvoiceUnfactored
}

// NewInvoiceUnfactoredEvent creates a new InvoiceUnfactoredEvent
func NewInvoiceUnfactoredEvent(a *InvoiceApproval, settlement decimal.Decimal, realized FeeBreakdown) *InvoiceUnfactoredEvent {
	return &InvoiceUnfactoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceUnfactored, aggregateTypeApproval, a.ID),
		ReceivableID:    a.ReceivableID,
		Creditor:        a.Creditor,
		Settlement:      settlement,
		Realized:        realized,
	}
}
