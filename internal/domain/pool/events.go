package pool

import (
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names for pool-level events
const (
	EventDeposited        = "PoolDeposited"
	EventRedeemed         = "PoolRedeemed"
	EventRedemptionQueued = "RedemptionQueued"
	EventQueueFull        = "RedemptionQueueFull"
	EventReserveToppedUp  = "LossReserveToppedUp"
	EventFeesWithdrawn    = "FeesWithdrawn"
)

const aggregateTypePool = "PoolState"

// DepositedEvent is raised when a depositor adds assets and is minted units
type DepositedEvent struct {
	shared.BaseDomainEvent
	Depositor uuid.UUID       `json:"depositor"`
	Assets    decimal.Decimal `json:"assets"`
	Units     decimal.Decimal `json:"units"`
	Price     decimal.Decimal `json:"price"`
}

// EventType returns the event type name
func (e *DepositedEvent) EventType() string { return EventDeposited }

// NewDepositedEvent creates a new DepositedEvent
func NewDepositedEvent(s *State, depositor uuid.UUID, assets, units, price decimal.Decimal) *DepositedEvent {
	return &DepositedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventDeposited, aggregateTypePool, s.ID),
		Depositor:       depositor,
		Assets:          assets,
		Units:           units,
		Price:           price,
	}
}

// RedeemedEvent is raised when units are burned and assets paid out,
// immediately or from the queue
type RedeemedEvent struct {
	shared.BaseDomainEvent
	Owner     uuid.UUID       `json:"owner"`
	Units     decimal.Decimal `json:"units"`
	Assets    decimal.Decimal `json:"assets"`
	FromQueue bool            `json:"from_queue"`
}

// EventType returns the event type name
func (e *RedeemedEvent) EventType() string { return EventRedeemed }

// NewRedeemedEvent creates a new RedeemedEvent
func NewRedeemedEvent(s *State, owner uuid.UUID, units, assets decimal.Decimal, fromQueue bool) *RedeemedEvent {
	return &RedeemedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventRedeemed, aggregateTypePool, s.ID),
		Owner:           owner,
		Units:           units,
		Assets:          assets,
		FromQueue:       fromQueue,
	}
}

// RedemptionQueuedEvent is raised when an unserved remainder is enqueued
type RedemptionQueuedEvent struct {
	shared.BaseDomainEvent
	Owner    uuid.UUID       `json:"owner"`
	Units    decimal.Decimal `json:"units"`
	Position int64           `json:"position"`
}

// EventType returns the event type name
func (e *RedemptionQueuedEvent) EventType() string { return EventRedemptionQueued }

// NewRedemptionQueuedEvent creates a new RedemptionQueuedEvent
func NewRedemptionQueuedEvent(s *State, owner uuid.UUID, units decimal.Decimal, position int64) *RedemptionQueuedEvent {
	return &RedemptionQueuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventRedemptionQueued, aggregateTypePool, s.ID),
		Owner:           owner,
		Units:           units,
		Position:        position,
	}
}

// QueueFullEvent is raised when an enqueue is refused at capacity
type QueueFullEvent struct {
	shared.BaseDomainEvent
	Owner    uuid.UUID `json:"owner"`
	Capacity int64     `json:"capacity"`
}

// EventType returns the event type name
func (e *QueueFullEvent) EventType() string { return EventQueueFull }

// NewQueueFullEvent creates a new QueueFullEvent
func NewQueueFullEvent(s *State, owner uuid.UUID, capacity int64) *QueueFullEvent {
	return &QueueFullEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventQueueFull, aggregateTypePool, s.ID),
		Owner:           owner,
		Capacity:        capacity,
	}
}

// ReserveToppedUpEvent is raised when the operator adds to the loss reserve
type ReserveToppedUpEvent struct {
	shared.BaseDomainEvent
	Amount  decimal.Decimal `json:"amount"`
	Reserve decimal.Decimal `json:"reserve"`
}

// EventType returns the event type name
func (e *ReserveToppedUpEvent) EventType() string { return EventReserveToppedUp }

// NewReserveToppedUpEvent creates a new ReserveToppedUpEvent
func NewReserveToppedUpEvent(s *State, amount decimal.Decimal) *ReserveToppedUpEvent {
	return &ReserveToppedUpEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReserveToppedUp, aggregateTypePool, s.ID),
		Amount:          amount,
		Reserve:         s.LossReserveBalance,
	}
}

// FeesWithdrawnEvent is raised when a fee balance is paid out
type FeesWithdrawnEvent struct {
	shared.BaseDomainEvent
	Balance string          `json:"balance"` // "protocol" or "admin"
	Amount  decimal.Decimal `json:"amount"`
	To      uuid.UUID       `json:"to"`
}

// EventType returns the event type name
func (e *FeesWithdrawnEvent) EventType() string { return EventFeesWithdrawn }

// NewFeesWithdrawnEvent creates a new FeesWithdrawnEvent
func NewFeesWithdrawnEvent(s *State, balance string, amount decimal.Decimal, to uuid.UUID) *FeesWithdrawnEvent {
	return &FeesWithdrawnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventFeesWithdrawn, aggregateTypePool, s.ID),
		Balance:         balance,
		Amount:          amount,
		To:              to,
	}
}
