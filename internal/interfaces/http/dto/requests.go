package dto

import (
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/shopspring/decimal"
)

// FeeTermsRequest carries the per-approval fee schedule in basis points
type FeeTermsRequest struct {
	TargetYieldBps         int64 `json:"target_yield_bps" binding:"min=0"`
	SpreadBps              int64 `json:"spread_bps" binding:"min=0"`
	UpfrontBps             int64 `json:"upfront_bps" binding:"min=0,max=10000"`
	ProtocolFeeBps         int64 `json:"protocol_fee_bps" binding:"min=0"`
	AdminFeeBps            int64 `json:"admin_fee_bps" binding:"min=0"`
	MinDaysInterestApplied int64 `json:"min_days_interest_applied" binding:"min=0"`
}

// ToDomain converts the request to domain fee terms
func (r FeeTermsRequest) ToDomain() factoring.FeeTerms {
	return factoring.FeeTerms{
		TargetYieldBps:         r.TargetYieldBps,
		SpreadBps:              r.SpreadBps,
		UpfrontBps:             r.UpfrontBps,
		ProtocolFeeBps:         r.ProtocolFeeBps,
		AdminFeeBps:            r.AdminFeeBps,
		MinDaysInterestApplied: r.MinDaysInterestApplied,
	}
}

// ApproveRequest represents an underwriter approving a receivable for
// factoring. Terms are optional; the pool defaults apply when omitted.
type ApproveRequest struct {
	ReceivableID string           `json:"receivable_id" binding:"required,uuid"`
	Terms        *FeeTermsRequest `json:"terms"`
}

// FundRequest represents an originator funding an approved receivable
type FundRequest struct {
	ReceivableID     string `json:"receivable_id" binding:"required,uuid"`
	ChosenUpfrontBps int64  `json:"chosen_upfront_bps" binding:"required,gt=0,max=10000"`
	Receiver         string `json:"receiver" binding:"omitempty,uuid"`
}

// QuoteFundingRequest asks what a funding at the given advance rate pays out
type QuoteFundingRequest struct {
	ChosenUpfrontBps int64 `form:"chosen_upfront_bps" binding:"required,gt=0,max=10000"`
}

// DepositRequest books assets into the pool for units
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RedeemRequest asks to redeem a number of units
type RedeemRequest struct {
	Units decimal.Decimal `json:"units" binding:"required"`
}

// WithdrawRequest asks to withdraw an asset amount
type WithdrawRequest struct {
	Assets decimal.Decimal `json:"assets" binding:"required"`
}

// SettingsRequest carries the pool policy knobs
type SettingsRequest struct {
	ApprovalDurationHours int64           `json:"approval_duration_hours" binding:"required,gt=0"`
	GracePeriodDays       int64           `json:"grace_period_days" binding:"min=0"`
	DefaultTerms          FeeTermsRequest `json:"default_terms" binding:"required"`
	MaxQueueSize          int64           `json:"max_queue_size" binding:"required,gt=0"`
	ReserveSplitDivisor   int64           `json:"reserve_split_divisor" binding:"required,gt=0"`
	StatusPageLimit       int             `json:"status_page_limit" binding:"required,gt=0"`
	ReconcileBatchSize    int             `json:"reconcile_batch_size" binding:"required,gt=0"`
}

// ToDomain converts the request to domain settings
func (r SettingsRequest) ToDomain() pool.Settings {
	return pool.Settings{
		ApprovalDuration:    time.Duration(r.ApprovalDurationHours) * time.Hour,
		GracePeriodDays:     r.GracePeriodDays,
		DefaultTerms:        r.DefaultTerms.ToDomain(),
		MaxQueueSize:        r.MaxQueueSize,
		ReserveSplitDivisor: r.ReserveSplitDivisor,
		StatusPageLimit:     r.StatusPageLimit,
		ReconcileBatchSize:  r.ReconcileBatchSize,
	}
}

// BootstrapRequest initializes the pool state
type BootstrapRequest struct {
	CustodyAccount string          `json:"custody_account" binding:"required,uuid"`
	Settings       SettingsRequest `json:"settings" binding:"required"`
}

// TopUpReserveRequest adds operator assets to the loss reserve
type TopUpReserveRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// WithdrawFeesRequest pays accrued fees out of a fee balance.
// To defaults to the calling operator when omitted.
type WithdrawFeesRequest struct {
	To     string          `json:"to" binding:"omitempty,uuid"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RoleRequest grants or revokes an actor role
type RoleRequest struct {
	Actor string `json:"actor" binding:"required,uuid"`
	Role  string `json:"role" binding:"required,oneof=depositor originator underwriter operator"`
}

// IssueReceivableRequest registers a receivable with the registry
type IssueReceivableRequest struct {
	ID        string          `json:"id" binding:"omitempty,uuid"`
	FaceValue decimal.Decimal `json:"face_value" binding:"required"`
	DueDate   time.Time       `json:"due_date" binding:"required"`
	Creditor  string          `json:"creditor" binding:"required,uuid"`
	Owner     string          `json:"owner" binding:"omitempty,uuid"`
}

// RecordPaymentRequest records an obligor payment against a receivable
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// TokenRequest mints a development token for the given actor and roles
type TokenRequest struct {
	ActorID string   `json:"actor_id" binding:"required,uuid"`
	Roles   []string `json:"roles"`
}
