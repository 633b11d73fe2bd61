package pool

import (
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settings is the owner-settable policy surface. Fee terms are snapshotted
// into approvals at creation, so changes here only affect receivables
// approved afterwards.
type Settings struct {
	ApprovalDuration    time.Duration      `json:"approval_duration"`
	GracePeriodDays     int64              `json:"grace_period_days"`
	DefaultTerms        factoring.FeeTerms `gorm:"embedded;embeddedPrefix:default_terms_" json:"default_terms"`
	MaxQueueSize        int64              `json:"max_queue_size"`
	ReserveSplitDivisor int64              `json:"reserve_split_divisor"`
	StatusPageLimit     int                `json:"status_page_limit"`
	ReconcileBatchSize  int                `json:"reconcile_batch_size"`
}

// Validate checks the settings are usable
func (s Settings) Validate() error {
	if s.ApprovalDuration <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Approval duration must be positive")
	}
	if s.GracePeriodDays < 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Grace period cannot be negative")
	}
	if s.MaxQueueSize <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Max queue size must be positive")
	}
	if s.ReserveSplitDivisor < 1 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reserve split divisor must be at least 1")
	}
	if s.StatusPageLimit <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Status page limit must be positive")
	}
	if s.ReconcileBatchSize <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reconcile batch size must be positive")
	}
	return s.DefaultTerms.Validate()
}

// State is the pool-wide accounting state: one row, exclusively owned by
// the engine. All balances are in the pool's accounting asset.
//
// LiquidBalance tracks actual cash held; the fee balances and the loss
// reserve are earmarks carved out of that cash, so depositor-available
// liquidity is liquid minus all three.
type State struct {
	shared.BaseAggregateRoot

	// CustodyAccount is the identity under which the pool holds
	// receivables in the external registry
	CustodyAccount uuid.UUID `gorm:"type:uuid;not null" json:"custody_account"`

	LiquidBalance      decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"liquid_balance"`
	ProtocolFeeBalance decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"protocol_fee_balance"`
	AdminFeeBalance    decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"admin_fee_balance"`
	LossReserveBalance decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"loss_reserve_balance"`

	// Cumulative counters backing the pricing consistency check: fee
	// deductions exceeding realized fee revenue signals an accounting
	// inconsistency and pricing must fail rather than report nonsense.
	RealizedFeeRevenue decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"realized_fee_revenue"`
	FeeDeductions      decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"fee_deductions"`

	// RealizedGains is the running signed depositor profit: realized
	// interest plus impairment gains minus impairment losses
	RealizedGains decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"realized_gains"`

	Settings Settings `gorm:"embedded" json:"settings"`
}

// TableName returns the table name for GORM
func (State) TableName() string {
	return "pool_states"
}

// NewState bootstraps the pool accounting state
func NewState(custodyAccount uuid.UUID, settings Settings) (*State, error) {
	if custodyAccount == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Custody account cannot be empty")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &State{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		CustodyAccount:     custodyAccount,
		LiquidBalance:      decimal.Zero,
		ProtocolFeeBalance: decimal.Zero,
		AdminFeeBalance:    decimal.Zero,
		LossReserveBalance: decimal.Zero,
		RealizedFeeRevenue: decimal.Zero,
		FeeDeductions:      decimal.Zero,
		RealizedGains:      decimal.Zero,
		Settings:           settings,
	}, nil
}

// AvailableLiquidity is the cash not earmarked for fees or the loss
// reserve; fundings and redemptions may only draw from this.
func (s *State) AvailableLiquidity() decimal.Decimal {
	return s.LiquidBalance.
		Sub(s.ProtocolFeeBalance).
		Sub(s.AdminFeeBalance).
		Sub(s.LossReserveBalance)
}

// Deposit books depositor cash into the pool
func (s *State) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Deposit amount must be positive")
	}
	s.LiquidBalance = s.LiquidBalance.Add(amount)
	s.touch()
	return nil
}

// PayOut moves unencumbered cash out of the pool (redemptions)
func (s *State) PayOut(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Payout amount must be positive")
	}
	if amount.GreaterThan(s.AvailableLiquidity()) {
		return shared.ErrInsufficientLiquidity
	}
	s.LiquidBalance = s.LiquidBalance.Sub(amount)
	s.touch()
	return nil
}

// ApplyFunding books an advance: the net amount leaves the pool and the
// upfront protocol fee is earmarked out of liquid into the protocol
// balance. Fails if the gross amount exceeds available liquidity.
func (s *State) ApplyFunding(gross, net, protocolFee decimal.Decimal) error {
	if gross.GreaterThan(s.AvailableLiquidity()) {
		return shared.ErrInsufficientLiquidity
	}
	s.LiquidBalance = s.LiquidBalance.Sub(net)
	s.ProtocolFeeBalance = s.ProtocolFeeBalance.Add(protocolFee)
	s.RealizedFeeRevenue = s.RealizedFeeRevenue.Add(protocolFee)
	s.FeeDeductions = s.FeeDeductions.Add(protocolFee)
	s.touch()
	return nil
}

// ApplyReconciliation books a detected repayment: the proceeds the pool
// actually collected (face value minus anything paid before funding)
// arrive, the signed kickback goes back to the receiver, and the realized
// fees are credited. The protocol component is incremental because its
// target was already credited at funding time.
func (s *State) ApplyReconciliation(proceeds, kickback decimal.Decimal, realized factoring.FeeBreakdown, targetProtocolFee decimal.Decimal) {
	s.LiquidBalance = s.LiquidBalance.Add(proceeds).Sub(kickback)
	s.creditRealized(realized, targetProtocolFee)
}

// ApplyUnfactor books a voluntary unwind: the signed settlement moves
// between pool and creditor, the obligor payments collected while the pool
// held custody are booked in, and the realized fees are credited. The net
// inflow is settlement plus collected; the liquidity check runs against
// that net figure because collected cash offsets a refund.
func (s *State) ApplyUnfactor(settlement, collected decimal.Decimal, realized factoring.FeeBreakdown, targetProtocolFee decimal.Decimal) error {
	inflow := settlement.Add(collected)
	if inflow.IsNegative() && inflow.Neg().GreaterThan(s.AvailableLiquidity()) {
		return shared.ErrInsufficientLiquidity
	}
	s.LiquidBalance = s.LiquidBalance.Add(inflow)
	s.creditRealized(realized, targetProtocolFee)
	return nil
}

func (s *State) creditRealized(realized factoring.FeeBreakdown, targetProtocolFee decimal.Decimal) {
	protocolIncremental := realized.ProtocolFee.Sub(targetProtocolFee)
	adminAndSpread := realized.AdminFee.Add(realized.Spread)

	s.ProtocolFeeBalance = s.ProtocolFeeBalance.Add(protocolIncremental)
	s.AdminFeeBalance = s.AdminFeeBalance.Add(adminAndSpread)
	s.RealizedFeeRevenue = s.RealizedFeeRevenue.Add(realized.Total().Sub(targetProtocolFee))
	s.FeeDeductions = s.FeeDeductions.Add(protocolIncremental).Add(adminAndSpread)
	s.RealizedGains = s.RealizedGains.Add(realized.Interest)
	s.touch()
}

// ImpairmentGain computes the reserve draw for a write-off of the given
// loss: a configurable share of the remaining reserve, never more than the
// loss itself. The reserve is split rather than drained so one impairment
// cannot exhaust it for later ones.
func (s *State) ImpairmentGain(loss decimal.Decimal) decimal.Decimal {
	gain := s.LossReserveBalance.Div(decimal.NewFromInt(s.Settings.ReserveSplitDivisor))
	if gain.GreaterThan(loss) {
		gain = loss
	}
	return gain
}

// ApplyImpairment releases the gain from the reserve and recognizes the
// signed net loss
func (s *State) ApplyImpairment(gain, loss decimal.Decimal) {
	s.LossReserveBalance = s.LossReserveBalance.Sub(gain)
	s.RealizedGains = s.RealizedGains.Add(gain).Sub(loss)
	s.touch()
}

// ReverseImpairment restores the reserve and backs out the recognized loss
// after an impaired receivable was observed fully paid
func (s *State) ReverseImpairment(gain, loss decimal.Decimal) {
	s.LossReserveBalance = s.LossReserveBalance.Add(gain)
	s.RealizedGains = s.RealizedGains.Sub(gain).Add(loss)
	s.touch()
}

// TopUpReserve books operator cash into the loss-absorption reserve
func (s *State) TopUpReserve(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reserve top-up must be positive")
	}
	s.LiquidBalance = s.LiquidBalance.Add(amount)
	s.LossReserveBalance = s.LossReserveBalance.Add(amount)
	s.touch()
	return nil
}

// WithdrawProtocolFees debits the protocol fee balance and pays it out
func (s *State) WithdrawProtocolFees(amount decimal.Decimal) error {
	return s.withdrawFees(&s.ProtocolFeeBalance, amount)
}

// WithdrawAdminFees debits the admin/spread fee balance and pays it out
func (s *State) WithdrawAdminFees(amount decimal.Decimal) error {
	return s.withdrawFees(&s.AdminFeeBalance, amount)
}

func (s *State) withdrawFees(balance *decimal.Decimal, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Withdrawal amount must be positive")
	}
	if amount.GreaterThan(*balance) || amount.GreaterThan(s.LiquidBalance) {
		return shared.ErrInsufficientLiquidity
	}
	*balance = balance.Sub(amount)
	s.LiquidBalance = s.LiquidBalance.Sub(amount)
	s.touch()
	return nil
}

// UpdateSettings replaces the policy settings; already-approved receivables
// keep their captured fee terms
func (s *State) UpdateSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.Settings = settings
	s.touch()
	return nil
}

func (s *State) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
