package factoring

import (
	"context"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PoolStatus is the accounting snapshot of the pool
type PoolStatus struct {
	CustodyAccount     uuid.UUID       `json:"custody_account"`
	LiquidBalance      decimal.Decimal `json:"liquid_balance"`
	AvailableLiquidity decimal.Decimal `json:"available_liquidity"`
	ProtocolFeeBalance decimal.Decimal `json:"protocol_fee_balance"`
	AdminFeeBalance    decimal.Decimal `json:"admin_fee_balance"`
	LossReserveBalance decimal.Decimal `json:"loss_reserve_balance"`
	RealizedGains      decimal.Decimal `json:"realized_gains"`
	ActiveCount        int64           `json:"active_count"`
	ActiveCarrying     decimal.Decimal `json:"active_carrying"`
	CapitalAccount     decimal.Decimal `json:"capital_account"`
	TotalUnits         decimal.Decimal `json:"total_units"`
	PricePerUnit       decimal.Decimal `json:"price_per_unit"`
	QueueLength        int64           `json:"queue_length"`
	Settings           pool.Settings   `json:"settings"`
}

// PoolStatus returns the full accounting snapshot. Pricing fails with an
// invariant violation when the fee counters are inconsistent; the snapshot
// is not served with a nonsense price.
func (e *Engine) PoolStatus(ctx context.Context) (*PoolStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	carrying, err := e.approvals.SumActiveNet(ctx)
	if err != nil {
		return nil, err
	}
	capital, err := pool.CapitalAccount(state, carrying)
	if err != nil {
		return nil, err
	}
	supply, err := e.units.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	activeCount, err := e.approvals.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	queueLen, err := e.queue.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &PoolStatus{
		CustodyAccount:     state.CustodyAccount,
		LiquidBalance:      state.LiquidBalance,
		AvailableLiquidity: state.AvailableLiquidity(),
		ProtocolFeeBalance: state.ProtocolFeeBalance,
		AdminFeeBalance:    state.AdminFeeBalance,
		LossReserveBalance: state.LossReserveBalance,
		RealizedGains:      state.RealizedGains,
		ActiveCount:        activeCount,
		ActiveCarrying:     carrying,
		CapitalAccount:     capital,
		TotalUnits:         supply,
		PricePerUnit:       pool.PricePerUnit(capital, supply),
		QueueLength:        queueLen,
		Settings:           state.Settings,
	}, nil
}

// ReceivableStatus is one active-set entry as the scanner reports it
type ReceivableStatus struct {
	ReceivableID uuid.UUID                `json:"receivable_id"`
	Status       factoring.ApprovalStatus `json:"status"`
	FaceValue    decimal.Decimal          `json:"face_value"`
	PaidAmount   decimal.Decimal          `json:"paid_amount"`
	FundedNet    decimal.Decimal          `json:"funded_net"`
	DueDate      time.Time                `json:"due_date"`
	Paid         bool                     `json:"paid"`
	Overdue      bool                     `json:"overdue"`
	Impairable   bool                     `json:"impairable"`
}

// StatusPage is a bounded window over a scanned approval set
type StatusPage struct {
	Entries []ReceivableStatus `json:"entries"`
	Offset  int                `json:"offset"`
	Limit   int                `json:"limit"`
	HasMore bool               `json:"has_more"`
}

// ViewPoolStatus scans one page of the active set and flags each entry
// against the live registry facts: repaid, overdue, or past the grace
// deadline and eligible for impairment
func (e *Engine) ViewPoolStatus(ctx context.Context, page shared.Page) (*StatusPage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scanStatuses(ctx, page, e.approvals.FindActive, nil)
}

// ViewPaidStatus scans one page of the active set and reports only the
// entries the registry currently reports fully paid, the set a
// reconciliation pass would settle
func (e *Engine) ViewPaidStatus(ctx context.Context, page shared.Page) (*StatusPage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scanStatuses(ctx, page, e.approvals.FindActive, func(s ReceivableStatus) bool {
		return s.Paid
	})
}

// ViewImpairedStatus scans one page of the impaired set
func (e *Engine) ViewImpairedStatus(ctx context.Context, page shared.Page) (*StatusPage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scanStatuses(ctx, page, e.approvals.FindImpaired, nil)
}

type approvalFinder func(ctx context.Context, page shared.Page) ([]factoring.InvoiceApproval, error)

func (e *Engine) scanStatuses(ctx context.Context, page shared.Page, find approvalFinder, keep func(ReceivableStatus) bool) (*StatusPage, error) {
	state, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Clamp(state.Settings.StatusPageLimit)

	approvals, err := find(ctx, shared.Page{Offset: page.Offset, Limit: page.Limit + 1})
	if err != nil {
		return nil, err
	}
	hasMore := len(approvals) > page.Limit
	if hasMore {
		approvals = approvals[:page.Limit]
	}

	now := e.clock()
	entries := make([]ReceivableStatus, 0, len(approvals))
	for i := range approvals {
		a := &approvals[i]
		facts, err := e.facts(ctx, a.ReceivableID)
		if err != nil {
			return nil, err
		}
		status := ReceivableStatus{
			ReceivableID: a.ReceivableID,
			Status:       a.Status,
			FaceValue:    a.FaceValue,
			PaidAmount:   facts.PaidAmount,
			FundedNet:    a.FundedNet,
			DueDate:      a.DueDate,
			Paid:         facts.IsFullyPaid(),
			Overdue:      now.After(a.DueDate),
			Impairable:   a.IsActive() && !facts.IsFullyPaid() && now.After(a.GraceDeadline(state.Settings.GracePeriodDays)),
		}
		if keep == nil || keep(status) {
			entries = append(entries, status)
		}
	}

	return &StatusPage{
		Entries: entries,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: hasMore,
	}, nil
}

// GetApproval returns the approval record for a receivable
func (e *Engine) GetApproval(ctx context.Context, receivableID uuid.UUID) (*factoring.InvoiceApproval, error) {
	a, err := e.approvals.FindByReceivableID(ctx, receivableID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "No approval for receivable")
	}
	return a, nil
}

// ViewRedemptionQueue returns a page of the redemption queue in FIFO order
func (e *Engine) ViewRedemptionQueue(ctx context.Context, page shared.Page) ([]pool.RedemptionQueueEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	return e.queue.List(ctx, page.Clamp(state.Settings.StatusPageLimit))
}
