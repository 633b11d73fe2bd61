package factoring

import (
	"context"
	"testing"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// accrued mirrors the prorated fee formula so assertions compare exact
// decimals
func accrued(face decimal.Decimal, bps, days int64) decimal.Decimal {
	return face.Mul(decimal.NewFromInt(bps)).
		Mul(decimal.NewFromInt(days)).
		Div(decimal.NewFromInt(factoring.BpsDenominator * factoring.DaysPerYear))
}

type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeApprovals struct {
	items []*factoring.InvoiceApproval
}

func cloneApproval(a *factoring.InvoiceApproval) *factoring.InvoiceApproval {
	c := *a
	return &c
}

func (r *fakeApprovals) FindByReceivableID(_ context.Context, receivableID uuid.UUID) (*factoring.InvoiceApproval, error) {
	for _, a := range r.items {
		if a.ReceivableID == receivableID {
			return cloneApproval(a), nil
		}
	}
	return nil, nil
}

func (r *fakeApprovals) filtered(keep func(*factoring.InvoiceApproval) bool, page shared.Page) []factoring.InvoiceApproval {
	var out []factoring.InvoiceApproval
	for _, a := range r.items {
		if keep(a) {
			out = append(out, *a)
		}
	}
	if page.Offset >= len(out) {
		return nil
	}
	out = out[page.Offset:]
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out
}

func (r *fakeApprovals) FindActive(_ context.Context, page shared.Page) ([]factoring.InvoiceApproval, error) {
	return r.filtered(func(a *factoring.InvoiceApproval) bool { return a.IsActive() }, page), nil
}

func (r *fakeApprovals) FindImpaired(_ context.Context, page shared.Page) ([]factoring.InvoiceApproval, error) {
	return r.filtered(func(a *factoring.InvoiceApproval) bool {
		return a.Status == factoring.ApprovalStatusImpaired
	}, page), nil
}

func (r *fakeApprovals) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, a := range r.items {
		if a.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *fakeApprovals) SumActiveNet(_ context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.items {
		if a.IsActive() {
			sum = sum.Add(a.FundedNet)
		}
	}
	return sum, nil
}

func (r *fakeApprovals) Save(_ context.Context, approval *factoring.InvoiceApproval) error {
	for i, a := range r.items {
		if a.ReceivableID == approval.ReceivableID {
			r.items[i] = cloneApproval(approval)
			return nil
		}
	}
	r.items = append(r.items, cloneApproval(approval))
	return nil
}

func (r *fakeApprovals) SaveWithLock(ctx context.Context, approval *factoring.InvoiceApproval) error {
	return r.Save(ctx, approval)
}

type fakeImpairments struct {
	records map[uuid.UUID]*factoring.ImpairmentRecord
}

func (r *fakeImpairments) FindByReceivableID(_ context.Context, receivableID uuid.UUID) (*factoring.ImpairmentRecord, error) {
	rec, ok := r.records[receivableID]
	if !ok {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

func (r *fakeImpairments) Save(_ context.Context, record *factoring.ImpairmentRecord) error {
	c := *record
	r.records[record.ReceivableID] = &c
	return nil
}

type fakeStates struct {
	state *pool.State
}

func (r *fakeStates) Get(_ context.Context) (*pool.State, error) {
	if r.state == nil {
		return nil, nil
	}
	c := *r.state
	return &c, nil
}

func (r *fakeStates) Save(_ context.Context, state *pool.State) error {
	c := *state
	r.state = &c
	return nil
}

func (r *fakeStates) SaveWithLock(ctx context.Context, state *pool.State) error {
	return r.Save(ctx, state)
}

type fakeQueue struct {
	entries []*pool.RedemptionQueueEntry
	nextPos int64
}

func (q *fakeQueue) Enqueue(_ context.Context, entry *pool.RedemptionQueueEntry) error {
	q.nextPos++
	entry.Position = q.nextPos
	c := *entry
	q.entries = append(q.entries, &c)
	return nil
}

func (q *fakeQueue) Count(_ context.Context) (int64, error) {
	return int64(len(q.entries)), nil
}

func (q *fakeQueue) Front(_ context.Context, limit int) ([]pool.RedemptionQueueEntry, error) {
	out := make([]pool.RedemptionQueueEntry, 0, limit)
	for _, e := range q.entries {
		if len(out) == limit {
			break
		}
		out = append(out, *e)
	}
	return out, nil
}

func (q *fakeQueue) List(_ context.Context, page shared.Page) ([]pool.RedemptionQueueEntry, error) {
	if page.Offset >= len(q.entries) {
		return nil, nil
	}
	var out []pool.RedemptionQueueEntry
	for _, e := range q.entries[page.Offset:] {
		if page.Limit > 0 && len(out) == page.Limit {
			break
		}
		out = append(out, *e)
	}
	return out, nil
}

func (q *fakeQueue) Update(_ context.Context, entry *pool.RedemptionQueueEntry) error {
	for i, e := range q.entries {
		if e.ID == entry.ID {
			c := *entry
			q.entries[i] = &c
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeNotFound, "Queue entry not found")
}

func (q *fakeQueue) Remove(_ context.Context, id uuid.UUID) error {
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeNotFound, "Queue entry not found")
}

func (q *fakeQueue) SumUnitsByOwner(_ context.Context, owner uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range q.entries {
		if e.Owner == owner {
			sum = sum.Add(e.Units)
		}
	}
	return sum, nil
}

type fakeRegistry struct {
	facts map[uuid.UUID]*factoring.ReceivableFacts
	order []uuid.UUID
}

func (r *fakeRegistry) GetFacts(_ context.Context, receivableID uuid.UUID) (*factoring.ReceivableFacts, error) {
	f, ok := r.facts[receivableID]
	if !ok {
		return nil, nil
	}
	c := *f
	return &c, nil
}

func (r *fakeRegistry) TransferTo(_ context.Context, newOwner, receivableID uuid.UUID) error {
	f, ok := r.facts[receivableID]
	if !ok {
		return shared.NewDomainError(shared.CodeNotFound, "Receivable not found in registry")
	}
	f.Owner = newOwner
	return nil
}

func (r *fakeRegistry) FindPaid(_ context.Context, owner uuid.UUID, page shared.Page) ([]uuid.UUID, error) {
	var matched []uuid.UUID
	for _, id := range r.order {
		f := r.facts[id]
		if f.Owner == owner && f.IsFullyPaid() {
			matched = append(matched, id)
		}
	}
	if page.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	return matched, nil
}

// fakeAccess allows everything except the per-actor operation denials
// registered by a test
type fakeAccess struct {
	denied map[uuid.UUID]factoring.Operation
}

func (a *fakeAccess) IsAllowed(_ context.Context, actor uuid.UUID, op factoring.Operation) (bool, error) {
	if a.denied != nil && a.denied[actor] == op {
		return false, nil
	}
	return true, nil
}

func (a *fakeAccess) deny(actor uuid.UUID, op factoring.Operation) {
	if a.denied == nil {
		a.denied = make(map[uuid.UUID]factoring.Operation)
	}
	a.denied[actor] = op
}

type fakeUnits struct {
	balances map[uuid.UUID]decimal.Decimal
}

func (l *fakeUnits) BalanceOf(_ context.Context, owner uuid.UUID) (decimal.Decimal, error) {
	return l.balances[owner], nil
}

func (l *fakeUnits) TotalSupply(_ context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, b := range l.balances {
		sum = sum.Add(b)
	}
	return sum, nil
}

func (l *fakeUnits) Mint(_ context.Context, owner uuid.UUID, units decimal.Decimal) error {
	l.balances[owner] = l.balances[owner].Add(units)
	return nil
}

func (l *fakeUnits) Burn(_ context.Context, owner uuid.UUID, units decimal.Decimal) error {
	if l.balances[owner].LessThan(units) {
		return shared.NewDomainError(shared.CodeInvalidState, "Burn exceeds balance")
	}
	l.balances[owner] = l.balances[owner].Sub(units)
	return nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) lastType() string {
	if len(p.events) == 0 {
		return ""
	}
	return p.events[len(p.events)-1].EventType()
}

// fixture wires the engine to in-memory collaborators with a fixed clock
type fixture struct {
	engine      *Engine
	approvals   *fakeApprovals
	impairments *fakeImpairments
	states      *fakeStates
	queue       *fakeQueue
	registry    *fakeRegistry
	access      *fakeAccess
	units       *fakeUnits
	events      *recordingPublisher

	now time.Time

	operator    uuid.UUID
	underwriter uuid.UUID
	depositor   uuid.UUID
	originator  uuid.UUID
	custody     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		approvals:   &fakeApprovals{},
		impairments: &fakeImpairments{records: make(map[uuid.UUID]*factoring.ImpairmentRecord)},
		states:      &fakeStates{},
		queue:       &fakeQueue{},
		registry:    &fakeRegistry{facts: make(map[uuid.UUID]*factoring.ReceivableFacts)},
		access:      &fakeAccess{},
		units:       &fakeUnits{balances: make(map[uuid.UUID]decimal.Decimal)},
		events:      &recordingPublisher{},
		now:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		operator:    uuid.New(),
		underwriter: uuid.New(),
		depositor:   uuid.New(),
		originator:  uuid.New(),
		custody:     uuid.New(),
	}
	f.engine = NewEngine(
		fakeTx{},
		f.approvals,
		f.impairments,
		f.states,
		f.queue,
		f.registry,
		f.access,
		f.units,
		f.events,
		zap.NewNop(),
	)
	f.engine.clock = func() time.Time { return f.now }
	return f
}

func fixtureSettings() pool.Settings {
	return pool.Settings{
		ApprovalDuration: 72 * time.Hour,
		GracePeriodDays:  30,
		DefaultTerms: factoring.FeeTerms{
			TargetYieldBps:         1000,
			UpfrontBps:             8000,
			MinDaysInterestApplied: 30,
		},
		MaxQueueSize:        10,
		ReserveSplitDivisor: 2,
		StatusPageLimit:     100,
		ReconcileBatchSize:  50,
	}
}

func (f *fixture) bootstrapWith(t *testing.T, settings pool.Settings) {
	t.Helper()
	_, err := f.engine.Bootstrap(context.Background(), f.operator, f.custody, settings)
	require.NoError(t, err)
}

func (f *fixture) bootstrap(t *testing.T) {
	f.bootstrapWith(t, fixtureSettings())
}

func (f *fixture) deposit(t *testing.T, actor uuid.UUID, assets string) *DepositResult {
	t.Helper()
	r, err := f.engine.Deposit(context.Background(), actor, dec(assets))
	require.NoError(t, err)
	return r
}

// addReceivable registers registry facts for a fresh receivable owned by
// the fixture's originator
func (f *fixture) addReceivable(face string, daysToDue int) uuid.UUID {
	id := uuid.New()
	f.registry.facts[id] = &factoring.ReceivableFacts{
		ReceivableID:    id,
		FaceValue:       dec(face),
		PaidAmount:      decimal.Zero,
		DueDate:         f.now.Add(time.Duration(daysToDue) * 24 * time.Hour),
		Creditor:        f.originator,
		Owner:           f.originator,
		SettlementAsset: valueobject.DefaultAsset,
	}
	f.registry.order = append(f.registry.order, id)
	return id
}

func (f *fixture) markPaid(id uuid.UUID) {
	facts := f.registry.facts[id]
	facts.PaidAmount = facts.FaceValue
}

// pay records a partial obligor payment against the registry facts
func (f *fixture) pay(id uuid.UUID, amount string) {
	facts := f.registry.facts[id]
	facts.PaidAmount = facts.PaidAmount.Add(dec(amount))
}

func (f *fixture) approveAndFund(t *testing.T, id uuid.UUID) *factoring.FundingQuote {
	t.Helper()
	_, err := f.engine.Approve(context.Background(), f.underwriter, id, nil)
	require.NoError(t, err)
	quote, err := f.engine.Fund(context.Background(), f.originator, id, 8000, uuid.Nil)
	require.NoError(t, err)
	return quote
}

func (f *fixture) poolState(t *testing.T) *pool.State {
	t.Helper()
	s, err := f.states.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}
