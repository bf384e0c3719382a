package settlement

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memLedger is an in-memory implementation of every settlement repository and
// the unit of work. A failed unit of work restores the state it started from.
type memLedger struct {
	lock chan struct{} // vendor lock, one slot for all vendors
	mu   sync.Mutex

	txs         map[uuid.UUID]settlement.Transaction
	settlements map[uuid.UUID]settlement.Settlement
	holds       map[uuid.UUID]settlement.Hold
	vendors     map[uuid.UUID]*settlement.VendorProfile
	events      []shared.DomainEvent

	lockCalls int
}

func newMemLedger() *memLedger {
	return &memLedger{
		lock:        make(chan struct{}, 1),
		txs:         make(map[uuid.UUID]settlement.Transaction),
		settlements: make(map[uuid.UUID]settlement.Settlement),
		holds:       make(map[uuid.UUID]settlement.Hold),
		vendors:     make(map[uuid.UUID]*settlement.VendorProfile),
	}
}

type ledgerSnapshot struct {
	txs         map[uuid.UUID]settlement.Transaction
	settlements map[uuid.UUID]settlement.Settlement
	holds       map[uuid.UUID]settlement.Hold
	events      int
}

func (l *memLedger) snapshot() ledgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := ledgerSnapshot{
		txs:         make(map[uuid.UUID]settlement.Transaction, len(l.txs)),
		settlements: make(map[uuid.UUID]settlement.Settlement, len(l.settlements)),
		holds:       make(map[uuid.UUID]settlement.Hold, len(l.holds)),
		events:      len(l.events),
	}
	for k, v := range l.txs {
		s.txs[k] = v
	}
	for k, v := range l.settlements {
		s.settlements[k] = v
	}
	for k, v := range l.holds {
		s.holds[k] = v
	}
	return s
}

func (l *memLedger) restore(s ledgerSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs, l.settlements, l.holds = s.txs, s.settlements, s.holds
	l.events = l.events[:s.events]
}

// WithinVendorLock implements settlement.UnitOfWork
func (l *memLedger) WithinVendorLock(ctx context.Context, vendorID uuid.UUID, fn func(ctx context.Context, repos settlement.Repositories) error) error {
	select {
	case l.lock <- struct{}{}:
	case <-ctx.Done():
		return settlement.NewTransientStorageError("wait for vendor lock", ctx.Err())
	}
	defer func() { <-l.lock }()
	l.mu.Lock()
	l.lockCalls++
	l.mu.Unlock()

	snap := l.snapshot()
	if err := fn(ctx, l.repositories()); err != nil {
		l.restore(snap)
		return err
	}
	return nil
}

func (l *memLedger) repositories() settlement.Repositories {
	return settlement.Repositories{
		Transactions: l,
		Settlements:  (*memSettlements)(l),
		Holds:        (*memHolds)(l),
		Events:       (*memEvents)(l),
	}
}

// fixtures

func (l *memLedger) addVendor(p *settlement.VendorProfile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vendors[p.ID] = p
}

func (l *memLedger) addTx(tx settlement.Transaction) settlement.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	l.txs[tx.ID] = tx
	return tx
}

// addSettlement stores s the way a database row would, without pending events
func (l *memLedger) addSettlement(s settlement.Settlement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.ClearDomainEvents()
	l.settlements[s.ID] = s
}

func (l *memLedger) tx(id uuid.UUID) settlement.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.txs[id]
}

func (l *memLedger) settlement(id uuid.UUID) settlement.Settlement {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settlements[id]
}

func (l *memLedger) settlementCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.settlements)
}

func (l *memLedger) hold(vendorID uuid.UUID) (settlement.Hold, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holds[vendorID]
	return h, ok
}

func (l *memLedger) recordedTypes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.EventType())
	}
	return out
}

// TransactionRepository

func (l *memLedger) filter(vendorID uuid.UUID, kind settlement.TransactionKind, keep func(*settlement.Transaction) bool) []settlement.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []settlement.Transaction
	for _, tx := range l.txs {
		if tx.VendorID == vendorID && tx.Kind == kind && keep(&tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RevenueTime().Before(out[j].RevenueTime()) })
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (l *memLedger) ListCompleted(_ context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, from, to time.Time) ([]settlement.Transaction, error) {
	return l.filter(vendorID, kind, func(tx *settlement.Transaction) bool {
		return tx.IsCompleted() && inRange(tx.RevenueTime(), from, to)
	}), nil
}

func (l *memLedger) ListAllCompleted(_ context.Context, vendorID uuid.UUID, kind settlement.TransactionKind) ([]settlement.Transaction, error) {
	return l.filter(vendorID, kind, func(tx *settlement.Transaction) bool { return tx.IsCompleted() }), nil
}

func (l *memLedger) ListCreated(_ context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, from, to time.Time) ([]settlement.Transaction, error) {
	return l.filter(vendorID, kind, func(tx *settlement.Transaction) bool {
		return inRange(tx.CreatedAt, from, to)
	}), nil
}

func (l *memLedger) FindByIDs(_ context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, ids []uuid.UUID) ([]settlement.Transaction, error) {
	want := settlement.IDSet(ids)
	return l.filter(vendorID, kind, func(tx *settlement.Transaction) bool { return want.Contains(tx.ID) }), nil
}

func (l *memLedger) MarkIncluded(_ context.Context, kind settlement.TransactionKind, ids []uuid.UUID, settlementID uuid.UUID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, id := range ids {
		tx, ok := l.txs[id]
		if !ok || tx.Kind != kind || tx.RawSettlementStatus() != settlement.SettlementStatusPending {
			continue
		}
		sid := settlementID
		tx.SettlementStatus = settlement.SettlementStatusIncluded
		tx.SettlementID = &sid
		l.txs[id] = tx
		n++
	}
	return n, nil
}

func (l *memLedger) ReleaseSettlement(_ context.Context, kind settlement.TransactionKind, settlementID uuid.UUID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for id, tx := range l.txs {
		if tx.Kind != kind || tx.SettlementID == nil || *tx.SettlementID != settlementID ||
			tx.SettlementStatus != settlement.SettlementStatusIncluded {
			continue
		}
		tx.SettlementStatus = settlement.SettlementStatusPending
		l.txs[id] = tx
		n++
	}
	return n, nil
}

func (l *memLedger) Save(_ context.Context, tx *settlement.Transaction) error {
	l.addTx(*tx)
	return nil
}

// SettlementRepository

type memSettlements memLedger

func (r *memSettlements) l() *memLedger { return (*memLedger)(r) }

func (r *memSettlements) FindByID(_ context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settlements[id]
	if !ok {
		return nil, settlement.ErrSettlementNotFound
	}
	return &s, nil
}

func (r *memSettlements) FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*settlement.Settlement, error) {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.VendorID != vendorID {
		return nil, settlement.ErrSettlementNotFound
	}
	return s, nil
}

func (r *memSettlements) FindByIDs(_ context.Context, ids []uuid.UUID) ([]settlement.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []settlement.Settlement{}
	for _, id := range ids {
		if s, ok := r.settlements[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSettlements) byVendor(vendorID uuid.UUID, keep func(*settlement.Settlement) bool) []settlement.Settlement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []settlement.Settlement
	for _, s := range r.settlements {
		if s.VendorID == vendorID && keep(&s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out
}

func (r *memSettlements) ListActive(_ context.Context, vendorID uuid.UUID) ([]settlement.Settlement, error) {
	return r.byVendor(vendorID, func(s *settlement.Settlement) bool { return s.IsActive() }), nil
}

func (r *memSettlements) ListByVendor(_ context.Context, vendorID uuid.UUID) ([]settlement.Settlement, error) {
	return r.byVendor(vendorID, func(*settlement.Settlement) bool { return true }), nil
}

func (r *memSettlements) List(_ context.Context, vendorID uuid.UUID, filter settlement.SettlementFilter) ([]settlement.Settlement, int64, error) {
	all := r.byVendor(vendorID, func(s *settlement.Settlement) bool {
		return filter.Status == nil || s.Status == *filter.Status
	})
	start := (filter.Page - 1) * filter.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := min(start+filter.PageSize, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *memSettlements) SumCompletedAmount(_ context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	return settlement.CompletedPayoutTotal(r.byVendor(vendorID, func(*settlement.Settlement) bool { return true })), nil
}

func (r *memSettlements) Create(_ context.Context, s *settlement.Settlement) error {
	r.l().addSettlement(*s)
	return nil
}

func (r *memSettlements) SaveWithLock(_ context.Context, s *settlement.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.settlements[s.ID]
	if !ok || stored.Version != s.Version-1 {
		return settlement.ErrSettlementConcurrency
	}
	row := *s
	row.ClearDomainEvents()
	r.settlements[s.ID] = row
	return nil
}

// HoldRepository

type memHolds memLedger

func (r *memHolds) Find(_ context.Context, vendorID uuid.UUID) (*settlement.Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holds[vendorID]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (r *memHolds) Place(_ context.Context, hold *settlement.Hold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.holds[hold.VendorID]; !ok {
		r.holds[hold.VendorID] = *hold
	}
	return nil
}

func (r *memHolds) Release(_ context.Context, vendorID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.holds[vendorID]
	delete(r.holds, vendorID)
	return ok, nil
}

// EventRecorder

type memEvents memLedger

func (r *memEvents) Record(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// VendorRepository

func (l *memLedger) FindProfile(_ context.Context, vendorID uuid.UUID) (*settlement.VendorProfile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vendors[vendorID], nil
}

var (
	_ settlement.UnitOfWork            = (*memLedger)(nil)
	_ settlement.TransactionRepository = (*memLedger)(nil)
	_ settlement.VendorRepository      = (*memLedger)(nil)
	_ settlement.SettlementRepository  = (*memSettlements)(nil)
	_ settlement.HoldRepository        = (*memHolds)(nil)
	_ shared.EventRecorder             = (*memEvents)(nil)
)

// test helpers

var (
	testFee  = decimal.NewFromInt(5)
	testBank = &settlement.BankDetails{AccountName: "Volt Station", AccountNumber: "000123456789", BankName: "First Bank"}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	d, err := settlement.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testConfig(now time.Time) Config {
	return Config{
		PlatformFee:     testFee,
		AmountTolerance: settlement.DefaultAmountTolerance,
		DefaultLocation: time.UTC,
		Now:             func() time.Time { return now },
	}
}

// completedFood is a completed food order worth gross to the vendor
func completedFood(vendorID uuid.UUID, gross string, completedAt time.Time) settlement.Transaction {
	return settlement.Transaction{
		VendorID:      vendorID,
		Kind:          settlement.KindFood,
		Status:        settlement.TransactionStatusCompleted,
		PaymentStatus: settlement.PaymentStatusPaid,
		GrossAmount:   dec(gross),
		CompletedAt:   &completedAt,
		CreatedAt:     completedAt.Add(-time.Hour),
		UpdatedAt:     completedAt,
	}
}

// completedCharging is a completed charging session; the vendor earns gross minus the platform fee
func completedCharging(vendorID uuid.UUID, gross string, completedAt time.Time) settlement.Transaction {
	tx := completedFood(vendorID, gross, completedAt)
	tx.Kind = settlement.KindCharging
	return tx
}

func newVendor(t *testing.T, l *memLedger) uuid.UUID {
	t.Helper()
	id := uuid.New()
	l.addVendor(&settlement.VendorProfile{ID: id, Name: "Volt Station", Timezone: "UTC", BankDetails: testBank})
	return id
}
