package settlement

import (
	"context"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a mock implementation of settlement.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListCompleted(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, from, to time.Time) ([]settlement.Transaction, error) {
	args := m.Called(ctx, vendorID, kind, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListAllCompleted(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind) ([]settlement.Transaction, error) {
	args := m.Called(ctx, vendorID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListCreated(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, from, to time.Time) ([]settlement.Transaction, error) {
	args := m.Called(ctx, vendorID, kind, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByIDs(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, ids []uuid.UUID) ([]settlement.Transaction, error) {
	args := m.Called(ctx, vendorID, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkIncluded(ctx context.Context, kind settlement.TransactionKind, ids []uuid.UUID, settlementID uuid.UUID) (int64, error) {
	args := m.Called(ctx, kind, ids, settlementID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) ReleaseSettlement(ctx context.Context, kind settlement.TransactionKind, settlementID uuid.UUID) (int64, error) {
	args := m.Called(ctx, kind, settlementID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, tx *settlement.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// MockSettlementRepository is a mock implementation of settlement.SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, vendorID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]settlement.Settlement, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) ListActive(ctx context.Context, vendorID uuid.UUID) ([]settlement.Settlement, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]settlement.Settlement, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) List(ctx context.Context, vendorID uuid.UUID, filter settlement.SettlementFilter) ([]settlement.Settlement, int64, error) {
	args := m.Called(ctx, vendorID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]settlement.Settlement), args.Get(1).(int64), args.Error(2)
}

func (m *MockSettlementRepository) SumCompletedAmount(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, vendorID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockSettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettlementRepository) SaveWithLock(ctx context.Context, s *settlement.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockHoldRepository is a mock implementation of settlement.HoldRepository
type MockHoldRepository struct {
	mock.Mock
}

func (m *MockHoldRepository) Find(ctx context.Context, vendorID uuid.UUID) (*settlement.Hold, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Hold), args.Error(1)
}

func (m *MockHoldRepository) Place(ctx context.Context, hold *settlement.Hold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockHoldRepository) Release(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	args := m.Called(ctx, vendorID)
	return args.Bool(0), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

var (
	_ settlement.TransactionRepository = (*MockTransactionRepository)(nil)
	_ settlement.SettlementRepository  = (*MockSettlementRepository)(nil)
	_ settlement.HoldRepository        = (*MockHoldRepository)(nil)
)
