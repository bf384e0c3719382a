package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evmarket/backend/internal/application/event"
	settlementapp "github.com/evmarket/backend/internal/application/settlement"
	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/interfaces/http/dto"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockRequester struct{ mock.Mock }

func (m *MockRequester) RequestSettlement(ctx context.Context, in settlementapp.RequestSettlementInput) (*settlementapp.RequestSettlementResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlementapp.RequestSettlementResult), args.Error(1)
}

type MockHistory struct{ mock.Mock }

func (m *MockHistory) ListSettlements(ctx context.Context, vendorID uuid.UUID, filter settlement.SettlementFilter) (*shared.Paginated[settlement.Settlement], error) {
	args := m.Called(ctx, vendorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[settlement.Settlement]), args.Error(1)
}

func (m *MockHistory) GetSettlement(ctx context.Context, vendorID, id uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, vendorID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

type MockAnalytics struct{ mock.Mock }

func (m *MockAnalytics) GetAnalytics(ctx context.Context, q settlementapp.AnalyticsQuery) (*settlementapp.AnalyticsResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlementapp.AnalyticsResult), args.Error(1)
}

type MockBalance struct{ mock.Mock }

func (m *MockBalance) GetBalance(ctx context.Context, vendorID uuid.UUID) (*settlement.BalanceSummary, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.BalanceSummary), args.Error(1)
}

type MockLifecycle struct{ mock.Mock }

func (m *MockLifecycle) MarkProcessing(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockLifecycle) Complete(ctx context.Context, id uuid.UUID, payoutReference string) (*settlement.Settlement, error) {
	args := m.Called(ctx, id, payoutReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockLifecycle) Reject(ctx context.Context, id uuid.UUID, reason string) (*settlement.Settlement, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

type MockHolds struct{ mock.Mock }

func (m *MockHolds) GetHold(ctx context.Context, vendorID uuid.UUID) (*settlement.Hold, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Hold), args.Error(1)
}

func (m *MockHolds) ReleaseHold(ctx context.Context, vendorID uuid.UUID, releasedBy string) error {
	return m.Called(ctx, vendorID, releasedBy).Error(0)
}

type MockAuditor struct{ mock.Mock }

func (m *MockAuditor) AuditVendor(ctx context.Context, vendorID uuid.UUID) (*settlement.AuditReport, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.AuditReport), args.Error(1)
}

// newEngine returns an engine with the request id middleware every route sees
func newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	return engine
}

func doRequest(engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

var (
	ctxArg = mock.Anything
	bank   = settlement.BankDetails{AccountName: "Sunrise Charging", AccountNumber: "1234567890", BankName: "First National"}
)

func sampleSettlement(t *testing.T, vendorID uuid.UUID) *settlement.Settlement {
	t.Helper()
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	completed := day.Add(10 * time.Hour)
	txs := []settlement.Transaction{
		{ID: uuid.New(), VendorID: vendorID, Kind: settlement.KindCharging, Status: settlement.TransactionStatusCompleted,
			PaymentStatus: settlement.PaymentStatusPaid, GrossAmount: decimal.NewFromInt(105), CompletedAt: &completed},
		{ID: uuid.New(), VendorID: vendorID, Kind: settlement.KindFood, Status: settlement.TransactionStatusCompleted,
			PaymentStatus: settlement.PaymentStatusPaid, GrossAmount: decimal.NewFromInt(200), CompletedAt: &completed},
	}
	st, err := settlement.NewSettlement(vendorID, settlement.DayPeriod(day), decimal.NewFromInt(300),
		settlement.RequestTypeScheduled, "weekly", bank, txs)
	require.NoError(t, err)
	return st
}

type MockOutbox struct{ mock.Mock }

func (m *MockOutbox) GetDeadLetterEntries(ctx context.Context, filter event.OutboxFilter) (*event.OutboxListResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxListResult), args.Error(1)
}

func (m *MockOutbox) GetEntry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryDTO), args.Error(1)
}

func (m *MockOutbox) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryDTO), args.Error(1)
}

func (m *MockOutbox) RetryAllDeadEntries(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutbox) GetStats(ctx context.Context) (*event.OutboxStatsDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxStatsDTO), args.Error(1)
}
