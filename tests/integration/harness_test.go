package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	eventapp "github.com/evmarket/backend/internal/application/event"
	settlementapp "github.com/evmarket/backend/internal/application/settlement"
	"github.com/evmarket/backend/internal/infrastructure/auth"
	"github.com/evmarket/backend/internal/infrastructure/cache"
	"github.com/evmarket/backend/internal/infrastructure/event"
	"github.com/evmarket/backend/internal/infrastructure/persistence"
	"github.com/evmarket/backend/internal/interfaces/http/handler"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/evmarket/backend/internal/interfaces/http/router"
	"github.com/evmarket/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// settlementEnv is the server wiring of cmd/server on a test database
type settlementEnv struct {
	DB        *TestDB
	Engine    *gin.Engine
	JWT       *auth.JWTService
	Events    *testutil.MockEventHandler
	Workflow  *settlementapp.WorkflowService
	Lifecycle *settlementapp.LifecycleService
	Config    settlementapp.Config
}

func newSettlementEnv(t *testing.T, tdb *TestDB) *settlementEnv {
	t.Helper()

	log := zap.NewNop()
	cfg := settlementapp.Config{
		PlatformFee:     decimal.Zero,
		AmountTolerance: decimal.RequireFromString("0.01"),
		DefaultLocation: time.UTC,
	}

	serializer := event.NewSettlementEventSerializer()
	recorder := event.NewOutboxRecorder(tdb.DB, serializer)
	uow := persistence.NewGormUnitOfWork(tdb.DB, recorder)
	repos := persistence.NewRepositories(tdb.DB, recorder)
	vendors := persistence.NewGormVendorRepository(tdb.DB)
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	events := testutil.NewMockEventHandler()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(events)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	outboxRepo := event.NewGormOutboxRepository(tdb.DB)
	processor := event.NewOutboxProcessor(outboxRepo, bus, serializer, event.OutboxProcessorConfig{
		BatchSize:    50,
		PollInterval: 50 * time.Millisecond,
	}, log)
	require.NoError(t, processor.Start(context.Background()))
	t.Cleanup(func() { _ = processor.Stop(context.Background()) })

	balance := settlementapp.NewBalanceService(repos.Transactions, repos.Settlements, cfg, nil)
	analytics := settlementapp.NewAnalyticsService(repos.Transactions, repos.Settlements, vendors, balance, cfg, nil)
	workflow := settlementapp.NewWorkflowService(uow, vendors, idempotency, cfg, nil)
	lifecycle := settlementapp.NewLifecycleService(uow, repos.Settlements, cfg, nil)
	history := settlementapp.NewHistoryService(repos.Settlements, cfg)
	holds := settlementapp.NewHoldService(uow, repos.Holds)
	reconciliation := settlementapp.NewReconciliationService(uow, repos.Transactions, repos.Settlements, cfg, nil)

	jwtService := testutil.TestJWTService()
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine, router.WithMiddleware(middleware.JWTAuthMiddleware(jwtService))).
		Register(router.SettlementGroups(router.SettlementHandlers{
			Settlements: handler.NewSettlementHandler(workflow, history),
			Analytics:   handler.NewAnalyticsHandler(analytics, balance),
			Admin:       handler.NewSettlementAdminHandler(lifecycle, holds, reconciliation),
			Outbox:      handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, log)),
		})...).
		Setup()

	return &settlementEnv{
		DB:        tdb,
		Engine:    engine,
		JWT:       jwtService,
		Events:    events,
		Workflow:  workflow,
		Lifecycle: lifecycle,
		Config:    cfg,
	}
}

func (e *settlementEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Do(t, e.Engine, testutil.Request{Method: method, Path: "/api/v1" + path, Body: body, Token: token})
}

func (e *settlementEnv) vendorToken(t *testing.T, vendorID uuid.UUID) string {
	t.Helper()
	return testutil.VendorToken(t, e.JWT, vendorID)
}

func (e *settlementEnv) adminToken(t *testing.T) string {
	t.Helper()
	return testutil.AdminToken(t, e.JWT, "ops@evmarket")
}
