package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evmarket/backend/internal/application/event"
	"github.com/evmarket/backend/internal/application/settlement"
	domain "github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/infrastructure/auth"
	"github.com/evmarket/backend/internal/infrastructure/config"
	"github.com/evmarket/backend/internal/interfaces/http/handler"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	}))
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "up") })

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Api"))

	w = serve(engine, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("vendors", "/vendors/:vendor_id")
		assert.Equal(t, "vendors", g.Name())
		assert.Equal(t, "/vendors/:vendor_id", g.Prefix())
	})

	t.Run("registers chained routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
			POST("/b", func(c *gin.Context) { c.String(http.StatusCreated, "b") }).
			DELETE("/c", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/test/a", "").Code)
		assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/v1/test/b", "").Code)
		assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodDelete, "/api/v1/test/c", "").Code)
	})

	t.Run("applies middleware to subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("outer", "/outer").Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.Group("inner", "/inner").GET("", func(c *gin.Context) { c.String(http.StatusOK, "inner") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/outer/inner", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})
}

// notFound answers every settlement query with NOT_FOUND, so a 404 proves
// the request reached the handler
type notFound struct{}

func (notFound) RequestSettlement(context.Context, settlement.RequestSettlementInput) (*settlement.RequestSettlementResult, error) {
	return nil, domain.ErrVendorNotFound
}

func (notFound) ListSettlements(context.Context, uuid.UUID, domain.SettlementFilter) (*shared.Paginated[domain.Settlement], error) {
	return nil, domain.ErrVendorNotFound
}

func (notFound) GetSettlement(context.Context, uuid.UUID, uuid.UUID) (*domain.Settlement, error) {
	return nil, domain.ErrSettlementNotFound
}

func (notFound) GetAnalytics(context.Context, settlement.AnalyticsQuery) (*settlement.AnalyticsResult, error) {
	return nil, domain.ErrVendorNotFound
}

func (notFound) GetBalance(context.Context, uuid.UUID) (*domain.BalanceSummary, error) {
	return nil, domain.ErrVendorNotFound
}

func (notFound) MarkProcessing(context.Context, uuid.UUID) (*domain.Settlement, error) {
	return nil, domain.ErrSettlementNotFound
}

func (notFound) Complete(context.Context, uuid.UUID, string) (*domain.Settlement, error) {
	return nil, domain.ErrSettlementNotFound
}

func (notFound) Reject(context.Context, uuid.UUID, string) (*domain.Settlement, error) {
	return nil, domain.ErrSettlementNotFound
}

func (notFound) GetHold(context.Context, uuid.UUID) (*domain.Hold, error) {
	return nil, settlement.ErrNoHold
}

func (notFound) ReleaseHold(context.Context, uuid.UUID, string) error {
	return settlement.ErrNoHold
}

func (notFound) AuditVendor(context.Context, uuid.UUID) (*domain.AuditReport, error) {
	return nil, domain.ErrVendorNotFound
}

func (notFound) GetDeadLetterEntries(context.Context, event.OutboxFilter) (*event.OutboxListResult, error) {
	return nil, event.ErrEntryNotFound
}

func (notFound) GetEntry(context.Context, uuid.UUID) (*event.OutboxEntryDTO, error) {
	return nil, event.ErrEntryNotFound
}

func (notFound) RetryDeadEntry(context.Context, uuid.UUID) (*event.OutboxEntryDTO, error) {
	return nil, event.ErrEntryNotFound
}

func (notFound) RetryAllDeadEntries(context.Context) (int64, error) {
	return 0, event.ErrEntryNotFound
}

func (notFound) GetStats(context.Context) (*event.OutboxStatsDTO, error) {
	return nil, event.ErrEntryNotFound
}

func newSettlementEngine(t *testing.T, jwtService *auth.JWTService, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	middleware.SetupValidator()
	var svc notFound
	engine := gin.New()
	engine.Use(middleware.RequestID())

	var opts []RouterOption
	if jwtService != nil {
		opts = append(opts, WithMiddleware(middleware.JWTAuthMiddleware(jwtService)))
	}
	NewRouter(engine, opts...).Register(SettlementGroups(SettlementHandlers{
		Settlements:    handler.NewSettlementHandler(svc, svc),
		Analytics:      handler.NewAnalyticsHandler(svc, svc),
		Admin:          handler.NewSettlementAdminHandler(svc, svc, svc),
		Outbox:         handler.NewOutboxHandler(svc),
		RequestLimiter: limiter,
	})...).Setup()
	return engine
}

func TestSettlementGroups_Routes(t *testing.T) {
	engine := newSettlementEngine(t, nil, nil)

	var routes []string
	for _, r := range engine.Routes() {
		routes = append(routes, r.Method+" "+r.Path)
	}
	assert.ElementsMatch(t, []string{
		"GET /api/v1/vendors/:vendor_id/analytics",
		"GET /api/v1/vendors/:vendor_id/balance",
		"POST /api/v1/vendors/:vendor_id/settlements",
		"GET /api/v1/vendors/:vendor_id/settlements",
		"GET /api/v1/vendors/:vendor_id/settlements/audit",
		"GET /api/v1/vendors/:vendor_id/settlements/:id",
		"GET /api/v1/vendors/:vendor_id/settlement-hold",
		"DELETE /api/v1/vendors/:vendor_id/settlement-hold",
		"POST /api/v1/settlements/:id/processing",
		"POST /api/v1/settlements/:id/complete",
		"POST /api/v1/settlements/:id/reject",
		"GET /api/v1/system/outbox/stats",
		"GET /api/v1/system/outbox/dead",
		"POST /api/v1/system/outbox/dead/retry-all",
		"GET /api/v1/system/outbox/:id",
		"POST /api/v1/system/outbox/:id/retry",
	}, routes)

	vendorID := uuid.New().String()
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/vendors/"+vendorID+"/settlements/audit", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(engine, http.MethodGet, "/api/v1/vendors/"+vendorID+"/settlements/nope", "").Code)
}

func TestSettlementGroups_Authorization(t *testing.T) {
	jwtService := auth.NewJWTService(config.JWTConfig{Enabled: true, Secret: "router-test-secret", Issuer: "evmarket"})
	engine := newSettlementEngine(t, jwtService, nil)

	own := uuid.New()
	other := uuid.New()
	vendorToken, err := jwtService.GenerateToken(auth.GenerateTokenInput{Subject: "user-1", VendorID: own, Role: auth.RoleVendor})
	require.NoError(t, err)
	adminToken, err := jwtService.GenerateToken(auth.GenerateTokenInput{Subject: "ops", Role: auth.RoleAdmin})
	require.NoError(t, err)

	settlementID := uuid.New().String()
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"no token", http.MethodGet, "/api/v1/vendors/" + own.String() + "/balance", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/vendors/" + own.String() + "/balance", "garbage", http.StatusUnauthorized},
		{"vendor reads own balance", http.MethodGet, "/api/v1/vendors/" + own.String() + "/balance", vendorToken, http.StatusNotFound},
		{"vendor reads other balance", http.MethodGet, "/api/v1/vendors/" + other.String() + "/balance", vendorToken, http.StatusForbidden},
		{"vendor lists own settlements", http.MethodGet, "/api/v1/vendors/" + own.String() + "/settlements", vendorToken, http.StatusNotFound},
		{"vendor cannot read hold", http.MethodGet, "/api/v1/vendors/" + own.String() + "/settlement-hold", vendorToken, http.StatusForbidden},
		{"vendor cannot release hold", http.MethodDelete, "/api/v1/vendors/" + own.String() + "/settlement-hold", vendorToken, http.StatusForbidden},
		{"vendor cannot audit", http.MethodGet, "/api/v1/vendors/" + own.String() + "/settlements/audit", vendorToken, http.StatusForbidden},
		{"vendor cannot drive lifecycle", http.MethodPost, "/api/v1/settlements/" + settlementID + "/processing", vendorToken, http.StatusForbidden},
		{"admin reads any vendor", http.MethodGet, "/api/v1/vendors/" + other.String() + "/balance", adminToken, http.StatusNotFound},
		{"admin reads hold", http.MethodGet, "/api/v1/vendors/" + other.String() + "/settlement-hold", adminToken, http.StatusNotFound},
		{"vendor cannot manage outbox", http.MethodGet, "/api/v1/system/outbox/stats", vendorToken, http.StatusForbidden},
		{"admin reads outbox", http.MethodGet, "/api/v1/system/outbox/stats", adminToken, http.StatusNotFound},
		{"admin drives lifecycle", http.MethodPost, "/api/v1/settlements/" + settlementID + "/processing", adminToken, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestSettlementGroups_RateLimitsCreation(t *testing.T) {
	engine := newSettlementEngine(t, nil, middleware.NewRateLimiter(0.001, 1))
	vendorID := uuid.New().String()
	path := "/api/v1/vendors/" + vendorID + "/settlements"

	first := serve(engine, http.MethodPost, path, "")
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := serve(engine, http.MethodPost, path, "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// reads are not throttled
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, path, "").Code)
}

func serve(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}
