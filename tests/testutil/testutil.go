// Package testutil provides common test utilities for the settlement backend.
// It contains helpers for mock databases, gin test contexts, bearer tokens
// and polling assertions.
package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/evmarket/backend/internal/infrastructure/auth"
	"github.com/evmarket/backend/internal/infrastructure/config"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestJWTSecret signs tokens produced by TestJWTService
const TestJWTSecret = "settlement-test-secret-0123456789abcdef"

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect mock database. It is closed on test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	m := &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	return NewTestContextWithRequest(t, httptest.NewRequest(http.MethodGet, "/", nil))
}

// NewTestContextWithRequest creates a Gin test context around req.
func NewTestContextWithRequest(t *testing.T, req *http.Request) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = req

	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// SetRequestID sets a request ID in the context.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(middleware.RequestIDKey, id)
}

// SetVendorClaims authenticates the context as the given vendor.
func (tc *TestContext) SetVendorClaims(vendorID uuid.UUID) {
	tc.setClaims(&auth.Claims{VendorID: vendorID.String(), Role: auth.RoleVendor})
}

// SetAdminClaims authenticates the context as an admin subject.
func (tc *TestContext) SetAdminClaims(subject string) {
	claims := &auth.Claims{Role: auth.RoleAdmin}
	claims.Subject = subject
	tc.setClaims(claims)
}

func (tc *TestContext) setClaims(claims *auth.Claims) {
	tc.Context.Set(middleware.JWTClaimsKey, claims)
	tc.Context.Set(middleware.JWTVendorIDKey, claims.VendorID)
	tc.Context.Set(middleware.JWTRoleKey, string(claims.Role))
}

// SetParam sets a path parameter.
func (tc *TestContext) SetParam(key, value string) {
	tc.Context.Params = append(tc.Context.Params, gin.Param{Key: key, Value: value})
}

// SetHeader sets a header on the request.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// TestJWTService returns a JWT service signing with TestJWTSecret.
func TestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{Enabled: true, Secret: TestJWTSecret, Issuer: "evmarket-test"})
}

// VendorToken signs a bearer token scoped to vendorID.
func VendorToken(t *testing.T, svc *auth.JWTService, vendorID uuid.UUID) string {
	t.Helper()
	token, err := svc.GenerateToken(auth.GenerateTokenInput{VendorID: vendorID, Role: auth.RoleVendor})
	require.NoError(t, err)
	return token
}

// AdminToken signs an admin bearer token for subject.
func AdminToken(t *testing.T, svc *auth.JWTService, subject string) string {
	t.Helper()
	token, err := svc.GenerateToken(auth.GenerateTokenInput{Subject: subject, Role: auth.RoleAdmin})
	require.NoError(t, err)
	return token
}

// NewTestUUID generates a deterministic UUID from seed.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestVendorID returns a standard vendor ID for tests.
func TestVendorID() uuid.UUID {
	return NewTestUUID("test-vendor")
}

// ContextWithTimeout creates a context with a timeout for tests. It is
// cancelled on test cleanup.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// AssertEventually retries condition until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) bool {
	t.Helper()
	if WaitForCondition(t, condition, timeout, interval) {
		return true
	}
	t.Errorf("Condition not met within %v: %v", timeout, msgAndArgs)
	return false
}

// RequireEventually is like AssertEventually but stops the test.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if !WaitForCondition(t, condition, timeout, interval) {
		require.Fail(t, "Condition not met within timeout", msgAndArgs...)
	}
}

// AssertNever verifies a condition never becomes true within the duration.
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			t.Fatalf("Condition unexpectedly became true: %v", msgAndArgs)
		}
		time.Sleep(interval)
	}
}

// WaitForCondition polls condition and reports whether it held before timeout.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}
