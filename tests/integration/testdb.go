// Package integration runs the settlement engine against a real PostgreSQL
// database started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/config"
	"github.com/evmarket/backend/internal/infrastructure/migration"
	"github.com/evmarket/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testDBName     = "settlement_test"
	testDBUser     = "postgres"
	testDBPassword = "settle123"
)

var (
	// Shared container for all tests in the package
	sharedContainer   *tcpostgres.PostgresContainer
	sharedDBConfig    config.DatabaseConfig
	sharedContainerMu sync.Mutex
)

// TestDB is a migrated settlement database
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container *tcpostgres.PostgresContainer
	Config    config.DatabaseConfig
	t         *testing.T
}

// NewTestDB starts a dedicated PostgreSQL container for one test
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	container, cfg := startContainer(t, testDBName)
	migrate(t, cfg)

	testDB := connect(t, cfg)
	testDB.Container = container
	t.Cleanup(testDB.Close)
	return testDB
}

// NewSharedTestDB returns a connection to the package-wide container. Tables
// are truncated before the database is handed out.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	if sharedContainer == nil {
		sharedContainer, sharedDBConfig = startContainer(t, testDBName+"_shared")
		migrate(t, sharedDBConfig)
	}
	cfg := sharedDBConfig
	sharedContainerMu.Unlock()

	testDB := connect(t, cfg)
	testDB.Container = sharedContainer
	testDB.CleanTables()
	t.Cleanup(testDB.Close)
	return testDB
}

func startContainer(t *testing.T, dbName string) (*tcpostgres.PostgresContainer, config.DatabaseConfig) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err, "Failed to get container host")
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err, "Failed to get container port")

	return container, config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		User:            testDBUser,
		Password:        testDBPassword,
		DBName:          dbName,
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}
}

// migrate applies the embedded migrations, the same path cmd/migrate takes
func migrate(t *testing.T, cfg config.DatabaseConfig) {
	t.Helper()

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	require.NoError(t, err, "Failed to open migration connection")
	defer sqlDB.Close()

	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	defer m.Close()

	require.NoError(t, m.Up(), "Failed to run migrations")
}

func connect(t *testing.T, cfg config.DatabaseConfig) *TestDB {
	t.Helper()

	db, err := persistence.NewDatabase(&cfg, nil)
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	return &TestDB{DB: db.DB, SqlDB: sqlDB, Config: cfg, t: t}
}

// Close closes the connection and terminates a dedicated container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables truncates every settlement table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'settlement_schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		require.NoError(tdb.t, err, "Failed to truncate %s", table)
	}
}

// TestBank is the payout account seeded for vendors
var TestBank = settlement.BankDetails{
	AccountName:   "Volt Cafe Ltd",
	AccountNumber: "000123456789",
	BankName:      "First Bank",
}

// CreateTestVendor seeds a vendor with bank details
func (tdb *TestDB) CreateTestVendor(name string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	bank := TestBank
	err := persistence.NewGormVendorRepository(tdb.DB).Save(context.Background(),
		&settlement.VendorProfile{ID: id, Name: name, BankDetails: &bank})
	require.NoError(tdb.t, err, "Failed to create vendor")
	return id
}

// CreateVendorWithoutBank seeds a vendor that cannot be paid out
func (tdb *TestDB) CreateVendorWithoutBank(name string) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := persistence.NewGormVendorRepository(tdb.DB).Save(context.Background(),
		&settlement.VendorProfile{ID: id, Name: name})
	require.NoError(tdb.t, err, "Failed to create vendor")
	return id
}

// CreateCompletedTransaction seeds a paid, completed transaction
func (tdb *TestDB) CreateCompletedTransaction(vendorID uuid.UUID, kind settlement.TransactionKind, gross string, completedAt time.Time) *settlement.Transaction {
	tdb.t.Helper()

	completedAt = completedAt.UTC()
	tx := &settlement.Transaction{
		VendorID:      vendorID,
		Kind:          kind,
		Status:        settlement.TransactionStatusCompleted,
		PaymentStatus: settlement.PaymentStatusPaid,
		GrossAmount:   decimal.RequireFromString(gross),
		CompletedAt:   &completedAt,
		CreatedAt:     completedAt.Add(-time.Hour),
		UpdatedAt:     completedAt,
	}
	require.NoError(tdb.t, persistence.NewGormTransactionRepository(tdb.DB).Save(context.Background(), tx),
		"Failed to create transaction")
	return tx
}

// ReloadTransaction reads tx back from its table
func (tdb *TestDB) ReloadTransaction(tx *settlement.Transaction) settlement.Transaction {
	tdb.t.Helper()

	found, err := persistence.NewGormTransactionRepository(tdb.DB).
		FindByIDs(context.Background(), tx.VendorID, tx.Kind, []uuid.UUID{tx.ID})
	require.NoError(tdb.t, err, "Failed to load transaction")
	require.Len(tdb.t, found, 1)
	return found[0]
}
