package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "evmarket-settlement", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "evmarket", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.False(t, cfg.JWT.Enabled)
		assert.True(t, cfg.Swagger.Enabled)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, "evmarket-settlement", cfg.Telemetry.ServiceName)

		assert.True(t, decimal.NewFromInt(5).Equal(cfg.Settlement.PlatformFee))
		assert.True(t, decimal.RequireFromString("0.01").Equal(cfg.Settlement.AmountTolerance))
		assert.Equal(t, "UTC", cfg.Settlement.DefaultTimezone)
		assert.Equal(t, 30, cfg.Settlement.TimeSeriesDays)
		assert.Equal(t, 5*time.Second, cfg.Settlement.QueryTimeout)
		assert.Equal(t, 24*time.Hour, cfg.Settlement.IdempotencyTTL)
		assert.Equal(t, 100, cfg.Settlement.MaxPageSize)

		assert.True(t, cfg.Reconcile.ScheduleEnabled)
		assert.Equal(t, "0 2 * * *", cfg.Reconcile.Schedule)
		assert.Equal(t, 4, cfg.Reconcile.Concurrency)
		assert.Equal(t, 30*time.Minute, cfg.Reconcile.JobTimeout)
	})

	t.Run("loads values from environment variables", func(t *testing.T) {
		t.Setenv("EVM_APP_PORT", "9090")
		t.Setenv("EVM_DATABASE_DRIVER", "sqlite")
		t.Setenv("EVM_DATABASE_SQLITE_PATH", ":memory:")
		t.Setenv("EVM_REDIS_ENABLED", "true")
		t.Setenv("EVM_SETTLEMENT_PLATFORM_FEE", "2.50")
		t.Setenv("EVM_SETTLEMENT_AMOUNT_TOLERANCE", "0")
		t.Setenv("EVM_SETTLEMENT_DEFAULT_TIMEZONE", "Asia/Kolkata")
		t.Setenv("EVM_SETTLEMENT_TIME_SERIES_DAYS", "7")
		t.Setenv("EVM_SETTLEMENT_QUERY_TIMEOUT", "3s")
		t.Setenv("EVM_RECONCILE_SCHEDULE_ENABLED", "false")
		t.Setenv("EVM_RECONCILE_SCHEDULE", "30 4 * * *")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.DSN())
		assert.True(t, cfg.Redis.Enabled)
		assert.True(t, decimal.RequireFromString("2.5").Equal(cfg.Settlement.PlatformFee))
		assert.True(t, cfg.Settlement.AmountTolerance.IsZero())
		assert.Equal(t, "Asia/Kolkata", cfg.Settlement.Location().String())
		assert.Equal(t, 7, cfg.Settlement.TimeSeriesDays)
		assert.Equal(t, 3*time.Second, cfg.Settlement.QueryTimeout)
		assert.False(t, cfg.Reconcile.ScheduleEnabled)
		assert.Equal(t, "30 4 * * *", cfg.Reconcile.Schedule)
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		cases := map[string]string{
			"EVM_DATABASE_DRIVER":             "mysql",
			"EVM_SETTLEMENT_PLATFORM_FEE":     "five",
			"EVM_SETTLEMENT_DEFAULT_TIMEZONE": "Mars/Olympus",
			"EVM_TELEMETRY_SAMPLING_RATIO":    "1.5",
			"EVM_RECONCILE_CONCURRENCY":       "-1",
		}
		for key, value := range cases {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				_, err := Load()
				assert.Error(t, err)
			})
		}
	})

	t.Run("jwt requires a secret when enabled", func(t *testing.T) {
		t.Setenv("EVM_JWT_ENABLED", "true")
		_, err := Load()
		assert.ErrorContains(t, err, "jwt.secret")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setProduction := func(t *testing.T) {
		t.Setenv("EVM_APP_ENV", "production")
		t.Setenv("EVM_JWT_ENABLED", "true")
		t.Setenv("EVM_JWT_SECRET", "this-is-a-very-long-secret-key-for-production-use")
		t.Setenv("EVM_DATABASE_PASSWORD", "secure-password")
		t.Setenv("EVM_DATABASE_SSLMODE", "require")
	}

	t.Run("passes with valid production config", func(t *testing.T) {
		setProduction(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Swagger.Enabled)
	})

	t.Run("fails with short jwt secret", func(t *testing.T) {
		setProduction(t)
		t.Setenv("EVM_JWT_SECRET", "short")
		_, err := Load()
		assert.ErrorContains(t, err, "at least 32 characters")
	})

	t.Run("fails with sqlite", func(t *testing.T) {
		setProduction(t)
		t.Setenv("EVM_DATABASE_DRIVER", "sqlite")
		_, err := Load()
		assert.ErrorContains(t, err, "database.driver must be postgres")
	})

	t.Run("fails with sslmode disable", func(t *testing.T) {
		setProduction(t)
		t.Setenv("EVM_DATABASE_SSLMODE", "disable")
		_, err := Load()
		assert.ErrorContains(t, err, "sslmode")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestSettlementConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, SettlementConfig{DefaultTimezone: "nowhere"}.Location())
	assert.Equal(t, "Europe/Berlin", SettlementConfig{DefaultTimezone: "Europe/Berlin"}.Location().String())
}
