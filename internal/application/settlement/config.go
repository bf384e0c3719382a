package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
)

// Config holds the tunables shared by the settlement services.
// A zero AmountTolerance demands an exact match.
type Config struct {
	PlatformFee     decimal.Decimal
	AmountTolerance decimal.Decimal
	DefaultLocation *time.Location
	TimeSeriesDays  int
	QueryTimeout    time.Duration
	IdempotencyTTL  time.Duration
	MaxPageSize     int
	// Now is the clock; tests replace it
	Now func() time.Time
}

// ConfigFromSettings builds the service config from the loaded settlement section
func ConfigFromSettings(s config.SettlementConfig) Config {
	return Config{
		PlatformFee:     s.PlatformFee,
		AmountTolerance: s.AmountTolerance,
		DefaultLocation: s.Location(),
		TimeSeriesDays:  s.TimeSeriesDays,
		QueryTimeout:    s.QueryTimeout,
		IdempotencyTTL:  s.IdempotencyTTL,
		MaxPageSize:     s.MaxPageSize,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.DefaultLocation == nil {
		c.DefaultLocation = time.UTC
	}
	if c.TimeSeriesDays <= 0 {
		c.TimeSeriesDays = 30
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 5 * time.Second
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = 24 * time.Hour
	}
	if c.MaxPageSize <= 0 || c.MaxPageSize > shared.MaxPageSize {
		c.MaxPageSize = shared.MaxPageSize
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Calculator returns the revenue calculator for the configured platform fee
func (c Config) Calculator() settlement.RevenueCalculator {
	return settlement.NewRevenueCalculator(c.PlatformFee)
}

// withQueryTimeout bounds a read or a unit of work so it fails with a retryable
// error instead of hanging
func (c Config) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.QueryTimeout)
}

// readError maps read failures to TRANSIENT_STORAGE_ERROR. Domain errors pass through.
func readError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return settlement.NewTransientStorageError(op, err)
}

// recordEvents writes events to the outbox of the running unit of work
func recordEvents(ctx context.Context, repos settlement.Repositories, events ...shared.DomainEvent) error {
	if repos.Events == nil || len(events) == 0 {
		return nil
	}
	return repos.Events.Record(ctx, events...)
}

// errorCode returns the domain code of err, or INTERNAL_ERROR
func errorCode(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "INTERNAL_ERROR"
}
