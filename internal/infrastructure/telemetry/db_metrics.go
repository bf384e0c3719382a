package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DBMetrics periodically records connection pool statistics.
type DBMetrics struct {
	inUse    *Gauge
	idle     *Gauge
	waits    *Gauge
	sqlDB    *sql.DB
	interval time.Duration
	logger   *zap.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewDBMetrics creates the pool instruments for sqlDB
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, interval time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	m := &DBMetrics{
		sqlDB:    sqlDB,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	var err error
	if m.inUse, err = NewGauge(meter, "db_pool_connections_in_use", "Connections currently in use", "{connection}"); err != nil {
		return nil, err
	}
	if m.idle, err = NewGauge(meter, "db_pool_connections_idle", "Idle connections", "{connection}"); err != nil {
		return nil, err
	}
	if m.waits, err = NewGauge(meter, "db_pool_wait_count", "Total waits for a connection", "{wait}"); err != nil {
		return nil, err
	}
	return m, nil
}

// Start collects pool stats until ctx ends or Stop is called
func (m *DBMetrics) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			m.Collect(ctx)
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Collect records the current pool stats once
func (m *DBMetrics) Collect(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.inUse.Record(ctx, int64(stats.InUse))
	m.idle.Record(ctx, int64(stats.Idle))
	m.waits.Record(ctx, stats.WaitCount)
}

// Stop ends collection and waits for the collector to exit
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.started.Load() {
			<-m.done
		}
	})
}
