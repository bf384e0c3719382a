// Package scheduler runs the nightly reconciliation sweep across all vendors.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// cronTickerInterval is the interval at which the cron scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

// AuditSchedulerConfig holds configuration for the nightly audit sweep
type AuditSchedulerConfig struct {
	// Enabled indicates if the sweep runs on a schedule
	Enabled bool
	// CronHour is the hour (0-23) to run the sweep
	CronHour int
	// CronMinute is the minute (0-59) to run the sweep
	CronMinute int
	// JobTimeout bounds a whole sweep
	JobTimeout time.Duration
	// MaxConcurrentAudits is the number of vendors audited at once
	MaxConcurrentAudits int
	// Location is the zone CronHour and CronMinute are read in
	Location *time.Location
}

// DefaultAuditSchedulerConfig returns the default sweep configuration, 2:00 AM UTC daily
func DefaultAuditSchedulerConfig() AuditSchedulerConfig {
	return AuditSchedulerConfig{
		Enabled:             true,
		CronHour:            2,
		CronMinute:          0,
		JobTimeout:          30 * time.Minute,
		MaxConcurrentAudits: 4,
		Location:            time.UTC,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract hour and minute
// Returns defaults (2:00) if the expression is empty
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 2
	minute = 0

	if cronExpr == "" {
		return hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, fmt.Errorf("%w: expected \"minute hour * * *\", got %q", ErrInvalidConfig, cronExpr)
	}

	if parts[0] != "*" {
		if minute, err = parseField(parts[0]); err != nil {
			return 2, 0, err
		}
	}
	if parts[1] != "*" {
		if hour, err = parseField(parts[1]); err != nil {
			return 2, 0, err
		}
	}

	if minute < 0 || minute > 59 {
		return 2, 0, fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidConfig, minute)
	}
	if hour < 0 || hour > 23 {
		return 2, 0, fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidConfig, hour)
	}
	return hour, minute, nil
}

func parseField(s string) (int, error) {
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidConfig, s)
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// VendorLister enumerates the vendors to audit
type VendorLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// VendorAuditor audits a single vendor's settlements
type VendorAuditor interface {
	AuditVendor(ctx context.Context, vendorID uuid.UUID) (*settlement.AuditReport, error)
}

// RunSummary is the outcome of one sweep
type RunSummary struct {
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	VendorsAudited    int           `json:"vendors_audited"`
	VendorsFailed     int           `json:"vendors_failed"`
	VendorsFlagged    []uuid.UUID   `json:"vendors_flagged"`
	DiscrepancyCount  int           `json:"discrepancy_count"`
	DoubleClaimsFound bool          `json:"double_claims_found"`
}

// AuditScheduler audits every vendor once a day
type AuditScheduler struct {
	config  AuditSchedulerConfig
	vendors VendorLister
	auditor VendorAuditor
	logger  *zap.Logger
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  atomic.Bool

	lastRunAt   *time.Time
	nextRunAt   *time.Time
	lastSummary *RunSummary
}

// NewAuditScheduler creates a new audit scheduler
func NewAuditScheduler(config AuditSchedulerConfig, vendors VendorLister, auditor VendorAuditor, logger *zap.Logger) *AuditScheduler {
	if config.MaxConcurrentAudits <= 0 {
		config.MaxConcurrentAudits = 1
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditScheduler{
		config:  config,
		vendors: vendors,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
}

// Start starts the cron loop
func (s *AuditScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Audit scheduler started",
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Timep("next_run_at", s.GetNextRunAt()),
	)
	return nil
}

// Stop stops the cron loop and waits for an in-flight sweep
func (s *AuditScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Audit scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Audit scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *AuditScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				if _, err := s.RunNow(ctx); err != nil && err != ErrRunInProgress {
					s.logger.Error("Scheduled audit sweep failed", zap.Error(err))
				}
				s.calculateNextRunTime()
			}
		}
	}
}

// shouldRun checks if the sweep is due at the given time
func (s *AuditScheduler) shouldRun(now time.Time) bool {
	now = now.In(s.config.Location)
	return now.Hour() == s.config.CronHour && now.Minute() == s.config.CronMinute
}

func (s *AuditScheduler) calculateNextRunTime() {
	now := s.now().In(s.config.Location)
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, s.config.Location)
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// RunNow audits every vendor. Audit failures for one vendor are logged and
// counted without stopping the sweep; only a failure to list vendors is
// returned as an error.
func (s *AuditScheduler) RunNow(ctx context.Context) (*RunSummary, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.sweeping.Store(false)

	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	started := s.now()
	s.mu.Lock()
	s.lastRunAt = &started
	s.mu.Unlock()

	ids, err := s.vendors.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	s.logger.Info("Starting reconciliation sweep", zap.Int("vendor_count", len(ids)))

	summary := &RunSummary{StartedAt: started}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentAudits)
	for _, id := range ids {
		vendorID := id
		g.Go(func() error {
			report, err := s.auditor.AuditVendor(gctx, vendorID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.VendorsFailed++
				s.logger.Warn("Vendor audit failed",
					zap.String("vendor_id", vendorID.String()),
					zap.Error(err),
				)
				return nil
			}
			summary.VendorsAudited++
			if len(report.Discrepancies) > 0 {
				summary.VendorsFlagged = append(summary.VendorsFlagged, vendorID)
				summary.DiscrepancyCount += len(report.Discrepancies)
				summary.DoubleClaimsFound = summary.DoubleClaimsFound || report.HasDoubleClaims()
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = s.now().Sub(started)
	s.mu.Lock()
	s.lastSummary = summary
	s.mu.Unlock()

	s.logger.Info("Reconciliation sweep finished",
		zap.Int("vendors_audited", summary.VendorsAudited),
		zap.Int("vendors_failed", summary.VendorsFailed),
		zap.Int("vendors_flagged", len(summary.VendorsFlagged)),
		zap.Int("discrepancies", summary.DiscrepancyCount),
		zap.Duration("duration", summary.Duration),
	)
	return summary, ctx.Err()
}

// TriggerManualRun starts a sweep in the background
// Uses a background context so the sweep outlives the caller's request
func (s *AuditScheduler) TriggerManualRun() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	if s.sweeping.Load() {
		return ErrRunInProgress
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.RunNow(context.Background()); err != nil && err != ErrRunInProgress {
			s.logger.Error("Manual audit sweep failed", zap.Error(err))
		}
	}()
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *AuditScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":       s.config.Enabled,
		"is_running":    s.isRunning,
		"sweeping":      s.sweeping.Load(),
		"cron_hour":     s.config.CronHour,
		"cron_minute":   s.config.CronMinute,
		"last_run_at":   s.lastRunAt,
		"next_run_at":   s.nextRunAt,
		"last_summary":  s.lastSummary,
		"concurrency":   s.config.MaxConcurrentAudits,
		"schedule_zone": s.config.Location.String(),
	}
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *AuditScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run started
func (s *AuditScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}

// LastSummary returns the outcome of the most recent sweep, nil before the first
func (s *AuditScheduler) LastSummary() *RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSummary
}
