package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AnalyticsQuery selects the reporting period of a vendor.
// Date wins over Month; with neither the current calendar month is used.
type AnalyticsQuery struct {
	VendorID uuid.UUID
	Date     *time.Time
	Month    *time.Time
}

// PeriodView describes the resolved reporting period
type PeriodView struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// AnalyticsResult is the vendor revenue dashboard
type AnalyticsResult struct {
	VendorID     uuid.UUID                         `json:"vendor_id"`
	Period       PeriodView                        `json:"period"`
	PeriodStats  settlement.PeriodSummary          `json:"period_stats"`
	OverallStats settlement.BalanceSummary         `json:"overall_stats"`
	DailyStats   []settlement.DailyStat            `json:"daily_stats"`
	Transactions []settlement.AnnotatedTransaction `json:"transactions"`
}

// AnalyticsService computes period revenue, the daily timeline and the audit list
type AnalyticsService struct {
	transactions settlement.TransactionRepository
	settlements  settlement.SettlementRepository
	vendors      settlement.VendorRepository
	balance      *BalanceService
	cfg          Config
	metrics      *telemetry.SettlementMetrics
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	transactions settlement.TransactionRepository,
	settlements settlement.SettlementRepository,
	vendors settlement.VendorRepository,
	balance *BalanceService,
	cfg Config,
	metrics *telemetry.SettlementMetrics,
) *AnalyticsService {
	return &AnalyticsService{
		transactions: transactions,
		settlements:  settlements,
		vendors:      vendors,
		balance:      balance,
		cfg:          cfg.withDefaults(),
		metrics:      metrics,
	}
}

// GetAnalytics builds the dashboard for the requested period in the vendor's timezone
func (s *AnalyticsService) GetAnalytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "get_analytics")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrVendorID, q.VendorID.String())

	start := time.Now()
	var result *AnalyticsResult
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.SettlementOperationLabels("get_analytics"), func(c context.Context) {
		result, err = s.getAnalytics(c, q)
	})
	s.metrics.ObserveOperation(ctx, "get_analytics", start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPeriod, result.Period.Start+".."+result.Period.End,
		telemetry.SpanAttrTxCount, len(result.Transactions),
	)
	return result, nil
}

func (s *AnalyticsService) getAnalytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsResult, error) {
	if q.VendorID == uuid.Nil {
		return nil, settlement.NewValidationError("vendor id is required")
	}

	ctx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	vendor, err := s.vendors.FindProfile(ctx, q.VendorID)
	if err != nil {
		return nil, readError("find vendor", err)
	}
	loc := vendor.Location(s.cfg.DefaultLocation)
	today := settlement.DateIn(s.cfg.Now(), loc)

	period := resolvePeriod(q, today)
	window := settlement.TrailingPeriod(period.ClampEnd(today).End, s.cfg.TimeSeriesDays)
	periodFrom, periodTo := period.Bounds(loc)
	windowFrom, windowTo := window.Bounds(loc)

	var (
		mu             sync.Mutex
		completed      []settlement.Transaction
		created        int
		windowDone     []settlement.Transaction
		windowCreated  []settlement.Transaction
		allSettlements []settlement.Settlement
		balance        *settlement.BalanceSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range settlement.AllKinds() {
		g.Go(func() error {
			txs, err := s.transactions.ListCompleted(gctx, q.VendorID, kind, periodFrom, periodTo)
			if err != nil {
				return readError("list completed "+kind.String(), err)
			}
			bookings, err := s.transactions.ListCreated(gctx, q.VendorID, kind, periodFrom, periodTo)
			if err != nil {
				return readError("list created "+kind.String(), err)
			}
			done, err := s.transactions.ListCompleted(gctx, q.VendorID, kind, windowFrom, windowTo)
			if err != nil {
				return readError("list completed "+kind.String(), err)
			}
			made, err := s.transactions.ListCreated(gctx, q.VendorID, kind, windowFrom, windowTo)
			if err != nil {
				return readError("list created "+kind.String(), err)
			}
			mu.Lock()
			defer mu.Unlock()
			completed = append(completed, txs...)
			created += len(bookings)
			windowDone = append(windowDone, done...)
			windowCreated = append(windowCreated, made...)
			return nil
		})
	}
	g.Go(func() error {
		list, err := s.settlements.ListByVendor(gctx, q.VendorID)
		if err != nil {
			return readError("list settlements", err)
		}
		allSettlements = list
		return nil
	})
	g.Go(func() error {
		b, err := s.balance.getBalance(gctx, q.VendorID)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	calc := s.cfg.Calculator()
	resolver := settlement.NewStatusResolver(allSettlements)

	daily := settlement.MergeDailySeries(window,
		settlement.AggregateActualRevenue(windowDone, calc, loc),
		settlement.AggregateEstimatedRevenue(windowCreated, calc, loc),
		settlement.AggregateBookingCounts(windowCreated, loc),
	)

	return &AnalyticsResult{
		VendorID: q.VendorID,
		Period: PeriodView{
			Start:    period.Start.Format(settlement.DateLayout),
			End:      period.End.Format(settlement.DateLayout),
			Timezone: loc.String(),
		},
		PeriodStats:  settlement.SummarizePeriod(completed, created, calc, resolver),
		OverallStats: *balance,
		DailyStats:   daily,
		Transactions: settlement.AnnotateTransactions(completed, calc, resolver),
	}, nil
}

// resolvePeriod picks the requested day, the requested month, or the current month
func resolvePeriod(q AnalyticsQuery, today time.Time) settlement.Period {
	switch {
	case q.Date != nil:
		return settlement.DayPeriod(*q.Date)
	case q.Month != nil:
		return settlement.MonthPeriod(q.Month.Year(), q.Month.Month())
	default:
		return settlement.MonthPeriod(today.Year(), today.Month())
	}
}
