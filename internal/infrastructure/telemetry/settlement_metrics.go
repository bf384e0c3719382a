package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Settlement request outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeReplayed = "replayed"
	OutcomeFailed   = "failed"
)

// SettlementMetrics holds the business instruments of the settlement service.
type SettlementMetrics struct {
	requests          *Counter
	requestedAmount   *Histogram
	transitions       *Counter
	holds             *Counter
	auditDiscrepancy  *Counter
	operationDuration *Histogram
	logger            *zap.Logger
}

// SettlementMetricsConfig configures NewSettlementMetrics
type SettlementMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSettlementMetrics creates the settlement instruments on cfg.Meter
func NewSettlementMetrics(cfg SettlementMetricsConfig) (*SettlementMetrics, error) {
	if cfg.Meter == nil {
		return nil, errors.New("NewSettlementMetrics: meter cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &SettlementMetrics{logger: logger}
	var err error
	if m.requests, err = NewCounter(cfg.Meter, "settlement_requests_total",
		"Settlement requests by outcome and error code", "{request}"); err != nil {
		return nil, err
	}
	if m.requestedAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "settlement_requested_amount",
		Description: "Amount of accepted settlement requests",
		Unit:        "{currency}",
		Boundaries:  []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
	}); err != nil {
		return nil, err
	}
	if m.transitions, err = NewCounter(cfg.Meter, "settlement_transitions_total",
		"Settlement status transitions", "{transition}"); err != nil {
		return nil, err
	}
	if m.holds, err = NewCounter(cfg.Meter, "settlement_holds_total",
		"Vendors placed on settlement hold after a consistency violation", "{hold}"); err != nil {
		return nil, err
	}
	if m.auditDiscrepancy, err = NewCounter(cfg.Meter, "settlement_audit_discrepancies_total",
		"Discrepancies found by settlement audits", "{discrepancy}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "settlement_operation_duration_seconds",
		Description: "Duration of settlement service operations",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequest counts a settlement request; errorCode is empty on success
func (m *SettlementMetrics) RecordRequest(ctx context.Context, outcome, requestType, errorCode string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrOutcome.String(outcome), AttrRequestType.String(requestType)}
	if errorCode != "" {
		attrs = append(attrs, AttrErrorCode.String(errorCode))
	}
	m.requests.Inc(ctx, attrs...)
}

// RecordRequestedAmount records the amount of an accepted request
func (m *SettlementMetrics) RecordRequestedAmount(ctx context.Context, requestType string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.requestedAmount.Record(ctx, amount.InexactFloat64(), AttrRequestType.String(requestType))
}

// RecordTransition counts a move into status
func (m *SettlementMetrics) RecordTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.transitions.Inc(ctx, AttrStatus.String(status))
}

// RecordHold counts a hold placed on a vendor
func (m *SettlementMetrics) RecordHold(ctx context.Context) {
	if m == nil {
		return
	}
	m.holds.Inc(ctx)
}

// RecordAuditDiscrepancies counts audit findings by type
func (m *SettlementMetrics) RecordAuditDiscrepancies(ctx context.Context, discrepancyType string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.auditDiscrepancy.Add(ctx, int64(count), attribute.String("type", discrepancyType))
}

// ObserveOperation records how long operation took since start
func (m *SettlementMetrics) ObserveOperation(ctx context.Context, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operationDuration.RecordDuration(ctx, time.Since(start),
		AttrOperation.String(operation), AttrOutcome.String(outcome))
}
