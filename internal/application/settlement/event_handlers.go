package settlement

import (
	"context"
	"fmt"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SettlementEventTypes lists every event the settlement context publishes
func SettlementEventTypes() []string {
	return []string{
		settlement.EventTypeSettlementRequested,
		settlement.EventTypeSettlementProcessing,
		settlement.EventTypeSettlementCompleted,
		settlement.EventTypeSettlementRejected,
		settlement.EventTypeConsistencyViolation,
		settlement.EventTypeSettlementHoldRelease,
	}
}

// AuditLogHandler writes a log line for every relayed settlement event.
// Consistency violations are logged at alert level for the on-call operator.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditLogHandler) EventTypes() []string {
	return SettlementEventTypes()
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("vendor_id", event.VendorID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
	}

	switch e := event.(type) {
	case *settlement.SettlementRequestedEvent:
		h.logger.Info("settlement requested",
			append(fields,
				zap.String("amount", e.Amount.StringFixed(2)),
				zap.String("period_start", e.PeriodStart),
				zap.String("period_end", e.PeriodEnd),
				zap.Int("transaction_count", e.TransactionCount),
			)...)
	case *settlement.SettlementCompletedEvent:
		h.logger.Info("settlement paid out",
			append(fields, zap.String("payout_reference", e.PayoutReference))...)
	case *settlement.SettlementRejectedEvent:
		h.logger.Info("settlement rejected", append(fields, zap.String("reason", e.Reason))...)
	case *settlement.ConsistencyViolationEvent:
		h.logger.Error("ALERT settlement consistency violation",
			append(fields,
				zap.Bool("alert", true),
				zap.String("reason", e.Reason),
				zap.Int("transaction_count", len(e.TransactionIDs)),
			)...)
	case *settlement.HoldReleasedEvent:
		h.logger.Warn("settlement hold released", append(fields, zap.String("released_by", e.ReleasedBy))...)
	default:
		h.logger.Info("settlement event", fields...)
	}
	return nil
}

// MetricsHandler counts lifecycle transitions and holds from relayed events
type MetricsHandler struct {
	metrics *telemetry.SettlementMetrics
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics *telemetry.SettlementMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		settlement.EventTypeSettlementProcessing,
		settlement.EventTypeSettlementCompleted,
		settlement.EventTypeSettlementRejected,
		settlement.EventTypeConsistencyViolation,
	}
}

// Handle records the metric matching the event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch event.EventType() {
	case settlement.EventTypeSettlementProcessing:
		h.metrics.RecordTransition(ctx, settlement.StatusProcessing.String())
	case settlement.EventTypeSettlementCompleted:
		h.metrics.RecordTransition(ctx, settlement.StatusCompleted.String())
	case settlement.EventTypeSettlementRejected:
		h.metrics.RecordTransition(ctx, settlement.StatusRejected.String())
	case settlement.EventTypeConsistencyViolation:
		h.metrics.RecordHold(ctx)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}
