package settlement

import (
	"context"
	"testing"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleSettlement(t *testing.T) *settlement.Settlement {
	t.Helper()
	vendorID := uuid.New()
	tx := completedFood(vendorID, "10", at("2024-01-05T10:00:00Z"))
	tx.ID = uuid.New()
	s, err := settlement.NewSettlement(vendorID, settlement.DayPeriod(date("2024-01-05")), dec("10"),
		settlement.RequestTypeScheduled, "", *testBank, []settlement.Transaction{tx})
	require.NoError(t, err)
	return s
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewAuditLogHandler(zap.New(core))
	s := sampleSettlement(t)

	assert.ElementsMatch(t, SettlementEventTypes(), h.EventTypes())

	require.NoError(t, h.Handle(context.Background(), settlement.NewSettlementRequestedEvent(s)))
	hold := settlement.NewHold(s.VendorID, "double claim", s.ReferencedIDs())
	require.NoError(t, h.Handle(context.Background(), settlement.NewConsistencyViolationEvent(hold)))
	require.NoError(t, h.Handle(context.Background(), settlement.NewHoldReleasedEvent(s.VendorID, "ops")))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, "settlement requested", entries[0].Message)
	assert.Equal(t, "10.00", entries[0].ContextMap()["amount"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, true, entries[1].ContextMap()["alert"])
	assert.Equal(t, s.VendorID.String(), entries[1].ContextMap()["vendor_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "ops", entries[2].ContextMap()["released_by"])
}

func TestMetricsHandler(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := telemetry.NewSettlementMetrics(telemetry.SettlementMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)
	h := NewMetricsHandler(metrics)
	ctx := context.Background()

	s := sampleSettlement(t)
	require.NoError(t, s.MarkProcessing())
	require.NoError(t, s.Complete("PAY-1"))
	for _, e := range s.GetDomainEvents() {
		if e.EventType() == settlement.EventTypeSettlementRequested {
			assert.Error(t, h.Handle(ctx, e))
			continue
		}
		require.NoError(t, h.Handle(ctx, e))
	}
	hold := settlement.NewHold(s.VendorID, "double claim", nil)
	require.NoError(t, h.Handle(ctx, settlement.NewConsistencyViolationEvent(hold)))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), totals["settlement_transitions_total"])
	assert.Equal(t, int64(1), totals["settlement_holds_total"])
}

func TestMetricsHandler_NilMetrics(t *testing.T) {
	h := NewMetricsHandler(nil)
	s := sampleSettlement(t)
	assert.NoError(t, h.Handle(context.Background(), settlement.NewSettlementRejectedEvent(s)))
}
