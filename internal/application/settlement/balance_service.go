package settlement

import (
	"context"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceService rolls up a vendor's all-time revenue and payouts
type BalanceService struct {
	transactions settlement.TransactionRepository
	settlements  settlement.SettlementRepository
	cfg          Config
	metrics      *telemetry.SettlementMetrics
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(
	transactions settlement.TransactionRepository,
	settlements settlement.SettlementRepository,
	cfg Config,
	metrics *telemetry.SettlementMetrics,
) *BalanceService {
	return &BalanceService{
		transactions: transactions,
		settlements:  settlements,
		cfg:          cfg.withDefaults(),
		metrics:      metrics,
	}
}

// GetBalance returns total balance, total withdrawn and pending withdrawal.
// Pending withdrawal is derived from the other two.
func (s *BalanceService) GetBalance(ctx context.Context, vendorID uuid.UUID) (*settlement.BalanceSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "get_balance")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrVendorID, vendorID.String())

	start := time.Now()
	summary, err := s.getBalance(ctx, vendorID)
	s.metrics.ObserveOperation(ctx, "get_balance", start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return summary, nil
}

func (s *BalanceService) getBalance(ctx context.Context, vendorID uuid.UUID) (*settlement.BalanceSummary, error) {
	ctx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	calc := s.cfg.Calculator()
	total := decimal.Zero
	for _, kind := range settlement.AllKinds() {
		txs, err := s.transactions.ListAllCompleted(ctx, vendorID, kind)
		if err != nil {
			return nil, readError("list completed "+kind.String(), err)
		}
		total = total.Add(calc.Sum(txs))
	}

	withdrawn, err := s.settlements.SumCompletedAmount(ctx, vendorID)
	if err != nil {
		return nil, readError("sum completed settlements", err)
	}

	summary := settlement.NewBalanceSummary(total, withdrawn)
	return &summary, nil
}
