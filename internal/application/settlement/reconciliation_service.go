package settlement

import (
	"context"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/logger"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconciliationService re-checks recorded settlement amounts against the ledger.
// It never repairs data; double claims put the vendor on hold.
type ReconciliationService struct {
	uow          settlement.UnitOfWork
	transactions settlement.TransactionRepository
	settlements  settlement.SettlementRepository
	cfg          Config
	metrics      *telemetry.SettlementMetrics
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	uow settlement.UnitOfWork,
	transactions settlement.TransactionRepository,
	settlements settlement.SettlementRepository,
	cfg Config,
	metrics *telemetry.SettlementMetrics,
) *ReconciliationService {
	return &ReconciliationService{
		uow:          uow,
		transactions: transactions,
		settlements:  settlements,
		cfg:          cfg.withDefaults(),
		metrics:      metrics,
	}
}

// AuditVendor recomputes every non-rejected settlement of the vendor
func (s *ReconciliationService) AuditVendor(ctx context.Context, vendorID uuid.UUID) (*settlement.AuditReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "audit_vendor")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrVendorID, vendorID.String())

	start := time.Now()
	var report *settlement.AuditReport
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.SettlementOperationLabels("audit_vendor"), func(c context.Context) {
		report, err = s.audit(c, vendorID)
	})
	s.metrics.ObserveOperation(ctx, "audit_vendor", start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	counts := make(map[settlement.DiscrepancyType]int)
	for _, d := range report.Discrepancies {
		counts[d.Type]++
	}
	for t, n := range counts {
		s.metrics.RecordAuditDiscrepancies(ctx, string(t), n)
	}
	telemetry.SetAttributes(span, "discrepancies", len(report.Discrepancies))

	log := logger.L(ctx).With(zap.String("vendor_id", vendorID.String()))
	if report.HasDoubleClaims() {
		log.Alert("Settlement audit found double-claimed transactions",
			zap.Int("count", len(report.DoubleClaimedIDs())))
	} else if len(report.Discrepancies) > 0 {
		log.Warn("Settlement audit found discrepancies", zap.Int("count", len(report.Discrepancies)))
	}
	return report, nil
}

func (s *ReconciliationService) audit(ctx context.Context, vendorID uuid.UUID) (*settlement.AuditReport, error) {
	if vendorID == uuid.Nil {
		return nil, settlement.NewValidationError("vendor id is required")
	}

	readCtx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	all, err := s.settlements.ListByVendor(readCtx, vendorID)
	if err != nil {
		return nil, readError("list settlements", err)
	}

	txByID := make(map[uuid.UUID]settlement.Transaction)
	for _, kind := range settlement.AllKinds() {
		var ids []uuid.UUID
		for i := range all {
			if all[i].Status != settlement.StatusRejected {
				ids = append(ids, all[i].IDsOfKind(kind)...)
			}
		}
		if len(ids) == 0 {
			continue
		}
		txs, err := s.transactions.FindByIDs(readCtx, vendorID, kind, ids)
		if err != nil {
			return nil, readError("find "+kind.String(), err)
		}
		for _, tx := range txs {
			txByID[tx.ID] = tx
		}
	}

	report := settlement.AuditSettlements(vendorID, all, txByID, s.cfg.Calculator(), s.cfg.AmountTolerance)
	if !report.HasDoubleClaims() {
		return report, nil
	}

	hold := settlement.NewHold(vendorID, "settlement audit found transactions claimed by more than one active settlement", report.DoubleClaimedIDs())
	err = s.uow.WithinVendorLock(ctx, vendorID, func(ctx context.Context, repos settlement.Repositories) error {
		existing, err := repos.Holds.Find(ctx, vendorID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		if err := repos.Holds.Place(ctx, hold); err != nil {
			return err
		}
		return recordEvents(ctx, repos, settlement.NewConsistencyViolationEvent(hold))
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// MatchPayouts checks bank statement lines against the settlements they pay.
// It reads only; mismatches are reported, never corrected.
func (s *ReconciliationService) MatchPayouts(ctx context.Context, lines []settlement.PayoutLine) (*settlement.PayoutReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "match_payouts")
	defer span.End()
	telemetry.SetAttributes(span, "statement_lines", len(lines))

	start := time.Now()
	report, err := s.matchPayouts(ctx, lines)
	s.metrics.ObserveOperation(ctx, "match_payouts", start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	counts := make(map[settlement.PayoutFindingType]int)
	for _, f := range report.Findings {
		counts[f.Type]++
	}
	for t, n := range counts {
		s.metrics.RecordAuditDiscrepancies(ctx, "payout_"+string(t), n)
	}
	telemetry.SetAttributes(span, "findings", len(report.Findings))

	if len(report.Findings) > 0 {
		logger.L(ctx).Warn("Payout statement does not match settlements",
			zap.Int("lines", report.LinesChecked),
			zap.Int("matched", report.Matched),
			zap.Int("findings", len(report.Findings)),
		)
	}
	return report, nil
}

func (s *ReconciliationService) matchPayouts(ctx context.Context, lines []settlement.PayoutLine) (*settlement.PayoutReport, error) {
	readCtx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	found, err := s.settlements.FindByIDs(readCtx, settlement.ReferencedSettlementIDs(lines))
	if err != nil {
		return nil, readError("find settlements", err)
	}
	byID := make(map[uuid.UUID]*settlement.Settlement, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	return settlement.MatchPayouts(lines, byID, s.cfg.AmountTolerance), nil
}
