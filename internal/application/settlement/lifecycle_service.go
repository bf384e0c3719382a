package settlement

import (
	"context"
	"strings"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/logger"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleService drives settlements through payout processing.
// It is called by the payout collaborator, never by vendors.
type LifecycleService struct {
	uow         settlement.UnitOfWork
	settlements settlement.SettlementRepository
	cfg         Config
	metrics     *telemetry.SettlementMetrics
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	uow settlement.UnitOfWork,
	settlements settlement.SettlementRepository,
	cfg Config,
	metrics *telemetry.SettlementMetrics,
) *LifecycleService {
	return &LifecycleService{uow: uow, settlements: settlements, cfg: cfg.withDefaults(), metrics: metrics}
}

// MarkProcessing moves a pending settlement into payout processing
func (s *LifecycleService) MarkProcessing(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	return s.transition(ctx, "mark_processing", id, func(ctx context.Context, repos settlement.Repositories, st *settlement.Settlement) error {
		return st.MarkProcessing()
	})
}

// Complete records the payout of a processing settlement. Transactions keep
// their stored status; readers resolve them to settled.
func (s *LifecycleService) Complete(ctx context.Context, id uuid.UUID, payoutReference string) (*settlement.Settlement, error) {
	payoutReference = strings.TrimSpace(payoutReference)
	if payoutReference == "" {
		return nil, settlement.NewValidationError("payout_reference is required")
	}
	return s.transition(ctx, "complete", id, func(ctx context.Context, repos settlement.Repositories, st *settlement.Settlement) error {
		return st.Complete(payoutReference)
	})
}

// Reject refuses a settlement and returns its transactions to pending so a
// later request can claim them again
func (s *LifecycleService) Reject(ctx context.Context, id uuid.UUID, reason string) (*settlement.Settlement, error) {
	return s.transition(ctx, "reject", id, func(ctx context.Context, repos settlement.Repositories, st *settlement.Settlement) error {
		if err := st.Reject(reason); err != nil {
			return err
		}
		for _, kind := range settlement.AllKinds() {
			released, err := repos.Transactions.ReleaseSettlement(ctx, kind, st.ID)
			if err != nil {
				return err
			}
			logger.L(ctx).Info("Released settlement transactions",
				zap.String("settlement_id", st.ID.String()),
				zap.String("kind", kind.String()),
				zap.Int64("count", released),
			)
		}
		return nil
	})
}

type transitionFunc func(ctx context.Context, repos settlement.Repositories, st *settlement.Settlement) error

// transition reloads the settlement under the vendor lock, applies fn and
// saves with a version check
func (s *LifecycleService) transition(ctx context.Context, op string, id uuid.UUID, fn transitionFunc) (*settlement.Settlement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", op)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSettlementID, id.String())

	start := time.Now()
	st, err := s.applyTransition(ctx, id, fn)
	s.metrics.ObserveOperation(ctx, op, start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrVendorID, st.VendorID.String(),
		telemetry.SpanAttrStatus, st.Status.String(),
	)
	logger.L(ctx).Info("Settlement status changed",
		zap.String("settlement_id", st.ID.String()),
		zap.String("vendor_id", st.VendorID.String()),
		zap.String("status", st.Status.String()),
		zap.String("actor", logger.GetActor(ctx)),
	)
	return st, nil
}

func (s *LifecycleService) applyTransition(ctx context.Context, id uuid.UUID, fn transitionFunc) (*settlement.Settlement, error) {
	ctx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	current, err := s.settlements.FindByID(ctx, id)
	if err != nil {
		return nil, readError("find settlement", err)
	}

	var updated *settlement.Settlement
	err = s.uow.WithinVendorLock(ctx, current.VendorID, func(ctx context.Context, repos settlement.Repositories) error {
		st, err := repos.Settlements.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, st); err != nil {
			return err
		}
		if err := repos.Settlements.SaveWithLock(ctx, st); err != nil {
			return err
		}
		if err := recordEvents(ctx, repos, st.GetDomainEvents()...); err != nil {
			return err
		}
		st.ClearDomainEvents()
		updated = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
