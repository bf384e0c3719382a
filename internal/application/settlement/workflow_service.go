package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/infrastructure/logger"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxReasonLength bounds the free-text reason of a settlement request
const MaxReasonLength = 500

// RequestSettlementInput is a vendor's payout request.
// Either Date or both PeriodStart and PeriodEnd must be set.
type RequestSettlementInput struct {
	VendorID       uuid.UUID
	Date           *time.Time
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	ClaimedAmount  decimal.Decimal
	Reason         string
	RequestType    settlement.RequestType
	IdempotencyKey string
}

// RequestSettlementResult is the accepted settlement
type RequestSettlementResult struct {
	SettlementID uuid.UUID         `json:"settlement_id"`
	Status       settlement.Status `json:"status"`
	Amount       decimal.Decimal   `json:"amount"`
	Replayed     bool              `json:"replayed,omitempty"`
}

// WorkflowService verifies and creates settlement requests
type WorkflowService struct {
	uow         settlement.UnitOfWork
	vendors     settlement.VendorRepository
	idempotency shared.IdempotencyStore
	cfg         Config
	metrics     *telemetry.SettlementMetrics
}

// NewWorkflowService creates a new WorkflowService. idempotency may be nil.
func NewWorkflowService(
	uow settlement.UnitOfWork,
	vendors settlement.VendorRepository,
	idempotency shared.IdempotencyStore,
	cfg Config,
	metrics *telemetry.SettlementMetrics,
) *WorkflowService {
	return &WorkflowService{
		uow:         uow,
		vendors:     vendors,
		idempotency: idempotency,
		cfg:         cfg.withDefaults(),
		metrics:     metrics,
	}
}

// RequestSettlement validates the claim against the recomputed ledger and,
// when it matches, creates a pending settlement claiming every eligible
// transaction. Validation and the writes run in one transaction holding the
// vendor's settlement lock; any rejection leaves no trace.
func (s *WorkflowService) RequestSettlement(ctx context.Context, in RequestSettlementInput) (*RequestSettlementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "request_settlement")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrVendorID, in.VendorID.String(),
		telemetry.SpanAttrAmount, in.ClaimedAmount.StringFixed(2),
		telemetry.SpanAttrRequestType, string(in.RequestType),
	)

	start := time.Now()
	var result *RequestSettlementResult
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.SettlementOperationLabels("request_settlement"), func(c context.Context) {
		result, err = s.requestSettlement(c, in)
	})
	s.metrics.ObserveOperation(ctx, "request_settlement", start, err)

	requestType := string(in.RequestType)
	if requestType == "" {
		requestType = string(settlement.RequestTypeScheduled)
	}
	log := logger.L(ctx).With(zap.String("vendor_id", in.VendorID.String()))

	if err != nil {
		telemetry.RecordError(span, err)
		code := errorCode(err)
		s.metrics.RecordRequest(ctx, requestOutcome(err), requestType, code)
		if expected, ok := settlement.ExpectedAmountOf(err); ok {
			telemetry.SetAttributes(span, telemetry.SpanAttrExpected, expected.StringFixed(2))
		}
		switch {
		case code == settlement.CodeConsistencyViolated:
			log.Alert("Settlement request halted by consistency violation", zap.Error(err))
		case settlement.IsRetryable(err):
			log.Warn("Settlement request failed transiently", zap.Error(err))
		default:
			log.Info("Settlement request rejected", zap.String("code", code), zap.Error(err))
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSettlementID, result.SettlementID.String(),
		telemetry.SpanAttrIdempotent, result.Replayed,
	)
	telemetry.SetOK(span)
	if result.Replayed {
		s.metrics.RecordRequest(ctx, telemetry.OutcomeReplayed, requestType, "")
		log.Info("Settlement request replayed", zap.String("settlement_id", result.SettlementID.String()))
		return result, nil
	}
	s.metrics.RecordRequest(ctx, telemetry.OutcomeAccepted, requestType, "")
	s.metrics.RecordRequestedAmount(ctx, requestType, result.Amount)
	log.Info("Settlement requested",
		zap.String("settlement_id", result.SettlementID.String()),
		zap.String("amount", result.Amount.StringFixed(2)),
	)
	return result, nil
}

func (s *WorkflowService) requestSettlement(ctx context.Context, in RequestSettlementInput) (*RequestSettlementResult, error) {
	period, requestType, err := validateRequest(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	idemKey := ""
	if in.IdempotencyKey != "" && s.idempotency != nil {
		idemKey = in.VendorID.String() + ":" + in.IdempotencyKey
	}
	fingerprint := requestFingerprint(period, in.ClaimedAmount, requestType)

	vendor, err := s.vendors.FindProfile(ctx, in.VendorID)
	if err != nil {
		return nil, readError("find vendor", err)
	}
	loc := vendor.Location(s.cfg.DefaultLocation)
	from, to := period.Bounds(loc)
	calc := s.cfg.Calculator()

	var (
		result    *RequestSettlementResult
		violation *settlement.Hold
	)
	err = s.uow.WithinVendorLock(ctx, in.VendorID, func(ctx context.Context, repos settlement.Repositories) error {
		if replay, err := s.replay(ctx, repos, in.VendorID, idemKey, fingerprint); err != nil || replay != nil {
			result = replay
			return err
		}

		hold, err := repos.Holds.Find(ctx, in.VendorID)
		if err != nil {
			return err
		}
		if hold != nil {
			return hold.AsError()
		}

		active, err := repos.Settlements.ListActive(ctx, in.VendorID)
		if err != nil {
			return err
		}
		var candidates []settlement.Transaction
		for _, kind := range settlement.AllKinds() {
			txs, err := repos.Transactions.ListCompleted(ctx, in.VendorID, kind, from, to)
			if err != nil {
				return err
			}
			candidates = append(candidates, txs...)
		}

		if violation = settlement.CheckInvariants(in.VendorID, active, candidates); violation != nil {
			if err := repos.Holds.Place(ctx, violation); err != nil {
				return err
			}
			return recordEvents(ctx, repos, settlement.NewConsistencyViolationEvent(violation))
		}

		eligible := settlement.SelectClaimable(candidates, from, to)
		expected := calc.Sum(eligible)

		for i := range active {
			if active[i].ConflictsWith(period) {
				return settlement.NewOverlappingSettlementError(&active[i], expected)
			}
		}
		if len(eligible) == 0 {
			return settlement.NewNoEligibleTransactionsError(period)
		}
		if !settlement.WithinTolerance(expected, in.ClaimedAmount, s.cfg.AmountTolerance) {
			return settlement.NewAmountMismatchError(expected, in.ClaimedAmount)
		}
		if vendor == nil || !vendor.BankDetails.IsComplete() {
			return settlement.NewMissingBankDetailsError(expected)
		}

		created, err := settlement.NewSettlement(in.VendorID, period, expected, requestType, in.Reason, *vendor.BankDetails, eligible)
		if err != nil {
			return err
		}
		created.RequestedAt = s.cfg.Now()
		if err := repos.Settlements.Create(ctx, created); err != nil {
			return err
		}
		for _, kind := range settlement.AllKinds() {
			ids := created.IDsOfKind(kind)
			if len(ids) == 0 {
				continue
			}
			claimed, err := repos.Transactions.MarkIncluded(ctx, kind, ids, created.ID)
			if err != nil {
				return err
			}
			if claimed != int64(len(ids)) {
				return settlement.NewTransientStorageError("claim "+kind.String(),
					fmt.Errorf("claimed %d of %d transactions", claimed, len(ids)))
			}
		}
		if err := recordEvents(ctx, repos, created.GetDomainEvents()...); err != nil {
			return err
		}
		created.ClearDomainEvents()

		s.remember(ctx, idemKey, created.ID, fingerprint)
		result = &RequestSettlementResult{
			SettlementID: created.ID,
			Status:       created.Status,
			Amount:       created.Amount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if violation != nil {
		return nil, violation.AsError()
	}
	return result, nil
}

// replay answers a retried request with the settlement the first attempt created.
// A key reused for a different period, amount or request type is refused.
func (s *WorkflowService) replay(ctx context.Context, repos settlement.Repositories, vendorID uuid.UUID, key, fingerprint string) (*RequestSettlementResult, error) {
	if key == "" {
		return nil, nil
	}
	value, ok, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		logger.L(ctx).Warn("Idempotency lookup failed, processing request", zap.Error(err))
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	rawID, stored, _ := strings.Cut(value, "|")
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, nil
	}
	if stored != "" && stored != fingerprint {
		return nil, settlement.NewValidationError("Idempotency-Key was already used for a different settlement request")
	}
	prior, err := repos.Settlements.FindByIDForVendor(ctx, vendorID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &RequestSettlementResult{
		SettlementID: prior.ID,
		Status:       prior.Status,
		Amount:       prior.Amount,
		Replayed:     true,
	}, nil
}

// remember stores the idempotency key with the request fingerprint. A store
// failure only costs replay.
func (s *WorkflowService) remember(ctx context.Context, key string, id uuid.UUID, fingerprint string) {
	if key == "" {
		return
	}
	if _, err := s.idempotency.Remember(ctx, key, id.String()+"|"+fingerprint, s.cfg.IdempotencyTTL); err != nil {
		logger.L(ctx).Warn("Failed to store idempotency key", zap.Error(err))
	}
}

// requestFingerprint identifies what a settlement request asked for
func requestFingerprint(period settlement.Period, amount decimal.Decimal, requestType settlement.RequestType) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		period.Start.Format(settlement.DateLayout),
		period.End.Format(settlement.DateLayout),
		amount.StringFixed(2),
		string(requestType),
	}, "|")))
	return hex.EncodeToString(sum[:16])
}

// validateRequest checks the request shape and resolves its period
func validateRequest(in RequestSettlementInput) (settlement.Period, settlement.RequestType, error) {
	if in.VendorID == uuid.Nil {
		return settlement.Period{}, "", settlement.NewValidationError("vendor id is required")
	}

	var period settlement.Period
	switch {
	case in.Date != nil && (in.PeriodStart != nil || in.PeriodEnd != nil):
		return settlement.Period{}, "", settlement.NewValidationError("use either date or period_start/period_end, not both")
	case in.Date != nil:
		period = settlement.DayPeriod(*in.Date)
	case in.PeriodStart != nil && in.PeriodEnd != nil:
		p, err := settlement.NewPeriod(*in.PeriodStart, *in.PeriodEnd)
		if err != nil {
			return settlement.Period{}, "", err
		}
		period = p
	default:
		return settlement.Period{}, "", settlement.NewValidationError("date or period_start and period_end are required")
	}

	if in.ClaimedAmount.IsNegative() {
		return settlement.Period{}, "", settlement.NewValidationError("amount must not be negative")
	}

	requestType := in.RequestType
	if requestType == "" {
		requestType = settlement.RequestTypeScheduled
	}
	if !requestType.IsValid() {
		return settlement.Period{}, "", settlement.NewValidationError("request_type must be scheduled or urgent")
	}

	if utf8.RuneCountInString(in.Reason) > MaxReasonLength {
		return settlement.Period{}, "", settlement.NewValidationError(fmt.Sprintf("reason must be at most %d characters", MaxReasonLength))
	}
	return period, requestType, nil
}

// requestOutcome classifies a failed request for the request counter
func requestOutcome(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && !settlement.IsRetryable(err) {
		return telemetry.OutcomeRejected
	}
	return telemetry.OutcomeFailed
}
