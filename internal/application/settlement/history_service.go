package settlement

import (
	"context"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// HistoryService serves a vendor's settlement history
type HistoryService struct {
	settlements settlement.SettlementRepository
	cfg         Config
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(settlements settlement.SettlementRepository, cfg Config) *HistoryService {
	return &HistoryService{settlements: settlements, cfg: cfg.withDefaults()}
}

// ListSettlements returns a page of the vendor's settlements, newest first unless the filter orders otherwise
func (s *HistoryService) ListSettlements(ctx context.Context, vendorID uuid.UUID, filter settlement.SettlementFilter) (*shared.Paginated[settlement.Settlement], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "list_settlements")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrVendorID, vendorID.String())

	filter.Filter = filter.Normalized()
	if filter.PageSize > s.cfg.MaxPageSize {
		filter.PageSize = s.cfg.MaxPageSize
	}

	ctx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	items, total, err := s.settlements.List(ctx, vendorID, filter)
	if err != nil {
		err = readError("list settlements", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetSettlement returns one settlement of the vendor
func (s *HistoryService) GetSettlement(ctx context.Context, vendorID, id uuid.UUID) (*settlement.Settlement, error) {
	ctx, cancel := s.cfg.withQueryTimeout(ctx)
	defer cancel()

	st, err := s.settlements.FindByIDForVendor(ctx, vendorID, id)
	if err != nil {
		return nil, readError("find settlement", err)
	}
	return st, nil
}
