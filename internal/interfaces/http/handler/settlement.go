package handler

import (
	"context"
	"time"

	settlementapp "github.com/evmarket/backend/internal/application/settlement"
	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementRequester creates settlement requests
type SettlementRequester interface {
	RequestSettlement(ctx context.Context, in settlementapp.RequestSettlementInput) (*settlementapp.RequestSettlementResult, error)
}

// SettlementHistory reads a vendor's settlements
type SettlementHistory interface {
	ListSettlements(ctx context.Context, vendorID uuid.UUID, filter settlement.SettlementFilter) (*shared.Paginated[settlement.Settlement], error)
	GetSettlement(ctx context.Context, vendorID, id uuid.UUID) (*settlement.Settlement, error)
}

// SettlementHandler handles vendor settlement endpoints
type SettlementHandler struct {
	BaseHandler
	workflow SettlementRequester
	history  SettlementHistory
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(workflow SettlementRequester, history SettlementHistory) *SettlementHandler {
	return &SettlementHandler{
		workflow: workflow,
		history:  history,
	}
}

// Request godoc
// @ID           requestSettlement
// @Summary      Request a settlement
// @Description  Verifies the claimed amount against the vendor's unsettled completed revenue for the period and creates a pending settlement. Rejections carry the server-side expected_amount.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Param        Idempotency-Key header string false "Replays the first result for a repeated key"
// @Param        request body RequestSettlementRequest true "Settlement request"
// @Success      201 {object} APIResponse[settlementapp.RequestSettlementResult]
// @Success      200 {object} APIResponse[settlementapp.RequestSettlementResult] "Replayed idempotent request"
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/settlements [post]
func (h *SettlementHandler) Request(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}

	var req RequestSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > MaxIdempotencyKeyLength {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeValidation), dto.ErrCodeValidation, "Idempotency-Key is too long")
		return
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		h.HandleDomainError(c, settlement.NewValidationError("amount must be a decimal number"))
		return
	}

	in := settlementapp.RequestSettlementInput{
		VendorID:       vendorID,
		ClaimedAmount:  amount,
		Reason:         req.Reason,
		RequestType:    settlement.RequestType(req.RequestType),
		IdempotencyKey: key,
	}
	if in.Date, err = optionalDate(req.Date); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if in.PeriodStart, err = optionalDate(req.PeriodStart); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if in.PeriodEnd, err = optionalDate(req.PeriodEnd); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	result, err := h.workflow.RequestSettlement(c.Request.Context(), in)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if result.Replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// List godoc
// @ID           listSettlements
// @Summary      List settlements
// @Description  Returns the vendor's settlements, newest first unless sort_by and order_dir say otherwise
// @Tags         settlements
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size (max 100)" default(20)
// @Param        status query string false "Status" Enums(pending, processing, completed, rejected)
// @Param        request_type query string false "Request type" Enums(scheduled, urgent)
// @Param        from query string false "Period ends on or after (YYYY-MM-DD)"
// @Param        to query string false "Period starts on or before (YYYY-MM-DD)"
// @Param        sort_by query string false "Sort column" Enums(requested_at, period_start, amount, status, processed_at) default(requested_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]SettlementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/settlements [get]
func (h *SettlementHandler) List(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}

	var q ListSettlementsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := settlement.SettlementFilter{
		Filter: shared.Filter{Page: q.Page, PageSize: q.PageSize, OrderBy: q.SortBy, OrderDir: q.OrderDir},
	}
	if q.Status != "" {
		status := settlement.Status(q.Status)
		filter.Status = &status
	}
	if q.RequestType != "" {
		requestType := settlement.RequestType(q.RequestType)
		filter.RequestType = &requestType
	}
	var err error
	if filter.From, err = optionalDate(q.From); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if filter.To, err = optionalDate(q.To); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, err := h.history.ListSettlements(c.Request.Context(), vendorID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, ToSettlementResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// Get godoc
// @ID           getSettlement
// @Summary      Get a settlement
// @Tags         settlements
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} APIResponse[SettlementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/settlements/{id} [get]
func (h *SettlementHandler) Get(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	st, err := h.history.GetSettlement(c.Request.Context(), vendorID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToSettlementResponse(st))
}

// optionalDate parses a YYYY-MM-DD value; empty yields nil
func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := settlement.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
