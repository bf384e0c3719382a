package handler

import (
	"context"
	"time"

	settlementapp "github.com/evmarket/backend/internal/application/settlement"
	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalyticsReader builds the vendor revenue dashboard
type AnalyticsReader interface {
	GetAnalytics(ctx context.Context, q settlementapp.AnalyticsQuery) (*settlementapp.AnalyticsResult, error)
}

// BalanceReader returns the all-time balance of a vendor
type BalanceReader interface {
	GetBalance(ctx context.Context, vendorID uuid.UUID) (*settlement.BalanceSummary, error)
}

// AnalyticsHandler serves vendor revenue analytics and balances
type AnalyticsHandler struct {
	BaseHandler
	analytics AnalyticsReader
	balance   BalanceReader
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analytics AnalyticsReader, balance BalanceReader) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		balance:   balance,
	}
}

// AnalyticsQuery selects the reporting period; date wins over month
type AnalyticsQuery struct {
	Date  string `form:"date" binding:"omitempty,yyyymmdd" example:"2024-01-05"`
	Month string `form:"month" binding:"omitempty,yyyymm" example:"2024-01"`
}

// GetAnalytics godoc
// @ID           getVendorAnalytics
// @Summary      Get revenue analytics
// @Description  Period revenue (actual vs estimated), all-time balance, the daily timeline and the annotated transaction list. Without date or month the current month in the vendor's timezone is used.
// @Tags         analytics
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Param        date query string false "Single day (YYYY-MM-DD)"
// @Param        month query string false "Calendar month (YYYY-MM)"
// @Success      200 {object} APIResponse[settlementapp.AnalyticsResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}

	var q AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	query := settlementapp.AnalyticsQuery{VendorID: vendorID}
	switch {
	case q.Date != "":
		d, err := settlement.ParseDate(q.Date)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		query.Date = &d
	case q.Month != "":
		year, month, err := settlement.ParseMonth(q.Month)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		m := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		query.Month = &m
	}

	result, err := h.analytics.GetAnalytics(c.Request.Context(), query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// GetBalance godoc
// @ID           getVendorBalance
// @Summary      Get balance
// @Description  All-time total balance, total withdrawn and pending withdrawal
// @Tags         analytics
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Success      200 {object} APIResponse[settlement.BalanceSummary]
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/balance [get]
func (h *AnalyticsHandler) GetBalance(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}

	balance, err := h.balance.GetBalance(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, balance)
}
