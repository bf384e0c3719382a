package handler

import (
	"context"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementLifecycle drives settlements through payout processing
type SettlementLifecycle interface {
	MarkProcessing(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error)
	Complete(ctx context.Context, id uuid.UUID, payoutReference string) (*settlement.Settlement, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*settlement.Settlement, error)
}

// HoldAdmin inspects and lifts consistency holds
type HoldAdmin interface {
	GetHold(ctx context.Context, vendorID uuid.UUID) (*settlement.Hold, error)
	ReleaseHold(ctx context.Context, vendorID uuid.UUID, releasedBy string) error
}

// VendorAuditor recomputes a vendor's settlements against the ledger
type VendorAuditor interface {
	AuditVendor(ctx context.Context, vendorID uuid.UUID) (*settlement.AuditReport, error)
}

// SettlementAdminHandler serves the operator endpoints: payout lifecycle,
// consistency holds and the reconciliation audit.
type SettlementAdminHandler struct {
	BaseHandler
	lifecycle SettlementLifecycle
	holds     HoldAdmin
	auditor   VendorAuditor
}

// NewSettlementAdminHandler creates a new SettlementAdminHandler
func NewSettlementAdminHandler(lifecycle SettlementLifecycle, holds HoldAdmin, auditor VendorAuditor) *SettlementAdminHandler {
	return &SettlementAdminHandler{
		lifecycle: lifecycle,
		holds:     holds,
		auditor:   auditor,
	}
}

// MarkProcessing godoc
// @ID           markSettlementProcessing
// @Summary      Mark a settlement as processing
// @Tags         settlement-admin
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} APIResponse[SettlementResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements/{id}/processing [post]
func (h *SettlementAdminHandler) MarkProcessing(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	st, err := h.lifecycle.MarkProcessing(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToSettlementResponse(st))
}

// Complete godoc
// @ID           completeSettlement
// @Summary      Complete a settlement
// @Description  Records the payout reference; the settlement's transactions read as settled from then on
// @Tags         settlement-admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Param        request body CompleteSettlementRequest true "Payout reference"
// @Success      200 {object} APIResponse[SettlementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements/{id}/complete [post]
func (h *SettlementAdminHandler) Complete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CompleteSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	st, err := h.lifecycle.Complete(c.Request.Context(), id, req.PayoutReference)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToSettlementResponse(st))
}

// Reject godoc
// @ID           rejectSettlement
// @Summary      Reject a settlement
// @Description  Rejects a pending or processing settlement and releases its transactions for a new request
// @Tags         settlement-admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Param        request body RejectSettlementRequest true "Rejection reason"
// @Success      200 {object} APIResponse[SettlementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /settlements/{id}/reject [post]
func (h *SettlementAdminHandler) Reject(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req RejectSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	st, err := h.lifecycle.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToSettlementResponse(st))
}

// GetHold godoc
// @ID           getSettlementHold
// @Summary      Get the vendor's settlement hold
// @Tags         settlement-admin
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Success      200 {object} APIResponse[HoldResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/settlement-hold [get]
func (h *SettlementAdminHandler) GetHold(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}
	hold, err := h.holds.GetHold(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToHoldResponse(hold))
}

// ReleaseHold godoc
// @ID           releaseSettlementHold
// @Summary      Release the vendor's settlement hold
// @Description  Lifts the hold after manual reconciliation so the vendor can request settlements again
// @Tags         settlement-admin
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/settlement-hold [delete]
func (h *SettlementAdminHandler) ReleaseHold(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}
	if err := h.holds.ReleaseHold(c.Request.Context(), vendorID, middleware.GetActor(c)); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Audit godoc
// @ID           auditVendorSettlements
// @Summary      Audit the vendor's settlements
// @Description  Recomputes every active or completed settlement from the ledger and reports drift, missing transactions and double claims. Double claims place a settlement hold.
// @Tags         settlement-admin
// @Produce      json
// @Param        vendor_id path string true "Vendor ID" format(uuid)
// @Success      200 {object} APIResponse[settlement.AuditReport]
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /vendors/{vendor_id}/settlements/audit [get]
func (h *SettlementAdminHandler) Audit(c *gin.Context) {
	vendorID, ok := h.vendorID(c)
	if !ok {
		return
	}
	report, err := h.auditor.AuditVendor(c.Request.Context(), vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, report)
}
