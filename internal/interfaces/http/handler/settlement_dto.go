package handler

import (
	"encoding/json"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader lets clients retry a settlement request safely
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the Idempotency-Key header
const MaxIdempotencyKeyLength = 255

// RequestSettlementRequest is the body of a vendor payout request.
// Send either date or both period_start and period_end.
// @Description Request body for requesting a settlement
type RequestSettlementRequest struct {
	Date        string      `json:"date" binding:"omitempty,yyyymmdd" example:"2024-01-05"`
	PeriodStart string      `json:"period_start" binding:"omitempty,yyyymmdd" example:"2024-01-01"`
	PeriodEnd   string      `json:"period_end" binding:"omitempty,yyyymmdd" example:"2024-01-07"`
	Amount      json.Number `json:"amount" binding:"required,decimal" swaggertype:"string" example:"300.00"`
	Reason      string      `json:"reason" binding:"max=500" example:"Weekly payout"`
	RequestType string      `json:"request_type" binding:"omitempty,oneof=scheduled urgent" example:"scheduled"`
}

// ListSettlementsQuery holds the history filters
type ListSettlementsQuery struct {
	Page        int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Status      string `form:"status" binding:"omitempty,oneof=pending processing completed rejected"`
	RequestType string `form:"request_type" binding:"omitempty,oneof=scheduled urgent"`
	From        string `form:"from" binding:"omitempty,yyyymmdd" example:"2024-01-01"`
	To          string `form:"to" binding:"omitempty,yyyymmdd" example:"2024-01-31"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=requested_at period_start amount status processed_at"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CompleteSettlementRequest records the payout reference
// @Description Request body for completing a settlement
type CompleteSettlementRequest struct {
	PayoutReference string `json:"payout_reference" binding:"required,max=100" example:"PAY-2024-0042"`
}

// RejectSettlementRequest records why a settlement was rejected
// @Description Request body for rejecting a settlement
type RejectSettlementRequest struct {
	Reason string `json:"reason" binding:"required,max=500" example:"Account closed"`
}

// BankDetailsResponse is the payout account snapshot with the number masked
type BankDetailsResponse struct {
	AccountName   string `json:"account_name" example:"Sunrise Charging Ltd"`
	AccountNumber string `json:"account_number" example:"******7890"`
	BankName      string `json:"bank_name" example:"First National"`
	RoutingCode   string `json:"routing_code,omitempty"`
}

// SettlementResponse represents a settlement in API responses
// @Description Settlement record
type SettlementResponse struct {
	ID              uuid.UUID           `json:"id"`
	VendorID        uuid.UUID           `json:"vendor_id"`
	Amount          decimal.Decimal     `json:"amount" swaggertype:"string" example:"300.00"`
	Status          string              `json:"status" example:"pending"`
	PeriodStart     string              `json:"period_start" example:"2024-01-05"`
	PeriodEnd       string              `json:"period_end" example:"2024-01-05"`
	TransactionIDs  []uuid.UUID         `json:"transaction_ids"`
	OrderIDs        []uuid.UUID         `json:"order_ids"`
	RequestedAt     time.Time           `json:"requested_at"`
	RequestType     string              `json:"request_type" example:"scheduled"`
	Reason          string              `json:"reason,omitempty"`
	BankDetails     BankDetailsResponse `json:"bank_details"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	PayoutReference string              `json:"payout_reference,omitempty"`
	ProcessedAt     *time.Time          `json:"processed_at,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	RejectedAt      *time.Time          `json:"rejected_at,omitempty"`
	Version         int                 `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ToSettlementResponse converts a domain settlement to its API shape
func ToSettlementResponse(s *settlement.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:             s.ID,
		VendorID:       s.VendorID,
		Amount:         s.Amount,
		Status:         string(s.Status),
		PeriodStart:    s.Period.Start.Format(settlement.DateLayout),
		PeriodEnd:      s.Period.End.Format(settlement.DateLayout),
		TransactionIDs: idList(s.TransactionIDs),
		OrderIDs:       idList(s.OrderIDs),
		RequestedAt:    s.RequestedAt,
		RequestType:    string(s.RequestType),
		Reason:         s.Reason,
		BankDetails: BankDetailsResponse{
			AccountName:   s.BankDetails.AccountName,
			AccountNumber: s.BankDetails.MaskedAccountNumber(),
			BankName:      s.BankDetails.BankName,
			RoutingCode:   s.BankDetails.RoutingCode,
		},
		RejectionReason: s.RejectionReason,
		PayoutReference: s.PayoutReference,
		ProcessedAt:     s.ProcessedAt,
		CompletedAt:     s.CompletedAt,
		RejectedAt:      s.RejectedAt,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// ToSettlementResponses converts a page of settlements
func ToSettlementResponses(items []settlement.Settlement) []SettlementResponse {
	out := make([]SettlementResponse, len(items))
	for i := range items {
		out[i] = ToSettlementResponse(&items[i])
	}
	return out
}

func idList(ids settlement.IDSet) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return []uuid.UUID(ids)
}

// HoldResponse describes a vendor's consistency hold
// @Description Settlement hold placed after a consistency violation
type HoldResponse struct {
	VendorID       uuid.UUID   `json:"vendor_id"`
	Reason         string      `json:"reason" example:"transaction referenced by two active settlements"`
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
	DetectedAt     time.Time   `json:"detected_at"`
}

// ToHoldResponse converts a domain hold
func ToHoldResponse(h *settlement.Hold) HoldResponse {
	return HoldResponse{
		VendorID:       h.VendorID,
		Reason:         h.Reason,
		TransactionIDs: idList(h.TransactionIDs),
		DetectedAt:     h.DetectedAt,
	}
}
