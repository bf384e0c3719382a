package models

import (
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Table names of the two transaction kinds
const (
	ChargingSessionsTable = "charging_sessions"
	FoodOrdersTable       = "food_orders"
)

// TransactionTable returns the table holding transactions of kind
func TransactionTable(kind settlement.TransactionKind) string {
	if kind == settlement.KindFood {
		return FoodOrdersTable
	}
	return ChargingSessionsTable
}

// TransactionModel is the settlement view of a charging_sessions or food_orders row.
// It has no TableName; repositories select the table with TransactionTable.
// updated_at is owned by the booking and ordering flows, so GORM never touches it.
type TransactionModel struct {
	ID               uuid.UUID                     `gorm:"type:uuid;primary_key"`
	CreatedAt        time.Time                     `gorm:"not null;index"`
	UpdatedAt        time.Time                     `gorm:"not null;autoUpdateTime:false"`
	VendorID         uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Status           settlement.TransactionStatus  `gorm:"type:varchar(20);not null;index"`
	PaymentStatus    settlement.PaymentStatus      `gorm:"type:varchar(20);not null;default:'unpaid'"`
	GrossAmount      decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	MerchantAmount   *decimal.Decimal              `gorm:"type:decimal(18,2)"`
	CompletedAt      *time.Time                    `gorm:"index"`
	SettlementStatus settlement.SettlementStatus   `gorm:"type:varchar(30);not null;default:'pending';index"`
	SettlementID     *uuid.UUID                    `gorm:"type:uuid;index"`
	Adjustments      settlement.PaymentAdjustments `gorm:"type:jsonb;default:'[]'"`
	Version          int                           `gorm:"not null;default:1"`
}

// ToDomain converts the persistence model to a domain Transaction of kind
func (m *TransactionModel) ToDomain(kind settlement.TransactionKind) settlement.Transaction {
	return settlement.Transaction{
		ID:               m.ID,
		VendorID:         m.VendorID,
		Kind:             kind,
		Status:           m.Status,
		PaymentStatus:    m.PaymentStatus,
		GrossAmount:      m.GrossAmount,
		MerchantAmount:   m.MerchantAmount,
		CompletedAt:      m.CompletedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		SettlementStatus: m.SettlementStatus,
		SettlementID:     m.SettlementID,
		Adjustments:      m.Adjustments,
	}
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction
func TransactionModelFromDomain(tx *settlement.Transaction) *TransactionModel {
	m := &TransactionModel{
		ID:               tx.ID,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
		VendorID:         tx.VendorID,
		Status:           tx.Status,
		PaymentStatus:    tx.PaymentStatus,
		GrossAmount:      tx.GrossAmount,
		MerchantAmount:   tx.MerchantAmount,
		CompletedAt:      tx.CompletedAt,
		SettlementStatus: tx.RawSettlementStatus(),
		SettlementID:     tx.SettlementID,
		Adjustments:      tx.Adjustments,
	}
	if m.PaymentStatus == "" {
		m.PaymentStatus = settlement.PaymentStatusUnpaid
	}
	if m.Adjustments == nil {
		m.Adjustments = settlement.PaymentAdjustments{}
	}
	return m
}

// SettlementModel is the persistence model for the Settlement aggregate root
type SettlementModel struct {
	VendorAggregateModel
	Amount          decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Status          settlement.Status      `gorm:"type:varchar(20);not null;default:'pending';index"`
	PeriodStart     time.Time              `gorm:"type:date;not null"`
	PeriodEnd       time.Time              `gorm:"type:date;not null"`
	TransactionIDs  settlement.IDSet       `gorm:"type:jsonb;not null;default:'[]'"`
	OrderIDs        settlement.IDSet       `gorm:"type:jsonb;not null;default:'[]'"`
	RequestedAt     time.Time              `gorm:"not null"`
	RequestType     settlement.RequestType `gorm:"type:varchar(20);not null"`
	Reason          string                 `gorm:"type:text"`
	BankDetails     settlement.BankDetails `gorm:"type:jsonb;not null"`
	RejectionReason string                 `gorm:"type:text"`
	PayoutReference string                 `gorm:"type:varchar(100)"`
	ProcessedAt     *time.Time
	CompletedAt     *time.Time
	RejectedAt      *time.Time
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts the persistence model to a domain Settlement
func (m *SettlementModel) ToDomain() *settlement.Settlement {
	return &settlement.Settlement{
		VendorAggregateRoot: m.ToDomainVendorAggregateRoot(),
		Amount:              m.Amount,
		Status:              m.Status,
		Period:              settlement.Period{Start: settlement.CivilDate(m.PeriodStart), End: settlement.CivilDate(m.PeriodEnd)},
		TransactionIDs:      m.TransactionIDs,
		OrderIDs:            m.OrderIDs,
		RequestedAt:         m.RequestedAt,
		RequestType:         m.RequestType,
		Reason:              m.Reason,
		BankDetails:         m.BankDetails,
		RejectionReason:     m.RejectionReason,
		PayoutReference:     m.PayoutReference,
		ProcessedAt:         m.ProcessedAt,
		CompletedAt:         m.CompletedAt,
		RejectedAt:          m.RejectedAt,
	}
}

// FromDomain populates the persistence model from a domain Settlement
func (m *SettlementModel) FromDomain(s *settlement.Settlement) {
	m.FromDomainVendorAggregateRoot(s.VendorAggregateRoot)
	m.Amount = s.Amount
	m.Status = s.Status
	m.PeriodStart = s.Period.Start
	m.PeriodEnd = s.Period.End
	m.TransactionIDs = s.TransactionIDs
	m.OrderIDs = s.OrderIDs
	m.RequestedAt = s.RequestedAt
	m.RequestType = s.RequestType
	m.Reason = s.Reason
	m.BankDetails = s.BankDetails
	m.RejectionReason = s.RejectionReason
	m.PayoutReference = s.PayoutReference
	m.ProcessedAt = s.ProcessedAt
	m.CompletedAt = s.CompletedAt
	m.RejectedAt = s.RejectedAt
	if m.TransactionIDs == nil {
		m.TransactionIDs = settlement.IDSet{}
	}
	if m.OrderIDs == nil {
		m.OrderIDs = settlement.IDSet{}
	}
}

// SettlementModelFromDomain creates a new persistence model from a domain Settlement
func SettlementModelFromDomain(s *settlement.Settlement) *SettlementModel {
	m := &SettlementModel{}
	m.FromDomain(s)
	return m
}

// SettlementHoldModel is the persistence model for a consistency hold
type SettlementHoldModel struct {
	VendorID       uuid.UUID        `gorm:"type:uuid;primary_key"`
	Reason         string           `gorm:"type:text;not null"`
	TransactionIDs settlement.IDSet `gorm:"type:jsonb;not null;default:'[]'"`
	DetectedAt     time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettlementHoldModel) TableName() string {
	return "settlement_holds"
}

// ToDomain converts the persistence model to a domain Hold
func (m *SettlementHoldModel) ToDomain() *settlement.Hold {
	return &settlement.Hold{
		VendorID:       m.VendorID,
		Reason:         m.Reason,
		TransactionIDs: m.TransactionIDs,
		DetectedAt:     m.DetectedAt,
	}
}

// SettlementHoldModelFromDomain creates a persistence model from a domain Hold
func SettlementHoldModelFromDomain(h *settlement.Hold) *SettlementHoldModel {
	ids := h.TransactionIDs
	if ids == nil {
		ids = settlement.IDSet{}
	}
	return &SettlementHoldModel{
		VendorID:       h.VendorID,
		Reason:         h.Reason,
		TransactionIDs: ids,
		DetectedAt:     h.DetectedAt,
	}
}

// VendorModel is the settlement view of a vendor: reporting timezone and payout account
type VendorModel struct {
	BaseModel
	Name              string `gorm:"type:varchar(200);not null"`
	Timezone          string `gorm:"type:varchar(64)"`
	BankAccountName   string `gorm:"type:varchar(200)"`
	BankAccountNumber string `gorm:"type:varchar(64)"`
	BankName          string `gorm:"type:varchar(200)"`
	BankRoutingCode   string `gorm:"type:varchar(32)"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ToDomain converts the persistence model to a domain VendorProfile.
// BankDetails stays nil when no account number is on file.
func (m *VendorModel) ToDomain() *settlement.VendorProfile {
	profile := &settlement.VendorProfile{
		ID:       m.ID,
		Name:     m.Name,
		Timezone: m.Timezone,
	}
	if m.BankAccountNumber != "" {
		profile.BankDetails = &settlement.BankDetails{
			AccountName:   m.BankAccountName,
			AccountNumber: m.BankAccountNumber,
			BankName:      m.BankName,
			RoutingCode:   m.BankRoutingCode,
		}
	}
	return profile
}

// VendorModelFromDomain creates a persistence model from a domain VendorProfile
func VendorModelFromDomain(v *settlement.VendorProfile) *VendorModel {
	m := &VendorModel{Name: v.Name, Timezone: v.Timezone}
	m.ID = v.ID
	if v.BankDetails != nil {
		m.BankAccountName = v.BankDetails.AccountName
		m.BankAccountNumber = v.BankDetails.AccountNumber
		m.BankName = v.BankDetails.BankName
		m.BankRoutingCode = v.BankDetails.RoutingCode
	}
	return m
}
