package handler

import (
	"net/http"
	"testing"
	"time"

	settlementapp "github.com/evmarket/backend/internal/application/settlement"
	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/interfaces/http/dto"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminMocks struct {
	lifecycle *MockLifecycle
	holds     *MockHolds
	auditor   *MockAuditor
}

func newAdminEngine() (*gin.Engine, adminMocks) {
	m := adminMocks{lifecycle: new(MockLifecycle), holds: new(MockHolds), auditor: new(MockAuditor)}
	h := NewSettlementAdminHandler(m.lifecycle, m.holds, m.auditor)

	engine := newEngine()
	lifecycle := engine.Group("/settlements/:id", middleware.RequireAdmin())
	lifecycle.POST("/processing", h.MarkProcessing)
	lifecycle.POST("/complete", h.Complete)
	lifecycle.POST("/reject", h.Reject)

	vendors := engine.Group("/vendors/:vendor_id", middleware.VendorScope(), middleware.RequireAdmin())
	vendors.GET("/settlement-hold", h.GetHold)
	vendors.DELETE("/settlement-hold", h.ReleaseHold)
	vendors.GET("/settlements/audit", h.Audit)
	return engine, m
}

func TestSettlementAdminHandler_Lifecycle(t *testing.T) {
	vendorID := uuid.New()

	t.Run("mark processing", func(t *testing.T) {
		engine, m := newAdminEngine()
		st := sampleSettlement(t, vendorID)
		require.NoError(t, st.MarkProcessing())
		m.lifecycle.On("MarkProcessing", ctxArg, st.ID).Return(st, nil)

		w := doRequest(engine, http.MethodPost, "/settlements/"+st.ID.String()+"/processing", nil, nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeData[SettlementResponse](t, w)
		assert.Equal(t, "processing", resp.Status)
		assert.NotNil(t, resp.ProcessedAt)
	})

	t.Run("complete records the payout reference", func(t *testing.T) {
		engine, m := newAdminEngine()
		st := sampleSettlement(t, vendorID)
		require.NoError(t, st.MarkProcessing())
		require.NoError(t, st.Complete("PAY-0042"))
		m.lifecycle.On("Complete", ctxArg, st.ID, "PAY-0042").Return(st, nil)

		w := doRequest(engine, http.MethodPost, "/settlements/"+st.ID.String()+"/complete",
			map[string]any{"payout_reference": "PAY-0042"}, nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeData[SettlementResponse](t, w)
		assert.Equal(t, "completed", resp.Status)
		assert.Equal(t, "PAY-0042", resp.PayoutReference)
	})

	t.Run("complete requires a payout reference", func(t *testing.T) {
		engine, m := newAdminEngine()
		w := doRequest(engine, http.MethodPost, "/settlements/"+uuid.New().String()+"/complete", map[string]any{}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		require.NotEmpty(t, env.Error.Details)
		assert.Equal(t, "payout_reference", env.Error.Details[0].Field)
		m.lifecycle.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reject passes the reason", func(t *testing.T) {
		engine, m := newAdminEngine()
		st := sampleSettlement(t, vendorID)
		require.NoError(t, st.Reject("account closed"))
		m.lifecycle.On("Reject", ctxArg, st.ID, "account closed").Return(st, nil)

		w := doRequest(engine, http.MethodPost, "/settlements/"+st.ID.String()+"/reject",
			map[string]any{"reason": "account closed"}, nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeData[SettlementResponse](t, w)
		assert.Equal(t, "rejected", resp.Status)
		assert.Equal(t, "account closed", resp.RejectionReason)
	})

	t.Run("illegal transition is a conflict", func(t *testing.T) {
		engine, m := newAdminEngine()
		id := uuid.New()
		m.lifecycle.On("Reject", ctxArg, id, "late").Return(nil, settlement.ErrIllegalTransition)

		w := doRequest(engine, http.MethodPost, "/settlements/"+id.String()+"/reject", map[string]any{"reason": "late"}, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, decode(t, w).Error.Code)
	})

	t.Run("concurrent modification is a conflict", func(t *testing.T) {
		engine, m := newAdminEngine()
		id := uuid.New()
		m.lifecycle.On("MarkProcessing", ctxArg, id).Return(nil, settlement.ErrSettlementConcurrency)

		w := doRequest(engine, http.MethodPost, "/settlements/"+id.String()+"/processing", nil, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConcurrencyConflict, decode(t, w).Error.Code)
	})

	t.Run("malformed settlement id", func(t *testing.T) {
		engine, _ := newAdminEngine()
		w := doRequest(engine, http.MethodPost, "/settlements/xyz/processing", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettlementAdminHandler_Holds(t *testing.T) {
	vendorID := uuid.New()
	path := "/vendors/" + vendorID.String() + "/settlement-hold"

	t.Run("get hold", func(t *testing.T) {
		engine, m := newAdminEngine()
		txID := uuid.New()
		hold := settlement.NewHold(vendorID, "transaction referenced by two active settlements", settlement.IDSet{txID})
		m.holds.On("GetHold", ctxArg, vendorID).Return(hold, nil)

		w := doRequest(engine, http.MethodGet, path, nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeData[HoldResponse](t, w)
		assert.Equal(t, vendorID, resp.VendorID)
		assert.Equal(t, []uuid.UUID{txID}, resp.TransactionIDs)
		assert.WithinDuration(t, time.Now(), resp.DetectedAt, time.Minute)
	})

	t.Run("no hold is not found", func(t *testing.T) {
		engine, m := newAdminEngine()
		m.holds.On("GetHold", ctxArg, vendorID).Return(nil, settlementapp.ErrNoHold)

		w := doRequest(engine, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("release records the actor", func(t *testing.T) {
		engine, m := newAdminEngine()
		m.holds.On("ReleaseHold", ctxArg, vendorID, "anonymous").Return(nil)

		w := doRequest(engine, http.MethodDelete, path, nil, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		m.holds.AssertExpectations(t)
	})

	t.Run("release without hold", func(t *testing.T) {
		engine, m := newAdminEngine()
		m.holds.On("ReleaseHold", ctxArg, vendorID, mock.Anything).Return(settlementapp.ErrNoHold)

		w := doRequest(engine, http.MethodDelete, path, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSettlementAdminHandler_Audit(t *testing.T) {
	vendorID := uuid.New()
	engine, m := newAdminEngine()
	settlementID := uuid.New()
	m.auditor.On("AuditVendor", ctxArg, vendorID).Return(&settlement.AuditReport{
		VendorID:           vendorID,
		SettlementsChecked: 3,
		Discrepancies: []settlement.Discrepancy{{
			Type:         settlement.DiscrepancyAmountDrift,
			SettlementID: settlementID,
			LedgerAmount: decimal.NewFromInt(275),
			Difference:   decimal.NewFromInt(-25),
		}},
	}, nil)

	w := doRequest(engine, http.MethodGet, "/vendors/"+vendorID.String()+"/settlements/audit", nil, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decodeData[settlement.AuditReport](t, w)
	assert.Equal(t, 3, report.SettlementsChecked)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, settlementID, report.Discrepancies[0].SettlementID)
}
