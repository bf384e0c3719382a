package settlement_test

import (
	"errors"
	"testing"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettlement(t *testing.T) {
	vendorID := uuid.New()
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	charging := completedTx(vendorID, settlement.KindCharging, "200", at)
	food := completedTx(vendorID, settlement.KindFood, "105", at)

	s, err := settlement.NewSettlement(vendorID, settlement.DayPeriod(at), dec("300"), "", "weekly payout", bankDetails(),
		[]settlement.Transaction{charging, food})
	require.NoError(t, err)

	assert.Equal(t, settlement.StatusPending, s.Status)
	assert.Equal(t, settlement.RequestTypeScheduled, s.RequestType)
	assert.Equal(t, vendorID, s.VendorID)
	assert.True(t, dec("300").Equal(s.Amount))
	assert.Equal(t, settlement.IDSet{charging.ID}, s.TransactionIDs)
	assert.Equal(t, settlement.IDSet{food.ID}, s.OrderIDs)
	assert.Equal(t, 1, s.Version)
	assert.Equal(t, "001234567890", s.BankDetails.AccountNumber)

	events := s.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, settlement.EventTypeSettlementRequested, events[0].EventType())
	assert.Equal(t, vendorID, events[0].VendorID())
}

func TestNewSettlement_Rejections(t *testing.T) {
	vendorID := uuid.New()
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	tx := completedTx(vendorID, settlement.KindCharging, "100", at)
	period := settlement.DayPeriod(at)

	_, err := settlement.NewSettlement(vendorID, period, dec("95"), settlement.RequestTypeUrgent, "", bankDetails(), nil)
	assert.ErrorIs(t, err, settlement.ErrNoEligible)

	_, err = settlement.NewSettlement(vendorID, period, dec("95"), settlement.RequestTypeUrgent, "", settlement.BankDetails{}, []settlement.Transaction{tx})
	assert.ErrorIs(t, err, settlement.ErrMissingBankDetails)
	expected, ok := settlement.ExpectedAmountOf(err)
	assert.True(t, ok)
	assert.True(t, dec("95").Equal(expected))

	_, err = settlement.NewSettlement(vendorID, period, dec("95"), "asap", "", bankDetails(), []settlement.Transaction{tx})
	assert.ErrorIs(t, err, settlement.ErrValidation)

	foreign := completedTx(uuid.New(), settlement.KindCharging, "100", at)
	_, err = settlement.NewSettlement(vendorID, period, dec("95"), settlement.RequestTypeUrgent, "", bankDetails(), []settlement.Transaction{foreign})
	assert.ErrorIs(t, err, settlement.ErrConsistencyViolation)
}

func TestSettlement_Lifecycle(t *testing.T) {
	vendorID := uuid.New()
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

	t.Run("pending to processing to completed", func(t *testing.T) {
		s := newSettlement(t, vendorID, settlement.DayPeriod(at), completedTx(vendorID, settlement.KindCharging, "100", at))
		s.ClearDomainEvents()

		require.NoError(t, s.MarkProcessing())
		assert.Equal(t, settlement.StatusProcessing, s.Status)
		assert.NotNil(t, s.ProcessedAt)
		assert.Equal(t, 2, s.Version)

		require.NoError(t, s.Complete("WIRE-123"))
		assert.Equal(t, settlement.StatusCompleted, s.Status)
		assert.Equal(t, "WIRE-123", s.PayoutReference)
		assert.NotNil(t, s.CompletedAt)
		assert.False(t, s.IsActive())

		events := s.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, settlement.EventTypeSettlementProcessing, events[0].EventType())
		assert.Equal(t, settlement.EventTypeSettlementCompleted, events[1].EventType())
	})

	t.Run("pending cannot complete directly", func(t *testing.T) {
		s := newSettlement(t, vendorID, settlement.DayPeriod(at), completedTx(vendorID, settlement.KindCharging, "100", at))
		err := s.Complete("WIRE-1")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, settlement.StatusPending, s.Status)
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		s := newSettlement(t, vendorID, settlement.DayPeriod(at), completedTx(vendorID, settlement.KindCharging, "100", at))
		assert.ErrorIs(t, s.Reject("  "), settlement.ErrValidation)
		require.NoError(t, s.Reject("account closed"))
		assert.Equal(t, settlement.StatusRejected, s.Status)
		assert.Equal(t, "account closed", s.RejectionReason)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		s := newSettlement(t, vendorID, settlement.DayPeriod(at), completedTx(vendorID, settlement.KindCharging, "100", at))
		require.NoError(t, s.Reject("duplicate"))
		assert.True(t, errors.Is(s.MarkProcessing(), shared.ErrInvalidState))
		assert.True(t, errors.Is(s.Reject("again"), shared.ErrInvalidState))
	})
}

func TestSettlement_ConflictsWith(t *testing.T) {
	vendorID := uuid.New()
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	s := newSettlement(t, vendorID, settlement.DayPeriod(at), completedTx(vendorID, settlement.KindCharging, "100", at))
	wide, _ := settlement.NewPeriod(date(2024, 1, 1), date(2024, 1, 10))
	later, _ := settlement.NewPeriod(date(2024, 1, 6), date(2024, 1, 10))

	assert.True(t, s.ConflictsWith(wide))
	assert.False(t, s.ConflictsWith(later))

	require.NoError(t, s.Reject("wrong account"))
	assert.False(t, s.ConflictsWith(wide))
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, settlement.StatusPending.CanTransitionTo(settlement.StatusProcessing))
	assert.True(t, settlement.StatusPending.CanTransitionTo(settlement.StatusRejected))
	assert.False(t, settlement.StatusPending.CanTransitionTo(settlement.StatusCompleted))
	assert.True(t, settlement.StatusProcessing.CanTransitionTo(settlement.StatusCompleted))
	assert.True(t, settlement.StatusProcessing.CanTransitionTo(settlement.StatusRejected))
	assert.False(t, settlement.StatusCompleted.CanTransitionTo(settlement.StatusRejected))
	assert.False(t, settlement.StatusRejected.CanTransitionTo(settlement.StatusPending))
}

func TestTransaction_IsClaimable(t *testing.T) {
	at := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	tx := completedTx(uuid.New(), settlement.KindCharging, "100", at)
	assert.True(t, tx.IsClaimable())

	tx.SettlementStatus = settlement.SettlementStatusIncluded
	assert.False(t, tx.IsClaimable())

	released := completedTx(uuid.New(), settlement.KindCharging, "100", at)
	previous := uuid.New()
	released.SettlementID = &previous
	assert.True(t, released.IsClaimable(), "a back-reference to a rejected settlement does not block a new claim")

	open := completedTx(uuid.New(), settlement.KindFood, "10", at)
	open.Status = settlement.TransactionStatusActive
	assert.False(t, open.IsClaimable())
}

func TestBankDetails(t *testing.T) {
	b := bankDetails()
	assert.True(t, b.IsComplete())
	assert.Equal(t, "********7890", b.MaskedAccountNumber())

	var missing *settlement.BankDetails
	assert.False(t, missing.IsComplete())
	assert.False(t, (&settlement.BankDetails{AccountName: "x", AccountNumber: " "}).IsComplete())

	raw, err := b.Value()
	require.NoError(t, err)
	var scanned settlement.BankDetails
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, b, scanned)
}

func TestIDSet_ScanValue(t *testing.T) {
	ids := settlement.IDSet{uuid.New(), uuid.New()}
	raw, err := ids.Value()
	require.NoError(t, err)

	var scanned settlement.IDSet
	require.NoError(t, scanned.Scan([]byte(raw.(string))))
	assert.Equal(t, ids, scanned)

	var nilSet settlement.IDSet
	raw, err = nilSet.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}
