package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLifecycleFixture(t *testing.T) (*workflowFixture, *LifecycleService, uuid.UUID) {
	t.Helper()
	f := newWorkflowFixture(t)
	created, err := f.request("2024-01-05", "300")
	require.NoError(t, err)
	return f, NewLifecycleService(f.ledger, (*memSettlements)(f.ledger), Config{}, nil), created.SettlementID
}

func TestLifecycleService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to processing to completed", func(t *testing.T) {
		f, svc, id := newLifecycleFixture(t)

		st, err := svc.MarkProcessing(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, settlement.StatusProcessing, st.Status)
		assert.NotNil(t, st.ProcessedAt)

		st, err = svc.Complete(ctx, id, "  PAY-0042 ")
		require.NoError(t, err)
		assert.Equal(t, settlement.StatusCompleted, st.Status)
		assert.Equal(t, "PAY-0042", st.PayoutReference)
		assert.Equal(t, 3, st.Version)

		stored := f.ledger.settlement(id)
		assert.Equal(t, settlement.StatusCompleted, stored.Status)
		// transactions keep their stored status; readers resolve them to settled
		assert.Equal(t, settlement.SettlementStatusIncluded, f.ledger.tx(f.food.ID).SettlementStatus)
		assert.Equal(t, []string{
			settlement.EventTypeSettlementRequested,
			settlement.EventTypeSettlementProcessing,
			settlement.EventTypeSettlementCompleted,
		}, f.ledger.recordedTypes())
	})

	t.Run("reject releases the claimed transactions", func(t *testing.T) {
		f, svc, id := newLifecycleFixture(t)
		_, err := svc.MarkProcessing(ctx, id)
		require.NoError(t, err)

		st, err := svc.Reject(ctx, id, "account closed")
		require.NoError(t, err)
		assert.Equal(t, settlement.StatusRejected, st.Status)
		assert.Equal(t, "account closed", st.RejectionReason)

		for _, txID := range []uuid.UUID{f.charging.ID, f.food.ID} {
			tx := f.ledger.tx(txID)
			assert.Equal(t, settlement.SettlementStatusPending, tx.SettlementStatus)
			require.NotNil(t, tx.SettlementID, "the rejected settlement stays as a back-reference")
			assert.Equal(t, id, *tx.SettlementID)
		}

		again, err := f.request("2024-01-05", "300")
		require.NoError(t, err, "released transactions can be claimed again")
		assert.NotEqual(t, id, again.SettlementID)
		tx := f.ledger.tx(f.food.ID)
		assert.Equal(t, again.SettlementID, *tx.SettlementID)
	})

	t.Run("illegal transitions leave no trace", func(t *testing.T) {
		f, svc, id := newLifecycleFixture(t)

		_, err := svc.Complete(ctx, id, "PAY-1")
		assert.ErrorIs(t, err, settlement.ErrIllegalTransition)

		_, err = svc.Reject(ctx, id, "no")
		require.NoError(t, err)
		_, err = svc.MarkProcessing(ctx, id)
		assert.ErrorIs(t, err, settlement.ErrIllegalTransition)
		_, err = svc.Reject(ctx, id, "again")
		assert.ErrorIs(t, err, settlement.ErrIllegalTransition)

		assert.Equal(t, settlement.StatusRejected, f.ledger.settlement(id).Status)
	})

	t.Run("reject and complete require their inputs", func(t *testing.T) {
		_, svc, id := newLifecycleFixture(t)

		_, err := svc.Reject(ctx, id, "  ")
		assert.ErrorIs(t, err, settlement.ErrValidation)
		_, err = svc.Complete(ctx, id, "")
		assert.ErrorIs(t, err, settlement.ErrValidation)
	})

	t.Run("unknown settlement", func(t *testing.T) {
		_, svc, _ := newLifecycleFixture(t)
		_, err := svc.MarkProcessing(ctx, uuid.New())
		assert.ErrorIs(t, err, settlement.ErrSettlementNotFound)
	})
}

func TestLifecycleService_ConcurrentModification(t *testing.T) {
	ledger := newMemLedger()
	vendorID := uuid.New()
	tx := completedFood(vendorID, "10", at("2024-01-05T10:00:00Z"))
	st, err := settlement.NewSettlement(vendorID, settlement.DayPeriod(date("2024-01-05")), dec("10"),
		settlement.RequestTypeScheduled, "", *testBank, []settlement.Transaction{tx})
	require.NoError(t, err)

	repo := new(MockSettlementRepository)
	repo.On("FindByID", mock.Anything, st.ID).Return(st, nil)
	repo.On("SaveWithLock", mock.Anything, mock.Anything).Return(settlement.ErrSettlementConcurrency)

	svc := NewLifecycleService(lockOnly{ledger, repo}, repo, Config{}, nil)
	_, err = svc.MarkProcessing(context.Background(), st.ID)
	assert.True(t, errors.Is(err, settlement.ErrSettlementConcurrency))
}

// lockOnly runs the unit of work with a custom settlement repository
type lockOnly struct {
	ledger      *memLedger
	settlements settlement.SettlementRepository
}

func (u lockOnly) WithinVendorLock(ctx context.Context, vendorID uuid.UUID, fn func(ctx context.Context, repos settlement.Repositories) error) error {
	return u.ledger.WithinVendorLock(ctx, vendorID, func(ctx context.Context, repos settlement.Repositories) error {
		repos.Settlements = u.settlements
		return fn(ctx, repos)
	})
}

func TestLifecycleService_BusyVendorTimesOut(t *testing.T) {
	f, _, id := newLifecycleFixture(t)
	svc := NewLifecycleService(f.ledger, (*memSettlements)(f.ledger), Config{QueryTimeout: 50 * time.Millisecond}, nil)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.ledger.WithinVendorLock(context.Background(), f.vendorID, func(context.Context, settlement.Repositories) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	start := time.Now()
	_, err := svc.MarkProcessing(context.Background(), id)
	elapsed := time.Since(start)
	close(release)
	<-done

	require.Error(t, err)
	assert.True(t, settlement.IsRetryable(err), "got %v", err)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, settlement.StatusPending, f.ledger.settlement(id).Status)
}
