package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBank = settlement.BankDetails{AccountName: "Volt Cafe", AccountNumber: "000123456789", BankName: "First Bank"}

func newTestSettlement(t *testing.T, vendorID uuid.UUID, startDay, endDay int, amount string) *settlement.Settlement {
	t.Helper()
	period, err := settlement.NewPeriod(day(startDay, 0), day(endDay, 0))
	require.NoError(t, err)
	tx := completedTx(vendorID, settlement.KindCharging, amount, day(startDay, 10))
	tx.ID = uuid.New()
	s, err := settlement.NewSettlement(vendorID, period, decimal.RequireFromString(amount),
		settlement.RequestTypeScheduled, "", testBank, []settlement.Transaction{tx})
	require.NoError(t, err)
	return s
}

func TestGormSettlementRepository_CreateAndFind(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormSettlementRepository(db)
	ctx := context.Background()
	vendorID := uuid.New()

	s := newTestSettlement(t, vendorID, 1, 15, "300.00")
	require.NoError(t, repo.Create(ctx, s))

	found, err := repo.FindByIDForVendor(ctx, vendorID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusPending, found.Status)
	assert.True(t, s.Amount.Equal(found.Amount))
	assert.Equal(t, s.Period, found.Period)
	assert.Equal(t, s.TransactionIDs, found.TransactionIDs)
	assert.Empty(t, found.OrderIDs)
	assert.Equal(t, testBank, found.BankDetails)
	assert.Equal(t, 1, found.Version)

	_, err = repo.FindByIDForVendor(ctx, uuid.New(), s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, settlement.ErrSettlementNotFound)
}

func TestGormSettlementRepository_SaveWithLock(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormSettlementRepository(db)
	ctx := context.Background()
	vendorID := uuid.New()

	s := newTestSettlement(t, vendorID, 1, 15, "300.00")
	require.NoError(t, repo.Create(ctx, s))

	stale, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, s.MarkProcessing())
	require.NoError(t, repo.SaveWithLock(ctx, s))

	require.NoError(t, stale.Reject("bank account closed"))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), settlement.ErrSettlementConcurrency)

	found, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusProcessing, found.Status)
	assert.Equal(t, 2, found.Version)
	assert.NotNil(t, found.ProcessedAt)
}

func TestGormSettlementRepository_ListAndSum(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormSettlementRepository(db)
	ctx := context.Background()
	vendorID := uuid.New()

	january := newTestSettlement(t, vendorID, 1, 10, "100.00")
	january.RequestedAt = day(11, 0)
	mid := newTestSettlement(t, vendorID, 11, 20, "200.00")
	mid.RequestedAt = day(21, 0)
	late := newTestSettlement(t, vendorID, 21, 31, "300.00")
	late.RequestedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []*settlement.Settlement{january, mid, late} {
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.Create(ctx, newTestSettlement(t, uuid.New(), 1, 31, "999.00")))

	require.NoError(t, january.MarkProcessing())
	require.NoError(t, repo.SaveWithLock(ctx, january))
	require.NoError(t, january.Complete("PAY-1"))
	require.NoError(t, repo.SaveWithLock(ctx, january))

	require.NoError(t, mid.Reject("duplicate"))
	require.NoError(t, repo.SaveWithLock(ctx, mid))

	t.Run("active", func(t *testing.T) {
		active, err := repo.ListActive(ctx, vendorID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, late.ID, active[0].ID)
	})

	t.Run("all by vendor oldest first", func(t *testing.T) {
		all, err := repo.ListByVendor(ctx, vendorID)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, january.ID, all[0].ID)
	})

	t.Run("page newest first", func(t *testing.T) {
		items, total, err := repo.List(ctx, vendorID, settlement.SettlementFilter{
			Filter: shared.Filter{Page: 1, PageSize: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, items, 2)
		assert.Equal(t, late.ID, items[0].ID)
		assert.Equal(t, mid.ID, items[1].ID)
	})

	t.Run("page sorted by amount ascending", func(t *testing.T) {
		items, _, err := repo.List(ctx, vendorID, settlement.SettlementFilter{
			Filter: shared.Filter{Page: 1, PageSize: 3, OrderBy: "amount", OrderDir: "asc"},
		})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, []uuid.UUID{january.ID, mid.ID, late.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})
	})

	t.Run("unknown sort column falls back to requested_at", func(t *testing.T) {
		items, _, err := repo.List(ctx, vendorID, settlement.SettlementFilter{
			Filter: shared.Filter{Page: 1, PageSize: 1, OrderBy: "amount; DROP TABLE settlements"},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, late.ID, items[0].ID)
	})

	t.Run("find by ids across vendors", func(t *testing.T) {
		found, err := repo.FindByIDs(ctx, []uuid.UUID{january.ID, uuid.New(), late.ID})
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(found))
		for _, s := range found {
			ids = append(ids, s.ID)
		}
		assert.ElementsMatch(t, []uuid.UUID{january.ID, late.ID}, ids)

		found, err = repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("filters", func(t *testing.T) {
		status := settlement.StatusCompleted
		items, total, err := repo.List(ctx, vendorID, settlement.SettlementFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "PAY-1", items[0].PayoutReference)

		from, to := day(15, 0), day(22, 0)
		_, total, err = repo.List(ctx, vendorID, settlement.SettlementFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("sum completed", func(t *testing.T) {
		sum, err := repo.SumCompletedAmount(ctx, vendorID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("100").Equal(sum), sum.String())

		sum, err = repo.SumCompletedAmount(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})
}

func TestGormHoldRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormHoldRepository(db)
	ctx := context.Background()
	vendorID := uuid.New()

	hold, err := repo.Find(ctx, vendorID)
	require.NoError(t, err)
	assert.Nil(t, hold)

	first := settlement.NewHold(vendorID, "first", []uuid.UUID{uuid.New()})
	require.NoError(t, repo.Place(ctx, first))
	require.NoError(t, repo.Place(ctx, settlement.NewHold(vendorID, "second", nil)))

	hold, err = repo.Find(ctx, vendorID)
	require.NoError(t, err)
	require.NotNil(t, hold)
	assert.Equal(t, "first", hold.Reason)
	assert.Equal(t, first.TransactionIDs, hold.TransactionIDs)

	released, err := repo.Release(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = repo.Release(ctx, vendorID)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestGormVendorRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormVendorRepository(db)
	ctx := context.Background()

	profile, err := repo.FindProfile(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, profile)

	withBank := &settlement.VendorProfile{ID: uuid.New(), Name: "Volt Cafe", Timezone: "Asia/Kolkata", BankDetails: &testBank}
	noBank := &settlement.VendorProfile{ID: uuid.New(), Name: "Plug Diner"}
	require.NoError(t, repo.Save(ctx, withBank))
	require.NoError(t, repo.Save(ctx, noBank))

	found, err := repo.FindProfile(ctx, withBank.ID)
	require.NoError(t, err)
	require.NotNil(t, found.BankDetails)
	assert.Equal(t, testBank, *found.BankDetails)
	assert.Equal(t, "Asia/Kolkata", found.Location(time.UTC).String())

	found, err = repo.FindProfile(ctx, noBank.ID)
	require.NoError(t, err)
	assert.Nil(t, found.BankDetails)
	assert.Equal(t, time.UTC, found.Location(time.UTC))

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{withBank.ID, noBank.ID}, ids)
}
