package persistence

import (
	"context"
	"database/sql"
	"encoding/binary"
	"sync"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/event"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

// GormUnitOfWork serializes settlement writes per vendor.
//
// Within one process writers for the same vendor queue on a keyed semaphore and
// give up when their context ends. Across
// processes they meet at a transaction-scoped postgres advisory lock, and the
// transaction runs at SERIALIZABLE so a lost race surfaces as SQLSTATE 40001,
// reported as a retryable TransientError.
type GormUnitOfWork struct {
	db       *gorm.DB
	recorder *event.OutboxRecorder
	locks    *vendorLocks
}

// NewGormUnitOfWork creates a unit of work. Events recorded through the
// repositories land in the outbox of the same transaction.
func NewGormUnitOfWork(db *gorm.DB, recorder *event.OutboxRecorder) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, recorder: recorder, locks: newVendorLocks()}
}

// WithinVendorLock runs fn in a transaction holding the vendor's settlement lock
func (u *GormUnitOfWork) WithinVendorLock(ctx context.Context, vendorID uuid.UUID, fn func(ctx context.Context, repos settlement.Repositories) error) error {
	unlock, err := u.locks.lock(ctx, vendorID)
	if err != nil {
		return settlement.NewTransientStorageError("wait for vendor lock", err)
	}
	defer unlock()

	postgres := u.db.Dialector.Name() == "postgres"
	var opts []*sql.TxOptions
	if postgres {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if postgres {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", AdvisoryLockKey(vendorID)).Error; err != nil {
				return err
			}
		}
		return fn(ctx, u.repositories(tx))
	}, opts...)
	return translateError("settlement transaction", err)
}

func (u *GormUnitOfWork) repositories(tx *gorm.DB) settlement.Repositories {
	repos := settlement.Repositories{
		Transactions: NewGormTransactionRepository(tx),
		Settlements:  NewGormSettlementRepository(tx),
		Holds:        NewGormHoldRepository(tx),
	}
	if u.recorder != nil {
		repos.Events = u.recorder.WithTx(tx)
	}
	return repos
}

// NewRepositories returns repositories for reads outside a unit of work
func NewRepositories(db *gorm.DB, recorder *event.OutboxRecorder) settlement.Repositories {
	return (&GormUnitOfWork{db: db, recorder: recorder}).repositories(db)
}

// AdvisoryLockKey derives the bigint advisory lock key of a vendor
func AdvisoryLockKey(vendorID uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(vendorID[:8]))
}

// vendorLocks is a set of per-vendor single-slot semaphores that are dropped once unused
type vendorLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*vendorLock
}

type vendorLock struct {
	sem     *semaphore.Weighted
	waiters int
}

func newVendorLocks() *vendorLocks {
	return &vendorLocks{locks: make(map[uuid.UUID]*vendorLock)}
}

// lock waits for the vendor's slot until ctx ends
func (v *vendorLocks) lock(ctx context.Context, vendorID uuid.UUID) (func(), error) {
	v.mu.Lock()
	l, ok := v.locks[vendorID]
	if !ok {
		l = &vendorLock{sem: semaphore.NewWeighted(1)}
		v.locks[vendorID] = l
	}
	l.waiters++
	v.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		v.release(vendorID, l)
		return nil, err
	}
	return func() {
		l.sem.Release(1)
		v.release(vendorID, l)
	}, nil
}

func (v *vendorLocks) release(vendorID uuid.UUID, l *vendorLock) {
	v.mu.Lock()
	defer v.mu.Unlock()
	l.waiters--
	if l.waiters == 0 {
		delete(v.locks, vendorID)
	}
}

var _ settlement.UnitOfWork = (*GormUnitOfWork)(nil)
