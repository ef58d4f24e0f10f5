// Package memory provides an in-memory storage backend with the same
// transactional contract as the Postgres one: exclusive access with a
// bounded wait surfacing as Busy, and full rollback on error via
// copy-on-begin snapshots. Used by tests and local development.
package memory

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/material"
	"lotledger/internal/domain/production"
)

// DefaultLockWait bounds how long a transaction waits for the store.
const DefaultLockWait = 500 * time.Millisecond

type txKey struct{}

// Store holds all entity tables behind a single exclusive latch.
// One latch instead of per-row locks keeps the model trivially
// deadlock-free while preserving the Busy semantics of the Postgres
// lock_timeout.
type Store struct {
	sem      chan struct{}
	lockWait time.Duration

	materials map[id.ID]*material.Material
	batches   map[id.ID]*batch.Batch
	entries   map[id.ID]*ledger.ConsumptionEntry
	orders    map[id.ID]*production.Order
}

// NewStore creates an empty store with the default lock wait.
func NewStore() *Store {
	return NewStoreWithLockWait(DefaultLockWait)
}

// NewStoreWithLockWait creates an empty store with a custom lock wait,
// useful for tests that provoke Busy quickly.
func NewStoreWithLockWait(wait time.Duration) *Store {
	return &Store{
		sem:       make(chan struct{}, 1),
		lockWait:  wait,
		materials: make(map[id.ID]*material.Material),
		batches:   make(map[id.ID]*batch.Batch),
		entries:   make(map[id.ID]*ledger.ConsumptionEntry),
		orders:    make(map[id.ID]*production.Order),
	}
}

// acquire takes the store latch unless ctx already holds it.
// Returns a release func (no-op when nested) or Busy on wait timeout.
func (s *Store) acquire(ctx context.Context) (func(), error) {
	if inTx(ctx) {
		return func() {}, nil
	}

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, apperror.NewBusy("memory store")
	}
}

func inTx(ctx context.Context) bool {
	held, _ := ctx.Value(txKey{}).(bool)
	return held
}

type snapshot struct {
	materials map[id.ID]*material.Material
	batches   map[id.ID]*batch.Batch
	entries   map[id.ID]*ledger.ConsumptionEntry
	orders    map[id.ID]*production.Order
}

func (s *Store) takeSnapshot() snapshot {
	snap := snapshot{
		materials: make(map[id.ID]*material.Material, len(s.materials)),
		batches:   make(map[id.ID]*batch.Batch, len(s.batches)),
		entries:   make(map[id.ID]*ledger.ConsumptionEntry, len(s.entries)),
		orders:    make(map[id.ID]*production.Order, len(s.orders)),
	}
	for k, v := range s.materials {
		snap.materials[k] = cloneMaterial(v)
	}
	for k, v := range s.batches {
		snap.batches[k] = cloneBatch(v)
	}
	for k, v := range s.entries {
		snap.entries[k] = cloneEntry(v)
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.materials = snap.materials
	s.batches = snap.batches
	s.entries = snap.entries
	s.orders = snap.orders
}

// TxManager implements tx.Manager over the store latch.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction acquires the store exclusively, snapshots all tables
// and runs fn. On error every table is restored, so partial mutations
// are never observable. Nested calls join the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	release, err := m.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	snap := m.store.takeSnapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// ReadOnly runs fn under the latch without snapshotting.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	release, err := m.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(context.WithValue(ctx, txKey{}, true))
}

// --- clone helpers ---
// Shallow struct copies are enough: pointer fields are treated as
// immutable by the domain (mutations assign fresh pointers).

func cloneMaterial(m *material.Material) *material.Material {
	c := *m
	return &c
}

func cloneBatch(b *batch.Batch) *batch.Batch {
	c := *b
	return &c
}

func cloneEntry(e *ledger.ConsumptionEntry) *ledger.ConsumptionEntry {
	c := *e
	return &c
}

func cloneOrder(o *production.Order) *production.Order {
	c := *o
	c.Entries = make([]ledger.ConsumptionRequest, len(o.Entries))
	copy(c.Entries, o.Entries)
	return &c
}
