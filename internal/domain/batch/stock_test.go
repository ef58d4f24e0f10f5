package batch_test

import (
	"context"
	"math/rand"
	"testing"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/infrastructure/storage/memory"
)

func newStockFixture(t *testing.T, total types.Quantity) (*memory.Store, *batch.Stock, id.ID) {
	t.Helper()

	store := memory.NewStore()
	repo := memory.NewBatchRepository(store)

	b := batch.NewBatch(id.New(), "LOT-001", total)
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	return store, batch.NewStock(repo), b.ID
}

func availableOf(t *testing.T, store *memory.Store, batchID id.ID) types.Quantity {
	t.Helper()

	b, err := memory.NewBatchRepository(store).GetByID(context.Background(), batchID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	return b.Available
}

func TestStock_ReserveCommit(t *testing.T) {
	store, stock, batchID := newStockFixture(t, types.NewQuantityFromFloat64(1000))
	txm := memory.NewTxManager(store)

	err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		d, err := stock.Reserve(ctx, batchID, types.NewQuantityFromFloat64(300))
		if err != nil {
			return err
		}
		return stock.Commit(ctx, d)
	})
	if err != nil {
		t.Fatalf("reserve+commit: %v", err)
	}

	if got, want := availableOf(t, store, batchID), types.NewQuantityFromFloat64(700); got != want {
		t.Errorf("available = %s, want %s", got, want)
	}
}

func TestStock_Reserve_InsufficientStock(t *testing.T) {
	store, stock, batchID := newStockFixture(t, types.NewQuantityFromFloat64(100))
	txm := memory.NewTxManager(store)

	err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := stock.Reserve(ctx, batchID, types.NewQuantityFromFloat64(100.5))
		return err
	})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("error = %v, want insufficient stock", err)
	}

	appErr, _ := apperror.AsAppError(err)
	if appErr.Details["available"] != 100.0 {
		t.Errorf("available detail = %v, want 100", appErr.Details["available"])
	}

	if got, want := availableOf(t, store, batchID), types.NewQuantityFromFloat64(100); got != want {
		t.Errorf("available = %s, want %s (untouched)", got, want)
	}
}

func TestStock_Reserve_NonPositiveQuantity(t *testing.T) {
	store, stock, batchID := newStockFixture(t, types.NewQuantityFromFloat64(100))
	txm := memory.NewTxManager(store)

	for _, qty := range []types.Quantity{0, types.NewQuantityFromFloat64(-5)} {
		err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
			_, err := stock.Reserve(ctx, batchID, qty)
			return err
		})
		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code != apperror.CodeValidation {
			t.Errorf("qty %s: error = %v, want validation error", qty, err)
		}
	}
}

func TestStock_Commit_ExactlyOnce(t *testing.T) {
	store, stock, batchID := newStockFixture(t, types.NewQuantityFromFloat64(1000))
	txm := memory.NewTxManager(store)

	err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		d, err := stock.Reserve(ctx, batchID, types.NewQuantityFromFloat64(100))
		if err != nil {
			return err
		}
		if err := stock.Commit(ctx, d); err != nil {
			return err
		}

		err = stock.Commit(ctx, d)
		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code != apperror.CodeInvariantViolation {
			t.Errorf("second commit error = %v, want invariant violation", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	if got, want := availableOf(t, store, batchID), types.NewQuantityFromFloat64(900); got != want {
		t.Errorf("available = %s, want %s (single deduction)", got, want)
	}
}

func TestStock_Release(t *testing.T) {
	store, stock, batchID := newStockFixture(t, types.NewQuantityFromFloat64(1000))
	txm := memory.NewTxManager(store)

	err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		d, err := stock.Reserve(ctx, batchID, types.NewQuantityFromFloat64(400))
		if err != nil {
			return err
		}
		if err := stock.Commit(ctx, d); err != nil {
			return err
		}
		return stock.Release(ctx, batchID, types.NewQuantityFromFloat64(400))
	})
	if err != nil {
		t.Fatalf("deduct+release: %v", err)
	}

	if got, want := availableOf(t, store, batchID), types.NewQuantityFromFloat64(1000); got != want {
		t.Errorf("available = %s, want %s", got, want)
	}
}

func TestStock_Release_Overflow(t *testing.T) {
	store, stock, batchID := newStockFixture(t, types.NewQuantityFromFloat64(1000))
	txm := memory.NewTxManager(store)

	// Nothing was consumed, so any release would push available past total.
	err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return stock.Release(ctx, batchID, types.NewQuantityFromFloat64(1))
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeStockOverflow {
		t.Fatalf("error = %v, want stock overflow", err)
	}

	if got, want := availableOf(t, store, batchID), types.NewQuantityFromFloat64(1000); got != want {
		t.Errorf("available = %s, want %s (untouched)", got, want)
	}
}

// TestStock_InvariantUnderRandomOps runs a randomized sequence of reserve/
// commit/release operations and checks 0 <= available <= total after every
// step against an independent model.
func TestStock_InvariantUnderRandomOps(t *testing.T) {
	total := types.NewQuantityFromFloat64(10_000)
	store, stock, batchID := newStockFixture(t, total)
	txm := memory.NewTxManager(store)

	rng := rand.New(rand.NewSource(42))
	modelAvailable := total

	for i := 0; i < 500; i++ {
		qty := types.NewQuantityFromFloat64(float64(rng.Intn(3000) + 1))
		deduct := rng.Intn(2) == 0

		err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
			if deduct {
				d, err := stock.Reserve(ctx, batchID, qty)
				if err != nil {
					return err
				}
				return stock.Commit(ctx, d)
			}
			return stock.Release(ctx, batchID, qty)
		})

		if err == nil {
			if deduct {
				modelAvailable -= qty
			} else {
				modelAvailable += qty
			}
		} else {
			// Only the two boundary rejections are acceptable.
			if deduct && !apperror.IsInsufficientStock(err) {
				t.Fatalf("step %d: deduct error = %v", i, err)
			}
			if !deduct {
				appErr, ok := apperror.AsAppError(err)
				if !ok || appErr.Code != apperror.CodeStockOverflow {
					t.Fatalf("step %d: release error = %v", i, err)
				}
			}
		}

		got := availableOf(t, store, batchID)
		if got != modelAvailable {
			t.Fatalf("step %d: available = %s, model = %s", i, got, modelAvailable)
		}
		if got.IsNegative() || got > total {
			t.Fatalf("step %d: invariant violated, available = %s", i, got)
		}
	}
}
