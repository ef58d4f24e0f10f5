package ledger_test

import (
	"context"
	"testing"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/infrastructure/storage/memory"
)

type ledgerFixture struct {
	store     *memory.Store
	batchRepo *memory.BatchRepository
	txm       *memory.TxManager
	svc       *ledger.Service
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	store := memory.NewStore()
	batchRepo := memory.NewBatchRepository(store)
	return &ledgerFixture{
		store:     store,
		batchRepo: batchRepo,
		txm:       memory.NewTxManager(store),
		svc:       ledger.NewService(memory.NewLedgerRepository(store), batch.NewStock(batchRepo)),
	}
}

func (f *ledgerFixture) addBatch(t *testing.T, total float64) id.ID {
	t.Helper()

	b := batch.NewBatch(id.New(), "LOT-"+id.New().String()[:8], types.NewQuantityFromFloat64(total))
	if err := f.batchRepo.Create(context.Background(), b); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return b.ID
}

func (f *ledgerFixture) available(t *testing.T, batchID id.ID) float64 {
	t.Helper()

	b, err := f.batchRepo.GetByID(context.Background(), batchID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	return b.Available.Float64()
}

func TestCommitConsumption_MultiBatch(t *testing.T) {
	f := newLedgerFixture(t)
	batchA := f.addBatch(t, 1000)
	batchB := f.addBatch(t, 500)
	orderID := id.New()

	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.CommitConsumption(ctx, orderID, []ledger.ConsumptionRequest{
			{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(300)},
			{BatchID: batchB, Quantity: types.NewQuantityFromFloat64(500)},
		})
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := f.available(t, batchA); got != 700 {
		t.Errorf("batch A available = %v, want 700", got)
	}
	if got := f.available(t, batchB); got != 0 {
		t.Errorf("batch B available = %v, want 0", got)
	}

	entries, err := f.svc.GetByOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
}

func TestCommitConsumption_InsufficientStockLeavesNothing(t *testing.T) {
	f := newLedgerFixture(t)
	batchA := f.addBatch(t, 1000)
	batchB := f.addBatch(t, 100)
	orderID := id.New()

	// Batch B cannot cover its entry; batch A must stay untouched even
	// though its own reservation would have succeeded.
	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.CommitConsumption(ctx, orderID, []ledger.ConsumptionRequest{
			{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(300)},
			{BatchID: batchB, Quantity: types.NewQuantityFromFloat64(200)},
		})
		return err
	})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("error = %v, want insufficient stock", err)
	}

	if got := f.available(t, batchA); got != 1000 {
		t.Errorf("batch A available = %v, want 1000", got)
	}
	if got := f.available(t, batchB); got != 100 {
		t.Errorf("batch B available = %v, want 100", got)
	}

	entries, err := f.svc.GetByOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

func TestCommitConsumption_DuplicateBatchRejected(t *testing.T) {
	f := newLedgerFixture(t)
	batchA := f.addBatch(t, 1000)
	orderID := id.New()

	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.CommitConsumption(ctx, orderID, []ledger.ConsumptionRequest{
			{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(100)},
			{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(200)},
		})
		return err
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("error = %v, want validation error", err)
	}

	if got := f.available(t, batchA); got != 1000 {
		t.Errorf("available = %v, want 1000", got)
	}
}

func TestCommitConsumption_EmptyRequests(t *testing.T) {
	f := newLedgerFixture(t)

	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.CommitConsumption(ctx, id.New(), nil)
		return err
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestReverseConsumption_RestoresStock(t *testing.T) {
	f := newLedgerFixture(t)
	batchA := f.addBatch(t, 1000)
	batchB := f.addBatch(t, 500)
	orderID := id.New()

	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.CommitConsumption(ctx, orderID, []ledger.ConsumptionRequest{
			{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(300)},
			{BatchID: batchB, Quantity: types.NewQuantityFromFloat64(450)},
		})
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	err = f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return f.svc.ReverseConsumption(ctx, orderID)
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if got := f.available(t, batchA); got != 1000 {
		t.Errorf("batch A available = %v, want 1000", got)
	}
	if got := f.available(t, batchB); got != 500 {
		t.Errorf("batch B available = %v, want 500", got)
	}

	entries, err := f.svc.GetByOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d after reversal, want 0", len(entries))
	}
}

func TestReverseConsumption_UnknownOrderIsNoop(t *testing.T) {
	f := newLedgerFixture(t)

	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return f.svc.ReverseConsumption(ctx, id.New())
	})
	if err != nil {
		t.Errorf("reverse unknown order = %v, want nil", err)
	}
}

func TestReverseConsumption_Idempotent(t *testing.T) {
	f := newLedgerFixture(t)
	batchA := f.addBatch(t, 1000)
	orderID := id.New()

	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.CommitConsumption(ctx, orderID, []ledger.ConsumptionRequest{
			{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(300)},
		})
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	for i := 0; i < 2; i++ {
		err = f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
			return f.svc.ReverseConsumption(ctx, orderID)
		})
		if err != nil {
			t.Fatalf("reverse #%d: %v", i+1, err)
		}
	}

	if got := f.available(t, batchA); got != 1000 {
		t.Errorf("available = %v, want 1000 (reversed exactly once)", got)
	}
}

func TestReverseConsumption_OverflowFailsLoudly(t *testing.T) {
	f := newLedgerFixture(t)
	batchA := f.addBatch(t, 1000)
	orderID := id.New()

	err := f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := f.svc.CommitConsumption(ctx, orderID, []ledger.ConsumptionRequest{
			{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(300)},
		})
		return err
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Simulate out-of-band tampering: someone returned stock directly.
	err = f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return f.batchRepo.ApplyAvailableDelta(ctx, batchA, types.NewQuantityFromFloat64(300))
	})
	if err != nil {
		t.Fatalf("tamper: %v", err)
	}

	err = f.txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return f.svc.ReverseConsumption(ctx, orderID)
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeStockOverflow {
		t.Fatalf("error = %v, want stock overflow", err)
	}

	// Rolled back: the tampered value stands, the entries remain.
	entries, err := f.svc.GetByOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1", len(entries))
	}
}
