package production_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/production"
	"lotledger/internal/infrastructure/storage/memory"
)

type fakeMetrics struct {
	mu        sync.Mutex
	committed int
	reversed  int
	rejected  map[string]int
}

func (m *fakeMetrics) OrderCommitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed++
}

func (m *fakeMetrics) OrderReversed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reversed++
}

func (m *fakeMetrics) StockRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejected == nil {
		m.rejected = make(map[string]int)
	}
	m.rejected[reason]++
}

type orderFixture struct {
	store     *memory.Store
	batchRepo *memory.BatchRepository
	orderRepo *memory.ProductionRepository
	metrics   *fakeMetrics
	svc       *production.Service
}

func newOrderFixture(t *testing.T) *orderFixture {
	return newOrderFixtureWithLockWait(t, memory.DefaultLockWait)
}

func newOrderFixtureWithLockWait(t *testing.T, wait time.Duration) *orderFixture {
	t.Helper()

	store := memory.NewStoreWithLockWait(wait)
	batchRepo := memory.NewBatchRepository(store)
	orderRepo := memory.NewProductionRepository(store)
	txm := memory.NewTxManager(store)
	metrics := &fakeMetrics{}

	ledgerSvc := ledger.NewService(memory.NewLedgerRepository(store), batch.NewStock(batchRepo))
	svc := production.NewService(orderRepo, ledgerSvc, nil, txm, nil, metrics)

	return &orderFixture{
		store:     store,
		batchRepo: batchRepo,
		orderRepo: orderRepo,
		metrics:   metrics,
		svc:       svc,
	}
}

func (f *orderFixture) addBatch(t *testing.T, total float64) id.ID {
	t.Helper()

	b := batch.NewBatch(id.New(), "LOT-"+id.New().String()[:8], types.NewQuantityFromFloat64(total))
	if err := f.batchRepo.Create(context.Background(), b); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return b.ID
}

func (f *orderFixture) available(t *testing.T, batchID id.ID) float64 {
	t.Helper()

	b, err := f.batchRepo.GetByID(context.Background(), batchID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	return b.Available.Float64()
}

func newOrder(number string, entries ...ledger.ConsumptionRequest) *production.Order {
	o := production.NewOrder(id.New(), "CAP-2026-001", 5000)
	o.Number = number
	o.Entries = entries
	return o
}

func TestCreateOrder_CommitsConsumption(t *testing.T) {
	f := newOrderFixture(t)
	batchA := f.addBatch(t, 1000)
	batchB := f.addBatch(t, 500)

	o := newOrder("PO-2026-00001",
		ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(250)},
		ledger.ConsumptionRequest{BatchID: batchB, Quantity: types.NewQuantityFromFloat64(100)},
	)

	if err := f.svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	if got := f.available(t, batchA); got != 750 {
		t.Errorf("batch A available = %v, want 750", got)
	}
	if got := f.available(t, batchB); got != 400 {
		t.Errorf("batch B available = %v, want 400", got)
	}

	stored, err := f.svc.GetOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !stored.Committed {
		t.Error("order not marked committed")
	}
	if f.metrics.committed != 1 {
		t.Errorf("committed counter = %d, want 1", f.metrics.committed)
	}
}

func TestCreateOrder_RollsBackEntirely(t *testing.T) {
	f := newOrderFixture(t)
	batchA := f.addBatch(t, 1000)
	batchB := f.addBatch(t, 100)

	o := newOrder("PO-2026-00002",
		ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(250)},
		ledger.ConsumptionRequest{BatchID: batchB, Quantity: types.NewQuantityFromFloat64(200)},
	)

	err := f.svc.CreateOrder(context.Background(), o)
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("error = %v, want insufficient stock", err)
	}

	// Neither the order nor any stock movement survives.
	if _, err := f.svc.GetOrder(context.Background(), o.ID); !apperror.IsNotFound(err) {
		t.Errorf("get order error = %v, want not found", err)
	}
	if got := f.available(t, batchA); got != 1000 {
		t.Errorf("batch A available = %v, want 1000", got)
	}
	if got := f.available(t, batchB); got != 100 {
		t.Errorf("batch B available = %v, want 100", got)
	}
	if f.metrics.rejected["insufficient_stock"] != 1 {
		t.Errorf("rejection counter = %v, want insufficient_stock=1", f.metrics.rejected)
	}
}

func TestCreateOrder_DuplicateBatchRejected(t *testing.T) {
	f := newOrderFixture(t)
	batchA := f.addBatch(t, 1000)

	o := newOrder("PO-2026-00003",
		ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(100)},
		ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(200)},
	)

	err := f.svc.CreateOrder(context.Background(), o)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestCreateThenDelete_RestoresBatchesExactly(t *testing.T) {
	f := newOrderFixture(t)
	batchA := f.addBatch(t, 1000)
	batchB := f.addBatch(t, 500)
	batchC := f.addBatch(t, 250)

	o := newOrder("PO-2026-00004",
		ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(999)},
		ledger.ConsumptionRequest{BatchID: batchB, Quantity: types.NewQuantityFromFloat64(0.5)},
		ledger.ConsumptionRequest{BatchID: batchC, Quantity: types.NewQuantityFromFloat64(250)},
	)

	if err := f.svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := f.svc.DeleteOrder(context.Background(), o.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}

	for _, tc := range []struct {
		batchID id.ID
		want    float64
	}{
		{batchA, 1000},
		{batchB, 500},
		{batchC, 250},
	} {
		if got := f.available(t, tc.batchID); got != tc.want {
			t.Errorf("available = %v, want %v", got, tc.want)
		}
	}

	if _, err := f.svc.GetOrder(context.Background(), o.ID); !apperror.IsNotFound(err) {
		t.Errorf("get order error = %v, want not found", err)
	}
	if f.metrics.reversed != 1 {
		t.Errorf("reversed counter = %d, want 1", f.metrics.reversed)
	}
}

func TestDeleteOrder_Unknown(t *testing.T) {
	f := newOrderFixture(t)

	err := f.svc.DeleteOrder(context.Background(), id.New())
	if !apperror.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestCreateOrder_ConcurrentOverSubscribed(t *testing.T) {
	f := newOrderFixtureWithLockWait(t, 5*time.Second)
	batchA := f.addBatch(t, 100)

	const workers = 5
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			o := newOrder(fmt.Sprintf("PO-2026-%05d", 1000+n),
				ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(100)},
			)
			errs <- f.svc.CreateOrder(context.Background(), o)
		}(i)
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsInsufficientStock(err):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}
	if insufficient != workers-1 {
		t.Errorf("insufficient = %d, want %d", insufficient, workers-1)
	}
	if got := f.available(t, batchA); got != 0 {
		t.Errorf("available = %v, want 0", got)
	}
}

func TestCreateOrder_BusyOnLockTimeout(t *testing.T) {
	f := newOrderFixtureWithLockWait(t, 20*time.Millisecond)
	batchA := f.addBatch(t, 1000)
	txm := memory.NewTxManager(f.store)

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
			close(holding)
			<-done
			return nil
		})
	}()
	<-holding
	defer close(done)

	o := newOrder("PO-2026-00005",
		ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(10)},
	)

	err := f.svc.CreateOrder(context.Background(), o)
	if !apperror.IsBusy(err) {
		t.Fatalf("error = %v, want busy", err)
	}
	if f.metrics.rejected["busy"] != 1 {
		t.Errorf("rejection counter = %v, want busy=1", f.metrics.rejected)
	}
}

func TestUpdateOrder_MetadataOnly(t *testing.T) {
	f := newOrderFixture(t)
	batchA := f.addBatch(t, 1000)

	o := newOrder("PO-2026-00006",
		ledger.ConsumptionRequest{BatchID: batchA, Quantity: types.NewQuantityFromFloat64(100)},
	)
	if err := f.svc.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	fresh, err := f.svc.GetOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}

	updated := *fresh
	updated.LotCode = "CAP-2026-002"
	updated.BatchSize = 6000

	if err := f.svc.UpdateOrder(context.Background(), &updated); err != nil {
		t.Fatalf("update order: %v", err)
	}

	stored, err := f.svc.GetOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.LotCode != "CAP-2026-002" || stored.BatchSize != 6000 {
		t.Errorf("metadata not updated: %+v", stored)
	}
	if len(stored.Entries) != 1 {
		t.Errorf("entries = %d, want 1 (immutable)", len(stored.Entries))
	}
	if got := f.available(t, batchA); got != 900 {
		t.Errorf("available = %v, want 900 (no stock movement on update)", got)
	}
}
