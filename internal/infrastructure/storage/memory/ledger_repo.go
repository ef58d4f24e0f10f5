package memory

import (
	"context"
	"sort"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/ledger"
)

// LedgerRepository implements ledger.Repository over the store.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a consumption entry repository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (r *LedgerRepository) CreateEntries(ctx context.Context, entries []*ledger.ConsumptionEntry) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	for _, e := range entries {
		if _, ok := r.store.entries[e.ID]; ok {
			return apperror.NewDuplicate("ConsumptionEntry", "id", e.ID.String())
		}
	}
	for _, e := range entries {
		r.store.entries[e.ID] = cloneEntry(e)
	}
	return nil
}

func (r *LedgerRepository) GetByOrder(ctx context.Context, orderID id.ID) ([]*ledger.ConsumptionEntry, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var items []*ledger.ConsumptionEntry
	for _, e := range r.store.entries {
		if e.OrderID == orderID {
			items = append(items, cloneEntry(e))
		}
	}

	sort.Slice(items, func(i, j int) bool { return id.Less(items[i].BatchID, items[j].BatchID) })
	return items, nil
}

func (r *LedgerRepository) DeleteByOrder(ctx context.Context, orderID id.ID) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	for entryID, e := range r.store.entries {
		if e.OrderID == orderID {
			delete(r.store.entries, entryID)
		}
	}
	return nil
}
