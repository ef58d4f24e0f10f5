package memory

import (
	"context"
	"sort"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/batch"
)

// BatchRepository implements batch.Repository over the store.
type BatchRepository struct {
	store *Store
}

// NewBatchRepository creates a batch repository.
func NewBatchRepository(store *Store) *BatchRepository {
	return &BatchRepository{store: store}
}

func (r *BatchRepository) Create(ctx context.Context, b *batch.Batch) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := r.store.batches[b.ID]; ok {
		return apperror.NewDuplicate("Batch", "id", b.ID.String())
	}

	r.store.batches[b.ID] = cloneBatch(b)
	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	b, ok := r.store.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("Batch", batchID)
	}
	return cloneBatch(b), nil
}

func (r *BatchRepository) GetByCode(ctx context.Context, code string) (*batch.Batch, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	for _, b := range r.store.batches {
		if b.Code == code && !b.DeletionMark {
			return cloneBatch(b), nil
		}
	}
	return nil, apperror.NewNotFound("Batch", code)
}

// GetForUpdate behaves like GetByID. Row-level locking is subsumed by
// the store latch held for the whole transaction.
func (r *BatchRepository) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.GetByID(ctx, batchID)
}

func (r *BatchRepository) Update(ctx context.Context, b *batch.Batch) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	current, ok := r.store.batches[b.ID]
	if !ok {
		return apperror.NewNotFound("Batch", b.ID)
	}

	// Optimistic lock: the stored row must still hold the version the
	// caller read. The repository owns the bump.
	if current.Version != b.Version {
		return apperror.NewConcurrentModification("Batch", b.ID)
	}

	updated := cloneBatch(b)
	updated.Version = b.Version + 1
	r.store.batches[b.ID] = updated
	return nil
}

func (r *BatchRepository) Delete(ctx context.Context, batchID id.ID) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	b, ok := r.store.batches[batchID]
	if !ok {
		return apperror.NewNotFound("Batch", batchID)
	}

	b.MarkDeleted()
	return nil
}

// ApplyAvailableDelta adjusts availability, rejecting results outside
// [0, total] the same way the database constraint does.
func (r *BatchRepository) ApplyAvailableDelta(ctx context.Context, batchID id.ID, delta types.Quantity) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	b, ok := r.store.batches[batchID]
	if !ok {
		return apperror.NewNotFound("Batch", batchID)
	}

	next := b.Available + delta
	if next.IsNegative() || next > b.Total {
		return apperror.NewInvariantViolation("batch stock out of bounds").
			WithDetail("batch_id", batchID.String()).
			WithDetail("available", b.Available.String()).
			WithDetail("delta", delta.String())
	}

	b.Available = next
	b.Touch()
	return nil
}

func (r *BatchRepository) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*batch.Batch], error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return domain.ListResult[*batch.Batch]{}, err
	}
	defer release()

	var items []*batch.Batch
	for _, b := range r.store.batches {
		if b.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if len(filter.IDs) > 0 && !containsID(filter.IDs, b.ID) {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, b.Code, b.LotNumber) {
			continue
		}
		items = append(items, cloneBatch(b))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })

	total := int64(len(items))
	items = paginate(items, filter.Offset, filter.Limit)

	return domain.ListResult[*batch.Batch]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *BatchRepository) ListByMaterial(ctx context.Context, materialID id.ID) ([]*batch.Batch, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var items []*batch.Batch
	for _, b := range r.store.batches {
		if b.MaterialID == materialID && !b.DeletionMark {
			items = append(items, cloneBatch(b))
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ReceivedAt.Before(items[j].ReceivedAt) })
	return items, nil
}
