package memory

import (
	"context"
	"sort"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/production"
)

// ProductionRepository implements production.Repository over the store.
type ProductionRepository struct {
	store *Store
}

// NewProductionRepository creates a production order repository.
func NewProductionRepository(store *Store) *ProductionRepository {
	return &ProductionRepository{store: store}
}

func (r *ProductionRepository) Create(ctx context.Context, o *production.Order) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := r.store.orders[o.ID]; ok {
		return apperror.NewDuplicate("ProductionOrder", "id", o.ID.String())
	}

	r.store.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *ProductionRepository) GetByID(ctx context.Context, orderID id.ID) (*production.Order, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("ProductionOrder", orderID)
	}
	return cloneOrder(o), nil
}

func (r *ProductionRepository) Update(ctx context.Context, o *production.Order) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	current, ok := r.store.orders[o.ID]
	if !ok {
		return apperror.NewNotFound("ProductionOrder", o.ID)
	}

	if current.Version != o.Version {
		return apperror.NewConcurrentModification("ProductionOrder", o.ID)
	}

	updated := cloneOrder(o)
	updated.Version = o.Version + 1
	r.store.orders[o.ID] = updated
	return nil
}

func (r *ProductionRepository) Delete(ctx context.Context, orderID id.ID) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := r.store.orders[orderID]; !ok {
		return apperror.NewNotFound("ProductionOrder", orderID)
	}

	delete(r.store.orders, orderID)
	return nil
}

func (r *ProductionRepository) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*production.Order], error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return domain.ListResult[*production.Order]{}, err
	}
	defer release()

	var items []*production.Order
	for _, o := range r.store.orders {
		if len(filter.IDs) > 0 && !containsID(filter.IDs, o.ID) {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, o.Number, o.LotCode) {
			continue
		}
		items = append(items, cloneOrder(o))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Number < items[j].Number })

	total := int64(len(items))
	items = paginate(items, filter.Offset, filter.Limit)

	return domain.ListResult[*production.Order]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
