package memory

import (
	"context"
	"sort"
	"strings"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/material"
)

// MaterialRepository implements material.Repository over the store.
type MaterialRepository struct {
	store *Store
}

// NewMaterialRepository creates a material repository.
func NewMaterialRepository(store *Store) *MaterialRepository {
	return &MaterialRepository{store: store}
}

func (r *MaterialRepository) Create(ctx context.Context, m *material.Material) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := r.store.materials[m.ID]; ok {
		return apperror.NewDuplicate("Material", "id", m.ID.String())
	}
	for _, existing := range r.store.materials {
		if existing.Code == m.Code && !existing.DeletionMark {
			return apperror.NewDuplicate("Material", "code", m.Code)
		}
	}

	r.store.materials[m.ID] = cloneMaterial(m)
	return nil
}

func (r *MaterialRepository) GetByID(ctx context.Context, materialID id.ID) (*material.Material, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	m, ok := r.store.materials[materialID]
	if !ok {
		return nil, apperror.NewNotFound("Material", materialID)
	}
	return cloneMaterial(m), nil
}

func (r *MaterialRepository) GetByCode(ctx context.Context, code string) (*material.Material, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	for _, m := range r.store.materials {
		if m.Code == code && !m.DeletionMark {
			return cloneMaterial(m), nil
		}
	}
	return nil, apperror.NewNotFound("Material", code)
}

func (r *MaterialRepository) Update(ctx context.Context, m *material.Material) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	current, ok := r.store.materials[m.ID]
	if !ok {
		return apperror.NewNotFound("Material", m.ID)
	}

	if current.Version != m.Version {
		return apperror.NewConcurrentModification("Material", m.ID)
	}

	updated := cloneMaterial(m)
	updated.Version = m.Version + 1
	r.store.materials[m.ID] = updated
	return nil
}

func (r *MaterialRepository) Delete(ctx context.Context, materialID id.ID) error {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	m, ok := r.store.materials[materialID]
	if !ok {
		return apperror.NewNotFound("Material", materialID)
	}

	m.MarkDeleted()
	return nil
}

func (r *MaterialRepository) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*material.Material], error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return domain.ListResult[*material.Material]{}, err
	}
	defer release()

	var items []*material.Material
	for _, m := range r.store.materials {
		if m.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if len(filter.IDs) > 0 && !containsID(filter.IDs, m.ID) {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, m.Name, m.Code) {
			continue
		}
		items = append(items, cloneMaterial(m))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	total := int64(len(items))
	items = paginate(items, filter.Offset, filter.Limit)

	return domain.ListResult[*material.Material]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *MaterialRepository) Exists(ctx context.Context, materialID id.ID) (bool, error) {
	release, err := r.store.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	m, ok := r.store.materials[materialID]
	return ok && !m.DeletionMark, nil
}

// --- shared list helpers ---

func containsID(ids []id.ID, target id.ID) bool {
	for _, v := range ids {
		if v == target {
			return true
		}
	}
	return false
}

func matchesSearch(search string, fields ...string) bool {
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
