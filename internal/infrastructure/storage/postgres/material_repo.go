package postgres

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
	"lotledger/internal/domain/material"
)

const materialsTable = "materials"

// Compile-time check that MaterialRepo implements material.Repository.
var _ material.Repository = (*MaterialRepo)(nil)

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	baseRepo[*material.Material]
}

// NewMaterialRepo creates a material repository.
func NewMaterialRepo(txm *TxManager) *MaterialRepo {
	return &MaterialRepo{
		baseRepo: newBaseRepo(txm, materialsTable,
			ExtractDBColumns[material.Material](),
			func() *material.Material { return &material.Material{} }),
	}
}

func (r *MaterialRepo) Create(ctx context.Context, m *material.Material) error {
	return r.create(ctx, m)
}

func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.Material, error) {
	return r.getByID(ctx, materialID)
}

func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*material.Material, error) {
	return r.getByCode(ctx, code)
}

func (r *MaterialRepo) Update(ctx context.Context, m *material.Material) error {
	return r.update(ctx, m)
}

func (r *MaterialRepo) Delete(ctx context.Context, materialID id.ID) error {
	return r.softDelete(ctx, materialID)
}

func (r *MaterialRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*material.Material], error) {
	return r.list(ctx, filter, []string{"name", "code"}, true)
}

func (r *MaterialRepo) Exists(ctx context.Context, materialID id.ID) (bool, error) {
	return r.exists(ctx, materialID)
}
