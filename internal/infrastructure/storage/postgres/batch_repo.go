package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/batch"
)

const batchesTable = "batches"

// Compile-time check that BatchRepo implements batch.Repository.
var _ batch.Repository = (*BatchRepo)(nil)

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	baseRepo[*batch.Batch]
}

// NewBatchRepo creates a batch repository.
func NewBatchRepo(txm *TxManager) *BatchRepo {
	return &BatchRepo{
		baseRepo: newBaseRepo(txm, batchesTable,
			ExtractDBColumns[batch.Batch](),
			func() *batch.Batch { return &batch.Batch{} }),
	}
}

func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	return r.create(ctx, b)
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.getByID(ctx, batchID)
}

func (r *BatchRepo) GetByCode(ctx context.Context, code string) (*batch.Batch, error) {
	return r.getByCode(ctx, code)
}

func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.getForUpdate(ctx, batchID)
}

// Update modifies batch metadata. Stock columns are immutable here; they
// change only through ApplyAvailableDelta.
func (r *BatchRepo) Update(ctx context.Context, b *batch.Batch) error {
	return r.update(ctx, b, "total", "available")
}

func (r *BatchRepo) Delete(ctx context.Context, batchID id.ID) error {
	return r.softDelete(ctx, batchID)
}

// ApplyAvailableDelta adjusts availability of a locked batch row.
// The CHECK constraint on the table rejects results outside [0, total];
// MapError reports such a rejection as an invariant violation.
func (r *BatchRepo) ApplyAvailableDelta(ctx context.Context, batchID id.ID, delta types.Quantity) error {
	sql, args, err := r.builder().
		Update(batchesTable).
		Set("available", squirrel.Expr("available + ?", delta)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return MapError(fmt.Errorf("apply available delta: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(batchesTable, batchID.String())
	}

	return nil
}

func (r *BatchRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*batch.Batch], error) {
	return r.list(ctx, filter, []string{"code", "lot_number"}, true)
}

func (r *BatchRepo) ListByMaterial(ctx context.Context, materialID id.ID) ([]*batch.Batch, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"material_id": materialID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("received_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*batch.Batch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, MapError(fmt.Errorf("list by material: %w", err))
	}

	return items, nil
}
