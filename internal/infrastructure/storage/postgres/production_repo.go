package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/production"
)

const productionOrdersTable = "production_orders"

// Compile-time check that ProductionRepo implements production.Repository.
var _ production.Repository = (*ProductionRepo)(nil)

// ProductionRepo implements production.Repository. Order rows live in
// production_orders; the consumption entries belong to the ledger table
// and are joined in on read.
type ProductionRepo struct {
	baseRepo[*production.Order]
}

// NewProductionRepo creates a production order repository.
func NewProductionRepo(txm *TxManager) *ProductionRepo {
	return &ProductionRepo{
		baseRepo: newBaseRepo(txm, productionOrdersTable,
			ExtractDBColumns[production.Order](),
			func() *production.Order { return &production.Order{} }),
	}
}

func (r *ProductionRepo) Create(ctx context.Context, o *production.Order) error {
	return r.create(ctx, o)
}

func (r *ProductionRepo) GetByID(ctx context.Context, orderID id.ID) (*production.Order, error) {
	o, err := r.getByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	entries, err := r.loadEntries(ctx, []id.ID{orderID})
	if err != nil {
		return nil, err
	}
	o.Entries = entries[orderID]

	return o, nil
}

func (r *ProductionRepo) Update(ctx context.Context, o *production.Order) error {
	return r.update(ctx, o)
}

func (r *ProductionRepo) Delete(ctx context.Context, orderID id.ID) error {
	return r.hardDelete(ctx, orderID)
}

func (r *ProductionRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*production.Order], error) {
	result, err := r.list(ctx, filter, []string{"number", "lot_code"}, false)
	if err != nil {
		return result, err
	}
	if len(result.Items) == 0 {
		return result, nil
	}

	orderIDs := make([]id.ID, 0, len(result.Items))
	for _, o := range result.Items {
		orderIDs = append(orderIDs, o.ID)
	}

	entries, err := r.loadEntries(ctx, orderIDs)
	if err != nil {
		return result, err
	}
	for _, o := range result.Items {
		o.Entries = entries[o.ID]
	}

	return result, nil
}

// loadEntries fetches consumption entries for the given orders in one
// query and groups them by order.
func (r *ProductionRepo) loadEntries(ctx context.Context, orderIDs []id.ID) (map[id.ID][]ledger.ConsumptionRequest, error) {
	sql, args, err := r.builder().
		Select("order_id", "batch_id", "quantity").
		From(consumptionEntriesTable).
		Where(squirrel.Eq{"order_id": orderIDs}).
		OrderBy("order_id", "batch_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		OrderID  id.ID          `db:"order_id"`
		BatchID  id.ID          `db:"batch_id"`
		Quantity types.Quantity `db:"quantity"`
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, MapError(fmt.Errorf("select entries: %w", err))
	}

	grouped := make(map[id.ID][]ledger.ConsumptionRequest, len(orderIDs))
	for _, row := range rows {
		grouped[row.OrderID] = append(grouped[row.OrderID], ledger.ConsumptionRequest{
			BatchID:  row.BatchID,
			Quantity: row.Quantity,
		})
	}

	return grouped, nil
}
