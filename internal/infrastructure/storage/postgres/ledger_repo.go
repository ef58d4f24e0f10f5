package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"lotledger/internal/core/id"
	"lotledger/internal/domain/ledger"
)

const consumptionEntriesTable = "consumption_entries"

// Compile-time check that LedgerRepo implements ledger.Repository.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a consumption entry repository.
func NewLedgerRepo(txm *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var consumptionEntryColumns = []string{"id", "order_id", "batch_id", "quantity", "created_at"}

// CreateEntries inserts all entries of one order. Uses COPY inside a
// transaction, which CommitConsumption always provides.
func (r *LedgerRepo) CreateEntries(ctx context.Context, entries []*ledger.ConsumptionEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{e.ID, e.OrderID, e.BatchID, e.Quantity, e.CreatedAt})
		}
		inserter := NewBatchInserter(r.txm)
		if _, err := inserter.CopyFromSlice(ctx, consumptionEntriesTable, consumptionEntryColumns, rows); err != nil {
			return MapError(fmt.Errorf("copy entries: %w", err))
		}
		return nil
	}

	// Fallback: plain insert. Prefer calling CreateEntries within tx.
	q := r.builder.Insert(consumptionEntriesTable).Columns(consumptionEntryColumns...)
	for _, e := range entries {
		q = q.Values(e.ID, e.OrderID, e.BatchID, e.Quantity, e.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return MapError(fmt.Errorf("insert entries: %w", err))
	}

	return nil
}

// GetByOrder returns the entries of an order in ascending batch-id order,
// matching the lock order used on commit and reversal.
func (r *LedgerRepo) GetByOrder(ctx context.Context, orderID id.ID) ([]*ledger.ConsumptionEntry, error) {
	sql, args, err := r.builder.
		Select(consumptionEntryColumns...).
		From(consumptionEntriesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("batch_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*ledger.ConsumptionEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, MapError(fmt.Errorf("select entries: %w", err))
	}

	return entries, nil
}

func (r *LedgerRepo) DeleteByOrder(ctx context.Context, orderID id.ID) error {
	sql, args, err := r.builder.
		Delete(consumptionEntriesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return MapError(fmt.Errorf("delete entries: %w", err))
	}

	return nil
}
