package ledger

import (
	"context"

	"lotledger/internal/core/id"
)

// Repository persists consumption entries.
type Repository interface {
	// CreateEntries inserts all entries of one order in a single batch write.
	CreateEntries(ctx context.Context, entries []*ConsumptionEntry) error

	GetByOrder(ctx context.Context, orderID id.ID) ([]*ConsumptionEntry, error)
	DeleteByOrder(ctx context.Context, orderID id.ID) error
}
