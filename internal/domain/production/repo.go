package production

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
)

// Repository persists production orders. Consumption entries live in the
// ledger repository; implementations load them when returning an order.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// Update modifies order metadata (with optimistic locking)
	Update(ctx context.Context, o *Order) error

	// Delete removes the order row. Orders are documents with exact
	// reversal semantics, so this is a hard delete, not a mark.
	Delete(ctx context.Context, orderID id.ID) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Order], error)
}
