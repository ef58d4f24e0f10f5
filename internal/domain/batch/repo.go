package batch

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain"
)

// Repository defines persistence operations for batches.
type Repository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)
	GetByCode(ctx context.Context, code string) (*Batch, error)

	// GetForUpdate loads a batch under an exclusive row lock. It must be
	// called inside a transaction; the lock wait is bounded and a timeout
	// surfaces as a Busy error.
	GetForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)

	Update(ctx context.Context, b *Batch) error
	Delete(ctx context.Context, batchID id.ID) error

	// ApplyAvailableDelta adjusts the available quantity of a locked batch.
	// The database constraint rejects results outside [0, total].
	ApplyAvailableDelta(ctx context.Context, batchID id.ID, delta types.Quantity) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Batch], error)
	ListByMaterial(ctx context.Context, materialID id.ID) ([]*Batch, error)
}
