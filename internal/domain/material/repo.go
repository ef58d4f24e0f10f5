package material

import (
	"context"

	"lotledger/internal/core/id"
	"lotledger/internal/domain"
)

// Repository defines persistence operations for materials.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, materialID id.ID) (*Material, error)
	GetByCode(ctx context.Context, code string) (*Material, error)

	// Update modifies an existing material (with optimistic locking)
	Update(ctx context.Context, m *Material) error

	// Delete performs a soft delete (sets deletion_mark=true)
	Delete(ctx context.Context, materialID id.ID) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Material], error)
	Exists(ctx context.Context, materialID id.ID) (bool, error)
}
