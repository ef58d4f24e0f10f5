package batch

import (
	"context"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/pkg/logger"
)

// Deduction is a pending stock deduction produced by Reserve.
// It holds between Reserve and Commit while the batch row stays locked,
// so it is only meaningful within the enclosing transaction.
type Deduction struct {
	BatchID  id.ID
	Quantity types.Quantity

	applied bool
}

// Stock mutates batch availability. All callers must go through Stock;
// nothing else touches the available column.
type Stock struct {
	repo Repository
}

// NewStock creates the stock mutator over a batch repository.
func NewStock(repo Repository) *Stock {
	return &Stock{repo: repo}
}

// Reserve locks the batch and validates that qty can be deducted.
// It does not change availability yet; the caller commits the returned
// deduction once every reservation of the operation has succeeded.
// Must run inside a transaction so the row lock survives until Commit.
func (s *Stock) Reserve(ctx context.Context, batchID id.ID, qty types.Quantity) (*Deduction, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("batch_id", batchID.String()).
			WithDetail("quantity", qty.String())
	}

	b, err := s.repo.GetForUpdate(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if qty > b.Available {
		return nil, apperror.NewInsufficientStock(batchID.String(), qty.Float64(), b.Available.Float64())
	}

	return &Deduction{BatchID: batchID, Quantity: qty}, nil
}

// Commit applies a reserved deduction exactly once.
// Failure here means the reservation was invalidated inside the same
// transaction, which is a fatal invariant violation.
func (s *Stock) Commit(ctx context.Context, d *Deduction) error {
	if d.applied {
		return apperror.NewInvariantViolation("deduction already applied").
			WithDetail("batch_id", d.BatchID.String())
	}

	if err := s.repo.ApplyAvailableDelta(ctx, d.BatchID, d.Quantity.Neg()); err != nil {
		logger.Error(ctx, "stock deduction failed after successful reservation",
			"batch_id", d.BatchID.String(),
			"quantity", d.Quantity.String(),
			"error", err,
		)
		return apperror.NewInvariantViolation("reserved deduction could not be applied").
			WithDetail("batch_id", d.BatchID.String()).
			WithDetail("quantity", d.Quantity.String())
	}

	d.applied = true
	return nil
}

// Release returns qty to the batch. A result above total means the
// ledger and the batch disagree about history, so the release fails
// loudly instead of clamping.
func (s *Stock) Release(ctx context.Context, batchID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("batch_id", batchID.String()).
			WithDetail("quantity", qty.String())
	}

	b, err := s.repo.GetForUpdate(ctx, batchID)
	if err != nil {
		return err
	}

	if b.Available+qty > b.Total {
		return apperror.NewStockOverflow(batchID.String(), qty.Float64(), b.Available.Float64(), b.Total.Float64())
	}

	return s.repo.ApplyAvailableDelta(ctx, batchID, qty)
}
