package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/domain/batch"
	"lotledger/pkg/logger"
)

// Service is the consumption engine. Both operations must run inside the
// caller's transaction; the service never starts its own, so that order
// persistence and stock movement commit or roll back together.
type Service struct {
	repo  Repository
	stock *batch.Stock
}

// NewService creates a consumption ledger service.
func NewService(repo Repository, stock *batch.Stock) *Service {
	return &Service{repo: repo, stock: stock}
}

// CommitConsumption deducts stock for every request and records one entry
// per (order, batch). Two phases: first every request is reserved under a
// row lock in ascending batch-id order, so two concurrent orders always
// lock batches in the same sequence; only when all reservations hold does
// the second phase apply them and write the entries. Any phase-1 failure
// aborts with zero stock moved.
func (s *Service) CommitConsumption(ctx context.Context, orderID id.ID, requests []ConsumptionRequest) ([]*ConsumptionEntry, error) {
	if len(requests) == 0 {
		return nil, apperror.NewValidation("consumption requires at least one entry").
			WithDetail("order_id", orderID.String())
	}

	ordered := make([]ConsumptionRequest, len(requests))
	copy(ordered, requests)
	sort.Slice(ordered, func(i, j int) bool {
		return id.Less(ordered[i].BatchID, ordered[j].BatchID)
	})

	for i := 1; i < len(ordered); i++ {
		if ordered[i].BatchID == ordered[i-1].BatchID {
			return nil, apperror.NewValidation("batch referenced more than once").
				WithDetail("batch_id", ordered[i].BatchID.String())
		}
	}

	// Phase 1: reserve everything. Rows stay locked until the enclosing
	// transaction ends.
	deductions := make([]*batch.Deduction, 0, len(ordered))
	for _, req := range ordered {
		d, err := s.stock.Reserve(ctx, req.BatchID, req.Quantity)
		if err != nil {
			return nil, err
		}
		deductions = append(deductions, d)
	}

	// Phase 2: apply. A failure past this point is fatal; the enclosing
	// transaction rolls everything back.
	now := time.Now().UTC()
	entries := make([]*ConsumptionEntry, 0, len(ordered))
	for i, d := range deductions {
		if err := s.stock.Commit(ctx, d); err != nil {
			return nil, err
		}
		entries = append(entries, &ConsumptionEntry{
			ID:        id.New(),
			OrderID:   orderID,
			BatchID:   ordered[i].BatchID,
			Quantity:  ordered[i].Quantity,
			CreatedAt: now,
		})
	}

	if err := s.repo.CreateEntries(ctx, entries); err != nil {
		logger.Error(ctx, "consumption entries insert failed after stock movement",
			"order_id", orderID.String(), "error", err)
		return nil, apperror.NewInvariantViolation("consumption entries could not be recorded").
			WithDetail("order_id", orderID.String())
	}

	logger.Info(ctx, "consumption committed",
		"order_id", orderID.String(), "entries", len(entries))
	return entries, nil
}

// ReverseConsumption returns all stock an order consumed and removes its
// entries. Unknown orders are a no-op, which makes reversal idempotent.
// An overflow on release means the batch was mutated outside the ledger;
// reversal fails loudly rather than clamping.
func (s *Service) ReverseConsumption(ctx context.Context, orderID id.ID) error {
	entries, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return id.Less(entries[i].BatchID, entries[j].BatchID)
	})

	for _, e := range entries {
		if err := s.stock.Release(ctx, e.BatchID, e.Quantity); err != nil {
			return fmt.Errorf("release batch %s: %w", e.BatchID, err)
		}
	}

	if err := s.repo.DeleteByOrder(ctx, orderID); err != nil {
		return fmt.Errorf("delete consumption entries: %w", err)
	}

	logger.Info(ctx, "consumption reversed",
		"order_id", orderID.String(), "entries", len(entries))
	return nil
}

// GetByOrder returns the recorded entries of an order.
func (s *Service) GetByOrder(ctx context.Context, orderID id.ID) ([]*ConsumptionEntry, error) {
	return s.repo.GetByOrder(ctx, orderID)
}
