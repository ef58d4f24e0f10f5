package production

import (
	"context"
	"fmt"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/tx"
	"lotledger/internal/domain"
	"lotledger/internal/domain/ledger"
	"lotledger/pkg/logger"
	"lotledger/pkg/numerator"
)

// NumeratorPrefix for auto-generated order numbers.
const NumeratorPrefix = "PO"

// Metrics receives operation counters. Implementations must be safe for
// concurrent use; a nil Metrics disables counting.
type Metrics interface {
	OrderCommitted()
	OrderReversed()
	StockRejected(reason string)
}

// Service orchestrates the production order lifecycle. Order persistence
// and ledger movement always share one transaction, so a failed commit
// leaves no trace and a delete reverses stock exactly.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	numerator *numerator.Service
	txManager tx.Manager
	audit     domain.AuditLog
	metrics   Metrics
}

// NewService creates a production order service.
// audit and metrics may be nil.
func NewService(repo Repository, ledgerSvc *ledger.Service, num *numerator.Service, txManager tx.Manager, audit domain.AuditLog, metrics Metrics) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		numerator: num,
		txManager: txManager,
		audit:     audit,
		metrics:   metrics,
	}
}

// CreateOrder persists the order and commits its consumption atomically.
// On any ledger failure the order is rolled back entirely; a caller never
// sees an order whose stock was only partly deducted.
func (s *Service) CreateOrder(ctx context.Context, o *Order) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	if o.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumeratorPrefix), nil, o.Date)
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		o.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if _, err := s.ledger.CommitConsumption(ctx, o.ID, o.Entries); err != nil {
			return err
		}

		o.MarkCommitted()
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("mark order committed: %w", err)
		}

		return s.logAudit(ctx, o.ID, domain.AuditActionCommit, map[string]any{
			"number":   o.Number,
			"lot_code": o.LotCode,
			"entries":  len(o.Entries),
		})
	})
	if err != nil {
		s.countRejection(err)
		return err
	}

	if s.metrics != nil {
		s.metrics.OrderCommitted()
	}
	logger.Info(ctx, "production order created",
		"id", o.ID, "number", o.Number, "lot_code", o.LotCode)
	return nil
}

// DeleteOrder reverses the order's consumption and removes it, in one
// transaction. Unknown orders return NotFound.
func (s *Service) DeleteOrder(ctx context.Context, orderID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		if err := s.ledger.ReverseConsumption(ctx, orderID); err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, orderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		return s.logAudit(ctx, orderID, domain.AuditActionReverse, map[string]any{
			"number": o.Number,
		})
	})
	if err != nil {
		s.countRejection(err)
		return err
	}

	if s.metrics != nil {
		s.metrics.OrderReversed()
	}
	logger.Info(ctx, "production order deleted", "id", orderID)
	return nil
}

// UpdateOrder changes order metadata. Consumption entries are immutable
// once committed; to change them, delete the order and create a new one.
func (s *Service) UpdateOrder(ctx context.Context, o *Order) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, o.ID)
		if err != nil {
			return err
		}

		current.LotCode = o.LotCode
		current.BatchSize = o.BatchSize
		current.Date = o.Date
		current.Comment = o.Comment
		// The optimistic lock checks the version the caller observed,
		// not the one just reloaded.
		current.Version = o.Version

		if err := current.Validate(ctx); err != nil {
			return err
		}

		current.SetUpdatedAt(time.Now().UTC())
		if err := s.repo.Update(ctx, current); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		*o = *current
		return s.logAudit(ctx, o.ID, domain.AuditActionUpdate, nil)
	})
}

// GetOrder retrieves an order with its consumption entries.
func (s *Service) GetOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case apperror.IsInsufficientStock(err):
		s.metrics.StockRejected("insufficient_stock")
	case apperror.IsBusy(err):
		s.metrics.StockRejected("busy")
	}
}

func (s *Service) logAudit(ctx context.Context, entityID id.ID, action string, changes map[string]any) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.LogChange(ctx, "ProductionOrder", entityID, action, changes); err != nil {
		return apperror.NewInternal(err).WithDetail("stage", "audit")
	}
	return nil
}
