package batch

import (
	"context"
	"fmt"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/tx"
	"lotledger/internal/domain"
	"lotledger/internal/domain/material"
	"lotledger/pkg/logger"
	"lotledger/pkg/numerator"
)

// NumeratorPrefix for auto-generated batch codes.
const NumeratorPrefix = "BT"

// Service provides business operations for batches.
type Service struct {
	repo      Repository
	materials material.Repository
	numerator *numerator.Service
	txManager tx.Manager
	audit     domain.AuditLog
}

// NewService creates a new batch service.
// audit may be nil; auditing is then skipped.
func NewService(repo Repository, materials material.Repository, num *numerator.Service, txManager tx.Manager, audit domain.AuditLog) *Service {
	return &Service{
		repo:      repo,
		materials: materials,
		numerator: num,
		txManager: txManager,
		audit:     audit,
	}
}

// Create registers a newly received batch. The full quantity starts
// available; Total is immutable from here on.
func (s *Service) Create(ctx context.Context, b *Batch) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.materials.Exists(ctx, b.MaterialID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound("Material", b.MaterialID)
	}

	b.Available = b.Total

	if b.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumeratorPrefix), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		b.Code = code
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		return s.logAudit(ctx, b.ID, domain.AuditActionCreate, map[string]any{
			"code":        b.Code,
			"material_id": b.MaterialID,
			"lot_number":  b.LotNumber,
			"total":       b.Total,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "batch created", "id", b.ID, "code", b.Code, "total", b.Total)
	return nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// Update modifies batch metadata. Total and Available are never updated
// here; the stored values win.
func (s *Service) Update(ctx context.Context, b *Batch) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, b.ID)
		if err != nil {
			return err
		}
		b.Total = current.Total
		b.Available = current.Available

		if err := b.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		return s.logAudit(ctx, b.ID, domain.AuditActionUpdate, nil)
	})
}

// Approve records quality control approval for a batch.
func (s *Service) Approve(ctx context.Context, batchID id.ID, approvedBy string) (*Batch, error) {
	var result *Batch

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, batchID)
		if err != nil {
			return err
		}

		if b.QCApproved {
			result = b
			return nil
		}

		b.Approve(approvedBy)
		if err := s.repo.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		if err := s.logAudit(ctx, b.ID, domain.AuditActionUpdate, map[string]any{
			"qc_approved":    true,
			"qc_approved_by": approvedBy,
		}); err != nil {
			return err
		}

		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete soft-deletes a batch. Only untouched or fully drained batches
// can be deleted; anything in between is referenced by the ledger.
func (s *Service) Delete(ctx context.Context, batchID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if b.Available != b.Total && !b.Available.IsZero() {
			return apperror.NewConflict("batch has partially consumed stock").
				WithDetail("batch_id", batchID.String()).
				WithDetail("available", b.Available.String())
		}

		if err := s.repo.Delete(ctx, batchID); err != nil {
			return err
		}
		return s.logAudit(ctx, batchID, domain.AuditActionDelete, nil)
	})
}

// List retrieves batches with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Batch], error) {
	return s.repo.List(ctx, filter)
}

// ListByMaterial returns all live batches of a material.
func (s *Service) ListByMaterial(ctx context.Context, materialID id.ID) ([]*Batch, error) {
	return s.repo.ListByMaterial(ctx, materialID)
}

func (s *Service) logAudit(ctx context.Context, entityID id.ID, action string, changes map[string]any) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.LogChange(ctx, "Batch", entityID, action, changes); err != nil {
		return apperror.NewInternal(err).WithDetail("stage", "audit")
	}
	return nil
}
