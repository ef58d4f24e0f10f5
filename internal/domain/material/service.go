package material

import (
	"context"
	"fmt"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/internal/core/tx"
	"lotledger/internal/domain"
	"lotledger/pkg/logger"
	"lotledger/pkg/numerator"
)

// NumeratorPrefix for auto-generated material internal codes.
const NumeratorPrefix = "MT"

// Service provides business operations for the material catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
	audit     domain.AuditLog
}

// NewService creates a new material service.
// audit may be nil; auditing is then skipped.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager, audit domain.AuditLog) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
		audit:     audit,
	}
}

// Create creates a new material, generating an internal code when absent.
func (s *Service) Create(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if m.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumeratorPrefix), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		m.Code = code
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return fmt.Errorf("create material: %w", err)
		}
		return s.logAudit(ctx, m.ID, domain.AuditActionCreate, map[string]any{
			"code": m.Code,
			"name": m.Name,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "material created", "id", m.ID, "code", m.Code)
	return nil
}

// GetByID retrieves a material.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*Material, error) {
	return s.repo.GetByID(ctx, materialID)
}

// Update updates a material.
func (s *Service) Update(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, m); err != nil {
			return fmt.Errorf("update material: %w", err)
		}
		return s.logAudit(ctx, m.ID, domain.AuditActionUpdate, nil)
	})
}

// Delete soft-deletes a material.
func (s *Service) Delete(ctx context.Context, materialID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, materialID); err != nil {
			return err
		}
		return s.logAudit(ctx, materialID, domain.AuditActionDelete, nil)
	})
}

// List retrieves materials with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Material], error) {
	return s.repo.List(ctx, filter)
}

// OpenPackage records that the material's original package was opened,
// which shortens its effective shelf life per the days-valid-after-opened
// policy. Idempotent: opening an already-opened package changes nothing.
//
// openedOn is optional; when nil the current date is used.
func (s *Service) OpenPackage(ctx context.Context, materialID id.ID, openedOn *time.Time) (*Material, error) {
	var result *Material

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetByID(ctx, materialID)
		if err != nil {
			return err
		}

		when := time.Now().UTC()
		if openedOn != nil {
			when = *openedOn
		}

		changed, err := m.OpenPackage(when)
		if err != nil {
			return err
		}
		if !changed {
			result = m
			return nil
		}

		if err := s.repo.Update(ctx, m); err != nil {
			return fmt.Errorf("update material: %w", err)
		}

		if err := s.logAudit(ctx, m.ID, domain.AuditActionOpenPackage, map[string]any{
			"opened_on": m.OpenedOn,
		}); err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Opened {
		logger.Info(ctx, "package opened", "material_id", materialID, "opened_on", result.OpenedOn)
	}
	return result, nil
}

// GetExpiryState computes the derived expiry state of a material.
// Read-only; asOf defaults to the current time.
func (s *Service) GetExpiryState(ctx context.Context, materialID id.ID, asOf *time.Time) (ExpiryState, error) {
	m, err := s.repo.GetByID(ctx, materialID)
	if err != nil {
		return ExpiryState{}, err
	}

	now := time.Now().UTC()
	if asOf != nil {
		now = *asOf
	}

	return ComputeExpiryState(m, now), nil
}

func (s *Service) logAudit(ctx context.Context, entityID id.ID, action string, changes map[string]any) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.LogChange(ctx, "Material", entityID, action, changes); err != nil {
		return apperror.NewInternal(err).WithDetail("stage", "audit")
	}
	return nil
}
