// Package material provides the raw-material catalog with the package-opened
// expiry policy. Expiry state is always derived on read, never stored.
package material

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/entity"
)

// Unit defines the unit of measure for a material.
type Unit string

const (
	UnitMilligram Unit = "mg"
	UnitGram      Unit = "g"
	UnitKilogram  Unit = "kg"
)

// Material represents a raw material tracked by the inventory ledger.
// Quantities of a material live in its batches; the material itself carries
// identity, classification and the shelf-life policy.
type Material struct {
	entity.Catalog

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`

	// Unit is the unit of measure for display purposes.
	// All ledger quantities are stored in milligrams regardless of Unit.
	Unit Unit `db:"unit" json:"unit"`

	// Category groups materials (e.g. "active", "excipient")
	Category string `db:"category" json:"category,omitempty"`

	// Storage requirements
	StorageConditions string `db:"storage_conditions" json:"storageConditions,omitempty"`
	StorageLocation   string `db:"storage_location" json:"storageLocation,omitempty"`

	// ManufactureDate is the producer's manufacture date
	ManufactureDate *time.Time `db:"manufacture_date" json:"manufactureDate,omitempty"`

	// ExpiryDate is the nominal expiry date printed on the package
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	// DaysValidAfterOpened shortens the shelf life once the package is opened
	DaysValidAfterOpened *int `db:"days_valid_after_opened" json:"daysValidAfterOpened,omitempty"`

	// Opened indicates the original package has been opened
	Opened bool `db:"opened" json:"opened"`

	// OpenedOn is the date the package was opened
	OpenedOn *time.Time `db:"opened_on" json:"openedOn,omitempty"`
}

// NewMaterial creates a new Material with required fields.
func NewMaterial(code, name string, unit Unit) *Material {
	return &Material{
		Catalog: entity.NewCatalog(code, name),
		Unit:    unit,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidUnit(m.Unit) {
		return apperror.NewValidation("invalid unit of measure").
			WithDetail("field", "unit").
			WithDetail("value", string(m.Unit))
	}

	if m.DaysValidAfterOpened != nil && *m.DaysValidAfterOpened <= 0 {
		return apperror.NewValidation("days valid after opened must be positive").
			WithDetail("field", "daysValidAfterOpened")
	}

	if m.Opened && m.OpenedOn == nil {
		return apperror.NewValidation("opened material requires an opened-on date").
			WithDetail("field", "openedOn")
	}

	return m.validateOpenedOn(time.Now().UTC())
}

// validateOpenedOn enforces the opened-on invariant:
// the date, if present, lies between the manufacture date and now.
func (m *Material) validateOpenedOn(now time.Time) error {
	if m.OpenedOn == nil {
		return nil
	}

	if m.ManufactureDate != nil && m.OpenedOn.Before(*m.ManufactureDate) {
		return apperror.NewValidation("opened-on date cannot precede manufacture date").
			WithDetail("field", "openedOn")
	}

	if m.OpenedOn.After(now) {
		return apperror.NewValidation("opened-on date cannot be in the future").
			WithDetail("field", "openedOn")
	}

	return nil
}

// OpenPackage marks the package as opened on the given date.
// Opening is one-way and idempotent: a second call is a no-op.
// Returns true when the state actually changed.
func (m *Material) OpenPackage(openedOn time.Time) (bool, error) {
	if m.Opened {
		return false, nil
	}

	openedOn = openedOn.UTC().Truncate(24 * time.Hour)
	stamp := openedOn
	m.OpenedOn = &stamp
	if err := m.validateOpenedOn(time.Now().UTC()); err != nil {
		m.OpenedOn = nil
		return false, err
	}

	m.Opened = true
	return true, nil
}

func isValidUnit(u Unit) bool {
	switch u {
	case UnitMilligram, UnitGram, UnitKilogram:
		return true
	}
	return false
}
