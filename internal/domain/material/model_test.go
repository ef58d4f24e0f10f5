package material

import (
	"context"
	"testing"
	"time"

	"lotledger/internal/core/apperror"
)

func TestMaterial_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Material)
		wantErr bool
	}{
		{
			name:   "valid material",
			mutate: func(m *Material) {},
		},
		{
			name:    "empty name",
			mutate:  func(m *Material) { m.Name = "" },
			wantErr: true,
		},
		{
			name:    "unknown unit",
			mutate:  func(m *Material) { m.Unit = "lb" },
			wantErr: true,
		},
		{
			name:    "non-positive days valid after opened",
			mutate:  func(m *Material) { m.DaysValidAfterOpened = intPtr(0) },
			wantErr: true,
		},
		{
			name:    "opened without opened-on date",
			mutate:  func(m *Material) { m.Opened = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaterial("MT-10", "magnesium stearate", UnitGram)
			tt.mutate(m)

			err := m.Validate(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaterial_OpenPackage(t *testing.T) {
	m := NewMaterial("MT-11", "collagen", UnitKilogram)
	m.ManufactureDate = datePtr(2024, time.January, 1)
	m.DaysValidAfterOpened = intPtr(30)

	openedOn := time.Date(2024, time.June, 1, 15, 30, 0, 0, time.UTC)
	changed, err := m.OpenPackage(openedOn)
	if err != nil {
		t.Fatalf("OpenPackage() error = %v", err)
	}
	if !changed {
		t.Error("OpenPackage() changed = false, want true")
	}
	if !m.Opened {
		t.Error("Opened = false after OpenPackage")
	}
	if want := date(2024, time.June, 1); m.OpenedOn == nil || !m.OpenedOn.Equal(want) {
		t.Errorf("OpenedOn = %v, want %v", m.OpenedOn, want)
	}
}

func TestMaterial_OpenPackage_Idempotent(t *testing.T) {
	m := NewMaterial("MT-12", "collagen", UnitKilogram)
	m.DaysValidAfterOpened = intPtr(30)

	first := date(2024, time.June, 1)
	if _, err := m.OpenPackage(first); err != nil {
		t.Fatalf("OpenPackage() error = %v", err)
	}

	// A second open must not move the opened-on date.
	changed, err := m.OpenPackage(date(2024, time.June, 10))
	if err != nil {
		t.Fatalf("OpenPackage() second call error = %v", err)
	}
	if changed {
		t.Error("OpenPackage() second call changed = true, want false")
	}
	if !m.OpenedOn.Equal(first) {
		t.Errorf("OpenedOn = %v, want %v", m.OpenedOn, first)
	}
}

func TestMaterial_OpenPackage_BeforeManufacture(t *testing.T) {
	m := NewMaterial("MT-13", "collagen", UnitKilogram)
	m.ManufactureDate = datePtr(2024, time.June, 1)

	_, err := m.OpenPackage(date(2024, time.May, 1))
	if err == nil {
		t.Fatal("OpenPackage() before manufacture date, want error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("error code = %v, want %s", err, apperror.CodeValidation)
	}
	if m.Opened {
		t.Error("Opened = true after failed OpenPackage")
	}
	if m.OpenedOn != nil {
		t.Errorf("OpenedOn = %v after failed OpenPackage, want nil", m.OpenedOn)
	}
}
