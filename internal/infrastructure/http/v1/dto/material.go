package dto

import (
	"time"

	"lotledger/internal/domain/material"
)

// CreateMaterialRequest for creating materials.
type CreateMaterialRequest struct {
	Code                 string     `json:"code"`
	Name                 string     `json:"name" binding:"required"`
	Description          *string    `json:"description"`
	Unit                 string     `json:"unit" binding:"required,oneof=mg g kg"`
	Category             string     `json:"category"`
	StorageConditions    string     `json:"storageConditions"`
	StorageLocation      string     `json:"storageLocation"`
	ManufactureDate      *time.Time `json:"manufactureDate"`
	ExpiryDate           *time.Time `json:"expiryDate"`
	DaysValidAfterOpened *int       `json:"daysValidAfterOpened"`
}

// ToEntity converts the request to a material entity.
func (r *CreateMaterialRequest) ToEntity() *material.Material {
	m := material.NewMaterial(r.Code, r.Name, material.Unit(r.Unit))
	m.Description = r.Description
	m.Category = r.Category
	m.StorageConditions = r.StorageConditions
	m.StorageLocation = r.StorageLocation
	m.ManufactureDate = r.ManufactureDate
	m.ExpiryDate = r.ExpiryDate
	m.DaysValidAfterOpened = r.DaysValidAfterOpened
	return m
}

// UpdateMaterialRequest for updating materials.
type UpdateMaterialRequest struct {
	Name                 string     `json:"name" binding:"required"`
	Description          *string    `json:"description"`
	Unit                 string     `json:"unit" binding:"required,oneof=mg g kg"`
	Category             string     `json:"category"`
	StorageConditions    string     `json:"storageConditions"`
	StorageLocation      string     `json:"storageLocation"`
	ManufactureDate      *time.Time `json:"manufactureDate"`
	ExpiryDate           *time.Time `json:"expiryDate"`
	DaysValidAfterOpened *int       `json:"daysValidAfterOpened"`
	Version              int        `json:"version" binding:"required,min=1"`
}

// Apply copies the updatable fields onto an existing entity.
func (r *UpdateMaterialRequest) Apply(m *material.Material) {
	m.Name = r.Name
	m.Description = r.Description
	m.Unit = material.Unit(r.Unit)
	m.Category = r.Category
	m.StorageConditions = r.StorageConditions
	m.StorageLocation = r.StorageLocation
	m.ManufactureDate = r.ManufactureDate
	m.ExpiryDate = r.ExpiryDate
	m.DaysValidAfterOpened = r.DaysValidAfterOpened
	m.Version = r.Version
}

// OpenPackageRequest marks a package opened.
type OpenPackageRequest struct {
	// OpenedOn defaults to today when omitted
	OpenedOn *time.Time `json:"openedOn"`
}

// ExpiryStateResponse is the derived shelf-life state.
type ExpiryStateResponse struct {
	Status           string  `json:"status"`
	DaysRemaining    int     `json:"daysRemaining"`
	PercentRemaining float64 `json:"percentRemaining"`
}

// FromExpiryState converts the domain state.
func FromExpiryState(s material.ExpiryState) ExpiryStateResponse {
	return ExpiryStateResponse{
		Status:           string(s.Status),
		DaysRemaining:    s.DaysRemaining,
		PercentRemaining: s.PercentRemaining,
	}
}

// MaterialResponse contains material fields plus the computed expiry state.
type MaterialResponse struct {
	ID                   string              `json:"id"`
	Code                 string              `json:"code"`
	Name                 string              `json:"name"`
	Description          *string             `json:"description,omitempty"`
	Unit                 string              `json:"unit"`
	Category             string              `json:"category,omitempty"`
	StorageConditions    string              `json:"storageConditions,omitempty"`
	StorageLocation      string              `json:"storageLocation,omitempty"`
	ManufactureDate      *time.Time          `json:"manufactureDate,omitempty"`
	ExpiryDate           *time.Time          `json:"expiryDate,omitempty"`
	DaysValidAfterOpened *int                `json:"daysValidAfterOpened,omitempty"`
	Opened               bool                `json:"opened"`
	OpenedOn             *time.Time          `json:"openedOn,omitempty"`
	DeletionMark         bool                `json:"deletionMark"`
	Version              int                 `json:"version"`
	Expiry               ExpiryStateResponse `json:"expiry"`
}

// FromMaterial converts an entity, computing expiry as of now.
func FromMaterial(m *material.Material) MaterialResponse {
	return MaterialResponse{
		ID:                   m.ID.String(),
		Code:                 m.Code,
		Name:                 m.Name,
		Description:          m.Description,
		Unit:                 string(m.Unit),
		Category:             m.Category,
		StorageConditions:    m.StorageConditions,
		StorageLocation:      m.StorageLocation,
		ManufactureDate:      m.ManufactureDate,
		ExpiryDate:           m.ExpiryDate,
		DaysValidAfterOpened: m.DaysValidAfterOpened,
		Opened:               m.Opened,
		OpenedOn:             m.OpenedOn,
		DeletionMark:         m.DeletionMark,
		Version:              m.Version,
		Expiry:               FromExpiryState(material.ComputeExpiryState(m, time.Now().UTC())),
	}
}

// FromMaterials converts a slice of entities.
func FromMaterials(items []*material.Material) []MaterialResponse {
	res := make([]MaterialResponse, 0, len(items))
	for _, m := range items {
		res = append(res, FromMaterial(m))
	}
	return res
}
