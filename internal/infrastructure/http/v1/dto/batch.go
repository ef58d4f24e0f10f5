package dto

import (
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
)

// CreateBatchRequest registers a newly received batch.
// Quantities are in the material's unit, converted to the fixed-point
// ledger representation on the way in.
type CreateBatchRequest struct {
	Code          string     `json:"code"`
	MaterialID    string     `json:"materialId" binding:"required"`
	SupplierID    *string    `json:"supplierId"`
	LotNumber     string     `json:"lotNumber" binding:"required"`
	InvoiceNumber *string    `json:"invoiceNumber"`
	Total         float64    `json:"total" binding:"required,gt=0"`
	UnitPrice     *float64   `json:"unitPrice"`
	ReceivedAt    *time.Time `json:"receivedAt"`
}

// ToEntity converts the request to a batch entity.
func (r *CreateBatchRequest) ToEntity() (*batch.Batch, error) {
	materialID, err := ParseID(r.MaterialID)
	if err != nil {
		return nil, apperror.NewValidation("invalid material id").
			WithDetail("field", "materialId")
	}

	b := batch.NewBatch(materialID, r.LotNumber, types.NewQuantityFromFloat64(r.Total))
	b.Code = r.Code
	b.InvoiceNumber = r.InvoiceNumber
	if r.SupplierID != nil {
		supplierID, err := ParseID(*r.SupplierID)
		if err != nil {
			return nil, apperror.NewValidation("invalid supplier id").
				WithDetail("field", "supplierId")
		}
		b.SupplierID = &supplierID
	}
	if r.UnitPrice != nil {
		b.UnitPrice = types.NewMoney(*r.UnitPrice)
	}
	if r.ReceivedAt != nil {
		b.ReceivedAt = r.ReceivedAt.UTC()
	}
	return b, nil
}

// UpdateBatchRequest modifies batch metadata. Stock quantities are not
// updatable through this request.
type UpdateBatchRequest struct {
	LotNumber     string     `json:"lotNumber" binding:"required"`
	InvoiceNumber *string    `json:"invoiceNumber"`
	UnitPrice     *float64   `json:"unitPrice"`
	ReceivedAt    *time.Time `json:"receivedAt"`
	Version       int        `json:"version" binding:"required,min=1"`
}

// Apply copies the updatable fields onto an existing entity.
func (r *UpdateBatchRequest) Apply(b *batch.Batch) {
	b.LotNumber = r.LotNumber
	b.InvoiceNumber = r.InvoiceNumber
	if r.UnitPrice != nil {
		b.UnitPrice = types.NewMoney(*r.UnitPrice)
	}
	if r.ReceivedAt != nil {
		b.ReceivedAt = r.ReceivedAt.UTC()
	}
	b.Version = r.Version
}

// ApproveBatchRequest records quality control approval.
type ApproveBatchRequest struct {
	ApprovedBy string `json:"approvedBy" binding:"required"`
}

// BatchResponse contains batch fields plus derived stock figures.
type BatchResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	MaterialID    string    `json:"materialId"`
	SupplierID    *string   `json:"supplierId,omitempty"`
	LotNumber     string    `json:"lotNumber"`
	InvoiceNumber *string   `json:"invoiceNumber,omitempty"`
	Total         float64   `json:"total"`
	Available     float64   `json:"available"`
	Consumed      float64   `json:"consumed"`
	UnitPrice     string    `json:"unitPrice"`
	StockValue    string    `json:"stockValue"`
	QCApproved    bool      `json:"qcApproved"`
	QCApprovedBy  *string   `json:"qcApprovedBy,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
	DeletionMark  bool      `json:"deletionMark"`
	Version       int       `json:"version"`
}

// FromBatch converts an entity.
func FromBatch(b *batch.Batch) BatchResponse {
	var supplierID *string
	if b.SupplierID != nil {
		s := b.SupplierID.String()
		supplierID = &s
	}

	return BatchResponse{
		ID:            b.ID.String(),
		Code:          b.Code,
		MaterialID:    b.MaterialID.String(),
		SupplierID:    supplierID,
		LotNumber:     b.LotNumber,
		InvoiceNumber: b.InvoiceNumber,
		Total:         b.Total.Float64(),
		Available:     b.Available.Float64(),
		Consumed:      b.Consumed().Float64(),
		UnitPrice:     b.UnitPrice.String(),
		StockValue:    b.StockValue().String(),
		QCApproved:    b.QCApproved,
		QCApprovedBy:  b.QCApprovedBy,
		ReceivedAt:    b.ReceivedAt,
		DeletionMark:  b.DeletionMark,
		Version:       b.Version,
	}
}

// FromBatches converts a slice of entities.
func FromBatches(items []*batch.Batch) []BatchResponse {
	res := make([]BatchResponse, 0, len(items))
	for _, b := range items {
		res = append(res, FromBatch(b))
	}
	return res
}
