// Package batch tracks per-delivery stock lots of raw materials.
// Each batch carries a total received quantity and a currently available
// quantity; the stock invariant 0 <= available <= total holds at all times.
package batch

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/entity"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// Batch represents a single received lot of a raw material.
type Batch struct {
	entity.BaseDocument

	// Code is the human-readable batch code (generated, e.g. "BT-00042")
	Code string `db:"code" json:"code"`

	// MaterialID references the material this batch belongs to
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// SupplierID references the supplier this lot was received from.
	// The supplier catalog lives outside this system; nil when unknown.
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// LotNumber is the supplier's lot number printed on the package
	LotNumber string `db:"lot_number" json:"lotNumber"`

	// InvoiceNumber references the purchase invoice
	InvoiceNumber *string `db:"invoice_number" json:"invoiceNumber,omitempty"`

	// Total is the quantity received, immutable after creation
	Total types.Quantity `db:"total" json:"total"`

	// Available is the quantity not yet consumed by production
	Available types.Quantity `db:"available" json:"available"`

	// UnitPrice is the purchase price per unit of measure
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// Quality control approval
	QCApproved   bool    `db:"qc_approved" json:"qcApproved"`
	QCApprovedBy *string `db:"qc_approved_by" json:"qcApprovedBy,omitempty"`

	// ReceivedAt is the delivery date
	ReceivedAt time.Time `db:"received_at" json:"receivedAt"`
}

// NewBatch creates a batch with the full quantity available.
func NewBatch(materialID id.ID, lotNumber string, total types.Quantity) *Batch {
	return &Batch{
		BaseDocument: entity.NewBaseDocument(),
		MaterialID:   materialID,
		LotNumber:    lotNumber,
		Total:        total,
		Available:    total,
		UnitPrice:    types.ZeroMoney(),
		ReceivedAt:   time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
func (b *Batch) Validate(ctx context.Context) error {
	if id.IsNil(b.MaterialID) {
		return apperror.NewValidation("material is required").
			WithDetail("field", "materialId")
	}

	if b.LotNumber == "" {
		return apperror.NewValidation("lot number is required").
			WithDetail("field", "lotNumber")
	}

	if !b.Total.IsPositive() {
		return apperror.NewValidation("total quantity must be positive").
			WithDetail("field", "total")
	}

	if b.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	return b.CheckStockInvariant()
}

// CheckStockInvariant verifies 0 <= available <= total.
// A violation here means corrupted state, not bad input.
func (b *Batch) CheckStockInvariant() error {
	if b.Available.IsNegative() || b.Available > b.Total {
		return apperror.NewInvariantViolation("batch stock out of bounds").
			WithDetail("batch_id", b.ID.String()).
			WithDetail("available", b.Available.String()).
			WithDetail("total", b.Total.String())
	}
	return nil
}

// StockValue returns the monetary value of the remaining stock.
func (b *Batch) StockValue() types.Money {
	return b.UnitPrice.Mul(b.Available.Decimal())
}

// Consumed returns the quantity already consumed from this batch.
func (b *Batch) Consumed() types.Quantity {
	return b.Total - b.Available
}

// Approve records quality control approval.
// The version bump happens in the repository on update.
func (b *Batch) Approve(approvedBy string) {
	b.QCApproved = true
	b.QCApprovedBy = &approvedBy
	b.SetUpdatedAt(time.Now().UTC())
}
