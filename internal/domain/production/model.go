// Package production manages production orders and their atomic
// consumption of raw-material batches.
package production

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/entity"
	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/ledger"
)

// Order is a production order document. Creating it commits the listed
// consumption against batch stock in the same transaction; deleting it
// reverses that consumption exactly.
type Order struct {
	entity.Document

	// ProductID references the produced item
	ProductID id.ID `db:"product_id" json:"productId"`

	// LotCode is the production lot code printed on the output
	LotCode string `db:"lot_code" json:"lotCode"`

	// BatchSize is the produced quantity (units of output)
	BatchSize int `db:"batch_size" json:"batchSize"`

	// Entries list the requested batch deductions, in request order.
	// Immutable once the order is committed.
	Entries []ledger.ConsumptionRequest `db:"-" json:"entries"`
}

// NewOrder creates an order dated now.
func NewOrder(productID id.ID, lotCode string, batchSize int) *Order {
	return &Order{
		Document:  entity.NewDocument(),
		ProductID: productID,
		LotCode:   lotCode,
		BatchSize: batchSize,
	}
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}

	if o.LotCode == "" {
		return apperror.NewValidation("lot code is required").
			WithDetail("field", "lotCode")
	}

	if o.BatchSize <= 0 {
		return apperror.NewValidation("batch size must be positive").
			WithDetail("field", "batchSize")
	}

	if len(o.Entries) == 0 {
		return apperror.NewValidation("order requires at least one consumption entry").
			WithDetail("field", "entries")
	}

	seen := make(map[id.ID]struct{}, len(o.Entries))
	for i, e := range o.Entries {
		if id.IsNil(e.BatchID) {
			return apperror.NewValidation("entry batch is required").
				WithDetail("field", "entries").
				WithDetail("index", i)
		}
		if !e.Quantity.IsPositive() {
			return apperror.NewValidation("entry quantity must be positive").
				WithDetail("field", "entries").
				WithDetail("index", i).
				WithDetail("batch_id", e.BatchID.String())
		}
		if _, dup := seen[e.BatchID]; dup {
			return apperror.NewValidation("batch referenced more than once").
				WithDetail("field", "entries").
				WithDetail("batch_id", e.BatchID.String())
		}
		seen[e.BatchID] = struct{}{}
	}

	return nil
}

// TotalConsumed sums the requested quantities across entries.
func (o *Order) TotalConsumed() types.Quantity {
	var total types.Quantity
	for _, e := range o.Entries {
		total += e.Quantity
	}
	return total
}

// ProductionDate is the business date of the order.
func (o *Order) ProductionDate() time.Time {
	return o.Date
}
