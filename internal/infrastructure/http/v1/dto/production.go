package dto

import (
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/production"
)

// ConsumptionEntryRequest is one requested batch deduction.
type ConsumptionEntryRequest struct {
	BatchID  string  `json:"batchId" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest creates a production order and commits its
// consumption in one transaction.
type CreateOrderRequest struct {
	Number    string                    `json:"number"`
	Date      *time.Time                `json:"date"`
	ProductID string                    `json:"productId" binding:"required"`
	LotCode   string                    `json:"lotCode" binding:"required"`
	BatchSize int                       `json:"batchSize" binding:"required,gt=0"`
	Comment   string                    `json:"comment"`
	Entries   []ConsumptionEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// ToEntity converts the request to an order entity.
func (r *CreateOrderRequest) ToEntity() (*production.Order, error) {
	productID, err := ParseID(r.ProductID)
	if err != nil {
		return nil, apperror.NewValidation("invalid product id").
			WithDetail("field", "productId")
	}

	o := production.NewOrder(productID, r.LotCode, r.BatchSize)
	o.Number = r.Number
	o.Comment = r.Comment
	if r.Date != nil {
		o.Date = r.Date.UTC()
	}

	o.Entries = make([]ledger.ConsumptionRequest, 0, len(r.Entries))
	for i, e := range r.Entries {
		batchID, err := ParseID(e.BatchID)
		if err != nil {
			return nil, apperror.NewValidation("invalid batch id").
				WithDetail("field", "entries").
				WithDetail("index", i)
		}
		o.Entries = append(o.Entries, ledger.ConsumptionRequest{
			BatchID:  batchID,
			Quantity: types.NewQuantityFromFloat64(e.Quantity),
		})
	}
	return o, nil
}

// UpdateOrderRequest modifies order metadata. Consumption entries are
// immutable once committed; to change them, delete and recreate.
type UpdateOrderRequest struct {
	Date      *time.Time `json:"date"`
	LotCode   string     `json:"lotCode" binding:"required"`
	BatchSize int        `json:"batchSize" binding:"required,gt=0"`
	Comment   string     `json:"comment"`
	Version   int        `json:"version" binding:"required,min=1"`
}

// Apply copies the updatable fields onto an existing entity.
func (r *UpdateOrderRequest) Apply(o *production.Order) {
	if r.Date != nil {
		o.Date = r.Date.UTC()
	}
	o.LotCode = r.LotCode
	o.BatchSize = r.BatchSize
	o.Comment = r.Comment
	o.Version = r.Version
}

// ConsumptionEntryResponse is one committed batch deduction.
type ConsumptionEntryResponse struct {
	BatchID  string  `json:"batchId"`
	Quantity float64 `json:"quantity"`
}

// OrderResponse contains order fields plus its consumption entries.
type OrderResponse struct {
	ID            string                     `json:"id"`
	Number        string                     `json:"number"`
	Date          time.Time                  `json:"date"`
	ProductID     string                     `json:"productId"`
	LotCode       string                     `json:"lotCode"`
	BatchSize     int                        `json:"batchSize"`
	Committed     bool                       `json:"committed"`
	Comment       string                     `json:"comment,omitempty"`
	Entries       []ConsumptionEntryResponse `json:"entries"`
	TotalConsumed float64                    `json:"totalConsumed"`
	Version       int                        `json:"version"`
}

// FromOrder converts an entity.
func FromOrder(o *production.Order) OrderResponse {
	entries := make([]ConsumptionEntryResponse, 0, len(o.Entries))
	for _, e := range o.Entries {
		entries = append(entries, ConsumptionEntryResponse{
			BatchID:  e.BatchID.String(),
			Quantity: e.Quantity.Float64(),
		})
	}
	return OrderResponse{
		ID:            o.ID.String(),
		Number:        o.Number,
		Date:          o.Date,
		ProductID:     o.ProductID.String(),
		LotCode:       o.LotCode,
		BatchSize:     o.BatchSize,
		Committed:     o.Committed,
		Comment:       o.Comment,
		Entries:       entries,
		TotalConsumed: o.TotalConsumed().Float64(),
		Version:       o.Version,
	}
}

// FromOrders converts a slice of entities.
func FromOrders(items []*production.Order) []OrderResponse {
	res := make([]OrderResponse, 0, len(items))
	for _, o := range items {
		res = append(res, FromOrder(o))
	}
	return res
}
