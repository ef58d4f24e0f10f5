// Package ledger records which production order consumed how much from
// which batch, and moves the stock accordingly. All multi-batch
// consumption goes through CommitConsumption / ReverseConsumption so a
// batch can never be left half-consumed by a failed order.
package ledger

import (
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
)

// ConsumptionRequest is one requested deduction within an order commit.
type ConsumptionRequest struct {
	BatchID  id.ID          `json:"batchId"`
	Quantity types.Quantity `json:"quantity"`
}

// ConsumptionEntry is a recorded deduction. One row per (order, batch);
// its existence proves the batch stock was moved, so reversal trusts the
// entries and nothing else.
type ConsumptionEntry struct {
	ID       id.ID          `db:"id" json:"id"`
	OrderID  id.ID          `db:"order_id" json:"orderId"`
	BatchID  id.ID          `db:"batch_id" json:"batchId"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
