package entity

import (
	"context"
	"time"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
)

// Document is the base type for business transactions.
// Examples: ProductionOrder, GoodsReceipt.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Committed indicates that the document's stock movements are recorded
	// in the consumption ledger. A document is never observable in a
	// partially committed state: recording happens in the same transaction
	// that persists the document.
	Committed bool `db:"committed" json:"committed"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// MarkCommitted sets the committed flag.
// The version bump happens in the repository on update.
func (d *Document) MarkCommitted() {
	d.Committed = true
	d.SetUpdatedAt(time.Now().UTC())
}

// MarkReversed clears the committed flag.
func (d *Document) MarkReversed() {
	d.Committed = false
	d.SetUpdatedAt(time.Now().UTC())
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}

// IsCommitted returns true if document movements are recorded in the ledger.
func (d *Document) IsCommitted() bool {
	return d.Committed
}
