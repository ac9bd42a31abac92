// record.go - Expense record model owned by the persistence layer

package storage

import (
	"time"

	"github.com/google/uuid"
)

// ExpenseRecord is one stored expense. Records are immutable once written
// except through an explicit update, and carry a generated opaque ID so
// update/delete stay stable under reordering.
type ExpenseRecord struct {
	ID          string    `json:"id" bson:"id"`
	Date        string    `json:"date" bson:"date"` // ISO-8601 calendar date
	Merchant    string    `json:"merchant" bson:"merchant"`
	Amount      float64   `json:"amount" bson:"amount"`
	Category    string    `json:"category" bson:"category"`
	Confidence  float64   `json:"confidence" bson:"confidence"`
	Description string    `json:"description" bson:"description"`
	Items       []string  `json:"items,omitempty" bson:"items,omitempty"`
	IsRecurring bool      `json:"is_recurring" bson:"is_recurring"`
	Tags        []string  `json:"tags" bson:"tags"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// applyDefaults backfills fields that older persisted records may lack.
// Confidence stays at its zero value when absent; no deeper meaning is
// attached to records missing it.
func (r *ExpenseRecord) applyDefaults() {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
}
