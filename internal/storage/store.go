// store.go - Expense store interface and backend selection

package storage

import (
	"errors"
	"fmt"

	"github.com/smartspend/expense-agent/configs"
)

// ErrNotFound is returned when an update/delete targets an unknown record ID
var ErrNotFound = errors.New("expense record not found")

// Store is the persistence contract for expense records
type Store interface {
	// Load returns all records, newest date first, with legacy defaults
	// backfilled
	Load() ([]ExpenseRecord, error)

	// Add persists a new record, minting its ID and timestamp, and returns
	// the stored form
	Add(rec ExpenseRecord) (ExpenseRecord, error)

	// Update replaces the record with the given ID, preserving its identity
	Update(id string, rec ExpenseRecord) error

	// Delete removes the record with the given ID
	Delete(id string) error

	// Clear removes all records
	Clear() error
}

// NewStore creates the store backend selected by configuration
func NewStore() (Store, error) {
	switch configs.STORAGE_BACKEND {
	case "jsonfile":
		return NewJSONFileStore(configs.DATA_FILE)
	case "mongo":
		return NewMongoStore(configs.MONGO_URI, configs.MONGO_DB_NAME, configs.MONGO_COLLECTION)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: jsonfile, mongo)", configs.STORAGE_BACKEND)
	}
}
