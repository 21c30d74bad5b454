// Package storage persists normalized transactions. The Gateway interface
// is the single seam between the sync pipeline and whatever holds the
// data: the in-memory backend for tests, SQLite for production. Which one
// runs is a wiring decision, never an import decision.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/guarzo/sellsync/internal/model"
)

// ErrNotFound is returned by lookups that matched nothing.
var ErrNotFound = errors.New("storage: not found")

// Gateway is the storage contract consumed by the sync orchestrator and
// the analytics endpoints.
type Gateway interface {
	// GetByExternalID looks a transaction up by its eBay transaction id,
	// the dedup key. Returns ErrNotFound when absent.
	GetByExternalID(ctx context.Context, ebayTransactionID string) (*model.Transaction, error)

	// Save inserts a new transaction.
	Save(ctx context.Context, tx *model.Transaction) error

	// Update replaces the stored transaction with the same internal id.
	Update(ctx context.Context, tx *model.Transaction) error

	// ListInWindow returns transactions with a sold date inside
	// [start, end], ordered by sold date ascending.
	ListInWindow(ctx context.Context, start, end time.Time) ([]model.Transaction, error)

	// UpdateLastSyncTime records when the last successful sync finished.
	UpdateLastSyncTime(ctx context.Context, ts time.Time) error

	// GetLastSyncTime returns the recorded last sync time, or nil when no
	// sync has completed yet.
	GetLastSyncTime(ctx context.Context) (*time.Time, error)
}
