package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/guarzo/sellsync/internal/model"
)

// Memory is an in-memory Gateway. It backs tests and local development;
// data does not survive the process.
type Memory struct {
	mu           sync.RWMutex
	byID         map[string]model.Transaction
	byExternalID map[string]string // ebay transaction id -> internal id
	lastSyncTime *time.Time
}

var _ Gateway = (*Memory)(nil)

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{
		byID:         make(map[string]model.Transaction),
		byExternalID: make(map[string]string),
	}
}

func (m *Memory) GetByExternalID(_ context.Context, ebayTransactionID string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byExternalID[ebayTransactionID]
	if !ok {
		return nil, ErrNotFound
	}
	tx := m.byID[id]
	return &tx, nil
}

func (m *Memory) Save(_ context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[tx.ID] = *tx
	m.byExternalID[tx.EbayTransactionID] = tx.ID
	return nil
}

func (m *Memory) Update(_ context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[tx.ID]; !ok {
		return ErrNotFound
	}
	m.byID[tx.ID] = *tx
	m.byExternalID[tx.EbayTransactionID] = tx.ID
	return nil
}

func (m *Memory) ListInWindow(_ context.Context, start, end time.Time) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Transaction
	for _, tx := range m.byID {
		if tx.SoldDate.Before(start) || tx.SoldDate.After(end) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SoldDate.Before(out[j].SoldDate) })
	return out, nil
}

func (m *Memory) UpdateLastSyncTime(_ context.Context, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSyncTime = &ts
	return nil
}

func (m *Memory) GetLastSyncTime(_ context.Context) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastSyncTime == nil {
		return nil, nil
	}
	ts := *m.lastSyncTime
	return &ts, nil
}

// Count returns the number of stored transactions. Test helper.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
