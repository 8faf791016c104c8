package receipts

import (
	"context"
	"sort"
	"sync"
)

// BatchStore persists receipt batches and their per-receipt status.
type BatchStore interface {
	SaveBatch(ctx context.Context, b *Batch) error

	// LoadBatch returns ErrBatchNotFound for unknown IDs.
	LoadBatch(ctx context.Context, id string) (*Batch, error)

	// OpenBatches returns IDs of batches with receipts not yet submitted,
	// oldest first.
	OpenBatches(ctx context.Context) ([]string, error)
}

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements BatchStore and LedgerStore.
type Memory struct {
	mu       sync.RWMutex
	batches  map[string]Batch
	receipts map[string]PlannedReceipt
}

func NewMemory() *Memory {
	return &Memory{
		batches:  make(map[string]Batch),
		receipts: make(map[string]PlannedReceipt),
	}
}

func (m *Memory) SaveBatch(_ context.Context, b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	cp.Entries = append([]Entry(nil), b.Entries...)
	m.batches[b.ID] = cp
	return nil
}

func (m *Memory) LoadBatch(_ context.Context, id string) (*Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, ErrBatchNotFound
	}
	b.Entries = append([]Entry(nil), b.Entries...)
	return &b, nil
}

func (m *Memory) OpenBatches(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var open []Batch
	for _, b := range m.batches {
		if !b.Complete() {
			open = append(open, b)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].ID < open[j].ID
		}
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	ids := make([]string, len(open))
	for i, b := range open {
		ids[i] = b.ID
	}
	return ids, nil
}

func (m *Memory) AppendReceipt(_ context.Context, _ string, r PlannedReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.receipts[r.IdempotencyKey]; ok {
		return ErrDuplicateIdempotencyKey
	}
	m.receipts[r.IdempotencyKey] = r
	return nil
}

func (m *Memory) ReceiptExists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.receipts[key]
	return ok, nil
}
