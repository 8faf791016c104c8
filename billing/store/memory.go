// Package store provides in-memory implementations of the billing ports.
package store

import (
	"context"
	"sync"

	"github.com/warp/invoice-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements billing.DraftStore and billing.HistoryLookup.
type Memory struct {
	mu      sync.RWMutex
	drafts  map[string]billing.Document
	history map[historyKey]billing.LastTransaction
}

type historyKey struct {
	ItemCode  string
	PartyCode string
}

func NewMemory() *Memory {
	return &Memory{
		drafts:  make(map[string]billing.Document),
		history: make(map[historyKey]billing.LastTransaction),
	}
}

// SaveDraft stores a copy of doc, replacing any draft with the same ID.
func (m *Memory) SaveDraft(_ context.Context, doc billing.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[doc.ID] = copyDocument(doc)
	return nil
}

func (m *Memory) LoadDraft(_ context.Context, id string) (billing.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.drafts[id]
	if !ok {
		return billing.Document{}, billing.ErrDraftNotFound
	}
	return copyDocument(doc), nil
}

func (m *Memory) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

// RecordTransaction remembers the pricing billed to a party for an item.
func (m *Memory) RecordTransaction(_ context.Context, itemCode, partyCode string, last billing.LastTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[historyKey{ItemCode: itemCode, PartyCode: partyCode}] = last
	return nil
}

func (m *Memory) LastTransaction(_ context.Context, itemCode, partyCode string) (*billing.LastTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last, ok := m.history[historyKey{ItemCode: itemCode, PartyCode: partyCode}]
	if !ok {
		return nil, nil
	}
	return &last, nil
}

func copyDocument(doc billing.Document) billing.Document {
	out := doc
	out.Lines = append([]billing.Line(nil), doc.Lines...)
	return out
}
