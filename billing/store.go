/*
store.go - Ports between the billing engine and the outside world

PURPOSE:
  The engine never fetches or persists anything itself. Catalog data,
  historical pricing and draft documents come through these interfaces.

KEY INTERFACES:
  CatalogLookup:  getItem(code) -> CatalogItem | nil
  HistoryLookup:  last pricing used for an item/party pair
  HistoryRecorder: stores submitted pricing for the next document
  DraftStore:     explicit save/load of in-progress documents

IMPLEMENTATIONS:
  - billing/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go:  SQLite

SEE ALSO:
  - line.go: Uses CatalogLookup
  - api/drafts.go: Reads HistoryLookup on item selection, writes history on submit
*/
package billing

import "context"

// CatalogLookup resolves catalog items by code.
type CatalogLookup interface {
	GetItem(code string) (*CatalogItem, bool)
}

// CatalogMap is a CatalogLookup over an in-memory map.
type CatalogMap map[string]CatalogItem

// GetItem implements CatalogLookup.
func (m CatalogMap) GetItem(code string) (*CatalogItem, bool) {
	item, ok := m[code]
	if !ok {
		return nil, false
	}
	return &item, true
}

// HistoryLookup returns the last pricing used for an item and party.
// A nil result with nil error means no history.
type HistoryLookup interface {
	LastTransaction(ctx context.Context, itemCode, partyCode string) (*LastTransaction, error)
}

// HistoryRecorder stores the pricing of a submitted line so the next
// document for the same party can reuse it.
type HistoryRecorder interface {
	RecordTransaction(ctx context.Context, itemCode, partyCode string, last LastTransaction) error
}

// HistoryEntry is the pricing of one submitted line.
type HistoryEntry struct {
	ItemCode string
	Last     LastTransaction
}

// HistoryEntries returns the pricing of every item line, in document order.
func (d Document) HistoryEntries() []HistoryEntry {
	items := d.ItemLines()
	out := make([]HistoryEntry, 0, len(items))
	for _, i := range items {
		l := d.Lines[i]
		out = append(out, HistoryEntry{
			ItemCode: l.ItemCode,
			Last: LastTransaction{
				Rate:                l.Rate,
				Qty:                 l.Qty,
				SchemeFlat:          l.SchemeFlat,
				SchemePercent:       l.SchemePercent,
				CashDiscountPercent: l.CashDiscountPercent,
			},
		})
	}
	return out
}

// DraftStore persists documents that are still being edited.
type DraftStore interface {
	// SaveDraft inserts or replaces the draft with doc.ID.
	SaveDraft(ctx context.Context, doc Document) error

	// LoadDraft returns ErrDraftNotFound for unknown IDs.
	LoadDraft(ctx context.Context, id string) (Document, error)

	DeleteDraft(ctx context.Context, id string) error
}
