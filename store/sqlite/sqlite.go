/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the persistence ports of the billing and receipts packages
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  billing.DraftStore:    In-progress invoice documents
  billing.HistoryLookup: Last pricing per item/party
  receipts.BatchStore:   Split receipt batches and per-receipt status
  receipts.LedgerStore:  Append-only record of saved receipts

APPEND-ONLY ENFORCEMENT:
  The receipt_ledger table is never updated, and only Reset (demo data)
  deletes from it. The unique idempotency_key column rejects a second
  insert of the same receipt.

KEY TABLES:
  catalog_items:     Item master (numeric fields kept as entered)
  stock:             Quantity per item and warehouse
  warehouses:        Warehouses the current user may pick from
  drafts:            Documents serialised as JSON
  item_history:      Last rate/qty/scheme billed per item and party
  receipt_batches:   One row per split payment
  receipt_entries:   One row per planned receipt in a batch
  receipt_ledger:    Receipts that reached the books

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/invoice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go: Billing ports
  - receipts/store.go, receipts/ledger.go: Receipt ports
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/receipts"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS catalog_items (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		primary_unit TEXT NOT NULL,
		secondary_unit TEXT NOT NULL DEFAULT '',
		multiplier TEXT NOT NULL DEFAULT '',
		mrp TEXT NOT NULL DEFAULT '',
		base_rate TEXT NOT NULL DEFAULT '',
		gst_percent TEXT NOT NULL DEFAULT '',
		pack TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stock (
		item_code TEXT NOT NULL,
		warehouse TEXT NOT NULL,
		quantity TEXT NOT NULL,
		PRIMARY KEY (item_code, warehouse)
	);

	CREATE TABLE IF NOT EXISTS warehouses (
		code TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		series TEXT NOT NULL,
		number INTEGER NOT NULL,
		party TEXT NOT NULL DEFAULT '',
		document_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS item_history (
		item_code TEXT NOT NULL,
		party_code TEXT NOT NULL,
		rate TEXT NOT NULL DEFAULT '',
		qty TEXT NOT NULL DEFAULT '',
		scheme_flat TEXT NOT NULL DEFAULT '',
		scheme_percent TEXT NOT NULL DEFAULT '',
		cash_discount_percent TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (item_code, party_code)
	);

	CREATE TABLE IF NOT EXISTS receipt_batches (
		id TEXT PRIMARY KEY,
		series TEXT NOT NULL,
		party TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS receipt_entries (
		batch_id TEXT NOT NULL REFERENCES receipt_batches(id) ON DELETE CASCADE,
		sequence_offset INTEGER NOT NULL,
		document_number INTEGER NOT NULL,
		series TEXT NOT NULL,
		receipt_date TEXT NOT NULL,
		party TEXT NOT NULL,
		amount TEXT NOT NULL,
		cash_discount TEXT NOT NULL,
		narration TEXT NOT NULL,
		idempotency_key TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		error TEXT NOT NULL DEFAULT '',
		submitted_at TEXT,
		PRIMARY KEY (batch_id, sequence_offset)
	);

	CREATE INDEX IF NOT EXISTS idx_receipt_entries_status
		ON receipt_entries(status);

	-- Append-only
	CREATE TABLE IF NOT EXISTS receipt_ledger (
		idempotency_key TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		series TEXT NOT NULL,
		document_number INTEGER NOT NULL,
		party TEXT NOT NULL,
		amount TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_receipt_ledger_batch
		ON receipt_ledger(batch_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG, STOCK AND WAREHOUSES
// =============================================================================

// ReplaceCatalog swaps the whole item master in one transaction.
func (s *Store) ReplaceCatalog(ctx context.Context, items []billing.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM catalog_items"); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_items
			(code, name, primary_unit, secondary_unit, multiplier, mrp, base_rate, gst_percent, pack, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, it.Code, it.Name, it.PrimaryUnit, it.SecondaryUnit, it.Multiplier, it.MRP,
			it.BaseRate, it.GSTPercent, it.Pack, now)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.Code, err)
		}
	}
	return tx.Commit()
}

// LoadCatalog returns the item master keyed by code.
func (s *Store) LoadCatalog(ctx context.Context) (billing.CatalogMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, primary_unit, secondary_unit, multiplier, mrp, base_rate, gst_percent, pack
		FROM catalog_items
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	catalog := make(billing.CatalogMap)
	for rows.Next() {
		var it billing.CatalogItem
		if err := rows.Scan(&it.Code, &it.Name, &it.PrimaryUnit, &it.SecondaryUnit,
			&it.Multiplier, &it.MRP, &it.BaseRate, &it.GSTPercent, &it.Pack); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		catalog[it.Code] = it
	}
	return catalog, rows.Err()
}

// ReplaceStock swaps the stock snapshot.
func (s *Store) ReplaceStock(ctx context.Context, stock billing.StockMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stock"); err != nil {
		return fmt.Errorf("failed to clear stock: %w", err)
	}
	for item, byWarehouse := range stock {
		for wh, qty := range byWarehouse {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO stock (item_code, warehouse, quantity) VALUES (?, ?, ?)",
				item, wh, qty.String(),
			); err != nil {
				return fmt.Errorf("failed to insert stock %s/%s: %w", item, wh, err)
			}
		}
	}
	return tx.Commit()
}

// LoadStock returns the stock snapshot.
func (s *Store) LoadStock(ctx context.Context) (billing.StockMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT item_code, warehouse, quantity FROM stock")
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	defer rows.Close()

	stock := make(billing.StockMap)
	for rows.Next() {
		var item, wh, qty string
		if err := rows.Scan(&item, &wh, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		if stock[item] == nil {
			stock[item] = make(map[string]decimal.Decimal)
		}
		stock[item][wh] = billing.ParseNumber(qty)
	}
	return stock, rows.Err()
}

// ReplaceWarehouses stores the accessible warehouse list, keeping order.
func (s *Store) ReplaceWarehouses(ctx context.Context, codes billing.WarehouseList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM warehouses"); err != nil {
		return fmt.Errorf("failed to clear warehouses: %w", err)
	}
	for i, c := range codes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO warehouses (code, position) VALUES (?, ?)", c, i,
		); err != nil {
			return fmt.Errorf("failed to insert warehouse %s: %w", c, err)
		}
	}
	return tx.Commit()
}

// LoadWarehouses returns the accessible warehouses in stored order.
func (s *Store) LoadWarehouses(ctx context.Context) (billing.WarehouseList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT code FROM warehouses ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var out billing.WarehouseList
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// DRAFT STORE (billing.DraftStore interface)
// =============================================================================

// SaveDraft inserts or replaces the draft with doc.ID.
func (s *Store) SaveDraft(ctx context.Context, doc billing.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, series, number, party, document_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			series = excluded.series,
			number = excluded.number,
			party = excluded.party,
			document_json = excluded.document_json,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Series, doc.Number, doc.Party, string(body), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// LoadDraft returns billing.ErrDraftNotFound for unknown IDs.
func (s *Store) LoadDraft(ctx context.Context, id string) (billing.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRowContext(ctx, "SELECT document_json FROM drafts WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Document{}, billing.ErrDraftNotFound
	}
	if err != nil {
		return billing.Document{}, fmt.Errorf("failed to load draft: %w", err)
	}

	var doc billing.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return billing.Document{}, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	return doc, nil
}

func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", id)
	return err
}

// =============================================================================
// HISTORY (billing.HistoryLookup interface)
// =============================================================================

const upsertHistorySQL = `
	INSERT INTO item_history
	(item_code, party_code, rate, qty, scheme_flat, scheme_percent, cash_discount_percent, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(item_code, party_code) DO UPDATE SET
		rate = excluded.rate,
		qty = excluded.qty,
		scheme_flat = excluded.scheme_flat,
		scheme_percent = excluded.scheme_percent,
		cash_discount_percent = excluded.cash_discount_percent,
		recorded_at = excluded.recorded_at
`

// RecordTransaction upserts the last pricing billed to a party for an item.
func (s *Store) RecordTransaction(ctx context.Context, itemCode, partyCode string, last billing.LastTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, upsertHistorySQL, itemCode, partyCode, last.Rate, last.Qty,
		last.SchemeFlat, last.SchemePercent, last.CashDiscountPercent, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// CompleteSubmission records the history of a submitted draft and deletes
// the draft in one transaction. Nothing is written when the draft is gone.
func (s *Store) CompleteSubmission(ctx context.Context, draftID, partyCode string, entries []billing.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		last := e.Last
		_, err := tx.ExecContext(ctx, upsertHistorySQL, e.ItemCode, partyCode, last.Rate, last.Qty,
			last.SchemeFlat, last.SchemePercent, last.CashDiscountPercent, now)
		if err != nil {
			return fmt.Errorf("failed to record history for %s: %w", e.ItemCode, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", draftID)
	if err != nil {
		return fmt.Errorf("failed to remove draft: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: %s", billing.ErrDraftNotFound, draftID)
	}
	return tx.Commit()
}

// LastTransaction returns nil, nil when there is no history.
func (s *Store) LastTransaction(ctx context.Context, itemCode, partyCode string) (*billing.LastTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last billing.LastTransaction
	err := s.db.QueryRowContext(ctx, `
		SELECT rate, qty, scheme_flat, scheme_percent, cash_discount_percent
		FROM item_history WHERE item_code = ? AND party_code = ?
	`, itemCode, partyCode).Scan(&last.Rate, &last.Qty, &last.SchemeFlat, &last.SchemePercent, &last.CashDiscountPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return &last, nil
}

// =============================================================================
// RECEIPT BATCHES (receipts.BatchStore interface)
// =============================================================================

// SaveBatch writes the batch header and replaces its entries.
func (s *Store) SaveBatch(ctx context.Context, b *receipts.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipt_batches (id, series, party, original_amount, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			series = excluded.series,
			party = excluded.party,
			original_amount = excluded.original_amount
	`, b.ID, b.Series, b.Party, b.OriginalAmount.String(), b.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM receipt_entries WHERE batch_id = ?", b.ID); err != nil {
		return fmt.Errorf("failed to clear batch entries: %w", err)
	}
	for _, e := range b.Entries {
		var submittedAt sql.NullString
		if !e.SubmittedAt.IsZero() {
			submittedAt = nullString(e.SubmittedAt.UTC().Format(time.RFC3339))
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO receipt_entries
			(batch_id, sequence_offset, document_number, series, receipt_date, party, amount,
			 cash_discount, narration, idempotency_key, status, error, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, b.ID, e.SequenceOffset, e.DocumentNumber, e.Series, e.Date.Format("2006-01-02"),
			e.Party, e.Amount.String(), e.CashDiscount.String(), e.Narration,
			e.IdempotencyKey, string(e.Status), e.Error, submittedAt)
		if err != nil {
			return fmt.Errorf("failed to save entry %d: %w", e.DocumentNumber, err)
		}
	}
	return tx.Commit()
}

// LoadBatch returns receipts.ErrBatchNotFound for unknown IDs.
func (s *Store) LoadBatch(ctx context.Context, id string) (*receipts.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := &receipts.Batch{ID: id}
	var amount, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT series, party, original_amount, created_at FROM receipt_batches WHERE id = ?", id,
	).Scan(&b.Series, &b.Party, &amount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, receipts.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	b.OriginalAmount = billing.ParseNumber(amount)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_offset, document_number, series, receipt_date, party, amount,
		       cash_discount, narration, idempotency_key, status, error, submitted_at
		FROM receipt_entries WHERE batch_id = ?
		ORDER BY sequence_offset ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e                       receipts.Entry
			date, amt, discount, st string
			submittedAt             sql.NullString
		)
		if err := rows.Scan(&e.SequenceOffset, &e.DocumentNumber, &e.Series, &date, &e.Party,
			&amt, &discount, &e.Narration, &e.IdempotencyKey, &st, &e.Error, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Date, _ = time.Parse("2006-01-02", date)
		e.Amount = billing.ParseNumber(amt)
		e.CashDiscount = billing.ParseNumber(discount)
		e.Status = receipts.Status(st)
		if submittedAt.Valid {
			e.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt.String)
		}
		b.Entries = append(b.Entries, e)
	}
	return b, rows.Err()
}

// OpenBatches returns IDs of batches with receipts not yet submitted.
func (s *Store) OpenBatches(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id FROM receipt_batches b
		WHERE EXISTS (
			SELECT 1 FROM receipt_entries e
			WHERE e.batch_id = b.id AND e.status != 'submitted'
		)
		ORDER BY b.created_at ASC, b.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query open batches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// RECEIPT LEDGER (receipts.LedgerStore interface)
// =============================================================================

// AppendReceipt records r. Returns receipts.ErrDuplicateIdempotencyKey if
// the key was already recorded.
func (s *Store) AppendReceipt(ctx context.Context, batchID string, r receipts.PlannedReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipt_ledger
		(idempotency_key, batch_id, series, document_number, party, amount, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.IdempotencyKey, batchID, r.Series, r.DocumentNumber, r.Party, r.Amount.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return receipts.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append receipt: %w", err)
	}
	return nil
}

// ReceiptExists checks if an idempotency key was recorded.
func (s *Store) ReceiptExists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM receipt_ledger WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

// Reset clears all data (for demo scenarios). It is the only path that
// deletes from receipt_ledger.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"receipt_ledger", "receipt_entries", "receipt_batches",
		"item_history", "drafts", "warehouses", "stock", "catalog_items",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
