/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Catalog, stock and warehouses are loaded
	- Allocation behaves as the scenario describes
	- History and receipt batches are created

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/store/sqlite"
)

func setupTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewHandler(store)
}

func TestScenario_SingleWarehouse(t *testing.T) {
	// GIVEN: Single warehouse scenario
	// WHEN: Selecting any item
	// THEN: MAIN is picked automatically

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadSingleWarehouseScenario(ctx); err != nil {
		t.Fatalf("Failed to load single-warehouse scenario: %v", err)
	}

	eng, err := handler.lineEngine(ctx)
	if err != nil {
		t.Fatalf("Failed to build line engine: %v", err)
	}
	catalog, err := handler.Store.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog) != 4 {
		t.Errorf("Expected 4 catalog items, got %d", len(catalog))
	}

	doc := billing.NewDocument("INV", 1)
	doc, out, err := eng.SelectItem(doc, 0, "RICE25")
	if err != nil {
		t.Fatalf("SelectItem failed: %v", err)
	}
	if doc.Lines[0].Warehouse != "MAIN" {
		t.Errorf("Expected warehouse MAIN, got %q", doc.Lines[0].Warehouse)
	}
	if out.Focus != billing.FocusQty {
		t.Errorf("Expected focus on qty, got %q", out.Focus)
	}
	if doc.Lines[0].Rate != "55" {
		t.Errorf("Expected rate 55, got %q", doc.Lines[0].Rate)
	}
}

func TestScenario_MultiWarehouse(t *testing.T) {
	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadMultiWarehouseScenario(ctx); err != nil {
		t.Fatalf("Failed to load multi-warehouse scenario: %v", err)
	}
	eng, err := handler.lineEngine(ctx)
	if err != nil {
		t.Fatalf("Failed to build line engine: %v", err)
	}

	doc := billing.NewDocument("INV", 3)

	// Two accessible candidates: user must choose
	doc, _, _ = eng.SelectItem(doc, 0, "OIL1L")
	if doc.Lines[0].Warehouse != "" {
		t.Errorf("Expected no warehouse for OIL1L, got %q", doc.Lines[0].Warehouse)
	}
	if !doc.Lines[0].TotalStock.Equal(billing.ParseNumber("42")) {
		t.Errorf("Expected total stock 42, got %s", doc.Lines[0].TotalStock)
	}

	// Only in TRANSIT: visible in total, not selectable
	doc, _, _ = eng.SelectItem(doc, 1, "BISC200")
	if doc.Lines[1].Warehouse != "" {
		t.Errorf("Expected no warehouse for BISC200, got %q", doc.Lines[1].Warehouse)
	}
	if _, _, err := eng.SelectWarehouse(doc, 1, "TRANSIT"); !errors.Is(err, billing.ErrWarehouseNotAccessible) {
		t.Errorf("Expected ErrWarehouseNotAccessible, got %v", err)
	}

	// Fractional stock is kept as the limit
	doc, _, _ = eng.SelectItem(doc, 2, "RICE25")
	if doc.Lines[2].Warehouse != "RURAL" {
		t.Errorf("Expected warehouse RURAL, got %q", doc.Lines[2].Warehouse)
	}
	if doc.Lines[2].StockLimit.String() != "250.5" {
		t.Errorf("Expected stock limit 250.5, got %s", doc.Lines[2].StockLimit)
	}
}

func TestScenario_TwoUnitItems(t *testing.T) {
	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadTwoUnitScenario(ctx); err != nil {
		t.Fatalf("Failed to load two-unit-items scenario: %v", err)
	}
	eng, err := handler.lineEngine(ctx)
	if err != nil {
		t.Fatalf("Failed to build line engine: %v", err)
	}

	doc := billing.NewDocument("INV", 2)
	doc, _, _ = eng.SelectItem(doc, 0, "RICE25")
	doc, _, err = eng.SwapUnit(doc, 0)
	if err != nil {
		t.Fatalf("SwapUnit failed: %v", err)
	}
	if doc.Lines[0].Unit != "BAG" || doc.Lines[0].Rate != "1375.00" {
		t.Errorf("Expected BAG at 1375.00, got %s at %s", doc.Lines[0].Unit, doc.Lines[0].Rate)
	}

	// Missing multiplier converts to a zero rate
	doc, _, _ = eng.SelectItem(doc, 1, "SUGAR50")
	doc, _, _ = eng.SwapUnit(doc, 1)
	if doc.Lines[1].Rate != "0.00" {
		t.Errorf("Expected rate 0.00 for SUGAR50 bag, got %s", doc.Lines[1].Rate)
	}
}

func TestScenario_RepeatParty(t *testing.T) {
	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadRepeatPartyScenario(ctx); err != nil {
		t.Fatalf("Failed to load repeat-party scenario: %v", err)
	}

	last, err := handler.Store.LastTransaction(ctx, "SOAP100", partyRetail)
	if err != nil {
		t.Fatalf("LastTransaction failed: %v", err)
	}
	if last == nil || last.Rate != "39.75" || last.Qty != "24" {
		t.Errorf("Unexpected history for SOAP100: %+v", last)
	}

	last, _ = handler.Store.LastTransaction(ctx, "RICE25", partyRetail)
	if last != nil {
		t.Errorf("Expected no history for RICE25, got %+v", last)
	}
}

func TestScenario_LargeReceipt(t *testing.T) {
	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadLargeReceiptScenario(ctx); err != nil {
		t.Fatalf("Failed to load large-receipt scenario: %v", err)
	}

	open, err := handler.Store.OpenBatches(ctx)
	if err != nil {
		t.Fatalf("OpenBatches failed: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("Expected 1 open batch, got %d", len(open))
	}
	batch, err := handler.Store.LoadBatch(ctx, open[0])
	if err != nil {
		t.Fatalf("LoadBatch failed: %v", err)
	}
	if len(batch.Entries) != 3 {
		t.Errorf("Expected 3 receipts, got %d", len(batch.Entries))
	}
	if batch.Entries[0].DocumentNumber != 1001 || batch.Entries[2].DocumentNumber != 1003 {
		t.Errorf("Unexpected numbering: %d..%d", batch.Entries[0].DocumentNumber, batch.Entries[2].DocumentNumber)
	}
}

func TestScenario_LoadEndpoint(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler, RouterOptions{DemoScenarios: true})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/scenarios/load", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Drafts from before the load are cleared
	ctx := context.Background()
	if err := handler.Store.SaveDraft(ctx, billing.Document{ID: "old", Series: "INV"}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	if rec := post(`{"scenario_id": "two-unit-items"}`); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := handler.Store.LoadDraft(ctx, "old"); !errors.Is(err, billing.ErrDraftNotFound) {
		t.Errorf("Expected draft to be cleared, got %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/scenarios/current", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `"id":"two-unit-items"`) {
		t.Errorf("Expected current scenario two-unit-items, got %s", rec.Body.String())
	}

	if rec := post(`{"scenario_id": "nope"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scenario, got %d", rec.Code)
	}
	if rec := post(`{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing scenario id, got %d", rec.Code)
	}
}

func TestScenario_RoutesHiddenWhenDisabled(t *testing.T) {
	router := NewRouter(setupTestHandler(t), RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/api/scenarios/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without demo scenarios, got %d", rec.Code)
	}
}
