/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	master data for demos of the billing screen. Each scenario loads a
	catalog, a stock snapshot and the accessible warehouses, and some add
	party history or a receipt batch.

AVAILABLE SCENARIOS:

	single-warehouse: One accessible warehouse, every item auto-allocates
	multi-warehouse:  Items spread over warehouses, one held only in transit
	two-unit-items:   PCS/BOX and KG/BAG items for unit swapping
	repeat-party:     Party with billing history for rate suggestions
	large-receipt:    A cash payment split into several receipts

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Load catalog and stock via the catalog factory (same JSON as the
    upload endpoints)
 3. Load accessible warehouses
 4. Optionally record history or create a receipt batch

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "multi-warehouse"}

NOTE:

	Scenarios reset the database, receipt ledger included. The routes are
	mounted only outside production.

SEE ALSO:
  - handlers.go: Master data upload handlers
  - factory/catalog.go: Catalog and stock JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/receipts"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "single-warehouse",
		Name:        "Single Warehouse",
		Description: "One accessible warehouse; selecting an item picks it automatically",
		Category:    "billing",
	},
	{
		ID:          "multi-warehouse",
		Name:        "Multi-Warehouse",
		Description: "Stock spread over three warehouses plus an inaccessible transit store",
		Category:    "billing",
	},
	{
		ID:          "two-unit-items",
		Name:        "Two-Unit Items",
		Description: "Items sold by piece or box, kilo or bag, with rate conversion",
		Category:    "billing",
	},
	{
		ID:          "repeat-party",
		Name:        "Repeat Party",
		Description: "Retailer with previous invoices; last rate is suggested on selection",
		Category:    "billing",
	},
	{
		ID:          "large-receipt",
		Name:        "Large Cash Receipt",
		Description: "A 45,000 cash payment split into receipts under the cash limit",
		Category:    "receipts",
	},
}

// Demo master data shared by several scenarios.
const (
	groceryCatalogJSON = `[
		{"code": "SOAP100", "name": "Bath Soap 100g", "primary_unit": "PCS", "secondary_unit": "BOX", "multiplier": 12, "mrp": 45, "base_rate": 40.50, "gst_percent": 18, "pack": "12x100g"},
		{"code": "OIL1L", "name": "Sunflower Oil 1L", "primary_unit": "PCS", "mrp": 210, "base_rate": 190, "gst_percent": 5, "pack": "1L"},
		{"code": "BISC200", "name": "Glucose Biscuits 200g", "primary_unit": "PCS", "secondary_unit": "CTN", "multiplier": "48", "mrp": 30, "base_rate": 26.25, "gst_percent": 18, "pack": "48x200g"},
		{"code": "RICE25", "name": "Sona Rice", "primary_unit": "KG", "secondary_unit": "BAG", "multiplier": 25, "mrp": 62, "base_rate": 55, "gst_percent": 0, "pack": "25kg"}
	]`
	partyRetail = "P-RETAIL-01"
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "single-warehouse":
		load = h.loadSingleWarehouseScenario
	case "multi-warehouse":
		load = h.loadMultiWarehouseScenario
	case "two-unit-items":
		load = h.loadTwoUnitScenario
	case "repeat-party":
		load = h.loadRepeatPartyScenario
	case "large-receipt":
		load = h.loadLargeReceiptScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.draftMu.Lock()
	defer h.draftMu.Unlock()
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSingleWarehouseScenario(ctx context.Context) error {
	stockJSON := `[
		{"item_code": "SOAP100", "warehouse": "MAIN", "quantity": 240},
		{"item_code": "OIL1L", "warehouse": "MAIN", "quantity": 36},
		{"item_code": "BISC200", "warehouse": "MAIN", "quantity": 480},
		{"item_code": "RICE25", "warehouse": "MAIN", "quantity": 500}
	]`
	return h.loadMasterDataJSON(ctx, groceryCatalogJSON, stockJSON, "MAIN")
}

func (h *Handler) loadMultiWarehouseScenario(ctx context.Context) error {
	// OIL1L sits in two accessible warehouses, so the user has to pick.
	// BISC200 is only in TRANSIT, which is not in the user's list.
	stockJSON := `[
		{"item_code": "SOAP100", "warehouse": "CITY", "quantity": 120},
		{"item_code": "OIL1L", "warehouse": "MAIN", "quantity": 12},
		{"item_code": "OIL1L", "warehouse": "CITY", "quantity": 30},
		{"item_code": "BISC200", "warehouse": "TRANSIT", "quantity": 960},
		{"item_code": "RICE25", "warehouse": "RURAL", "quantity": "250.5"}
	]`
	return h.loadMasterDataJSON(ctx, groceryCatalogJSON, stockJSON, "MAIN", "CITY", "RURAL")
}

func (h *Handler) loadTwoUnitScenario(ctx context.Context) error {
	catalogJSON := `[
		{"code": "SOAP100", "name": "Bath Soap 100g", "primary_unit": "PCS", "secondary_unit": "BOX", "multiplier": 12, "mrp": 45, "base_rate": 40.50, "gst_percent": 18, "pack": "12x100g"},
		{"code": "RICE25", "name": "Sona Rice", "primary_unit": "KG", "secondary_unit": "BAG", "multiplier": 25, "mrp": 62, "base_rate": 55, "gst_percent": 0, "pack": "25kg"},
		{"code": "SUGAR50", "name": "Sugar", "primary_unit": "KG", "secondary_unit": "BAG", "multiplier": "", "mrp": 48, "base_rate": 44, "gst_percent": 5, "pack": "50kg"}
	]`
	stockJSON := `[
		{"item_code": "SOAP100", "warehouse": "MAIN", "quantity": 240},
		{"item_code": "RICE25", "warehouse": "MAIN", "quantity": 1000},
		{"item_code": "SUGAR50", "warehouse": "MAIN", "quantity": 400}
	]`
	return h.loadMasterDataJSON(ctx, catalogJSON, stockJSON, "MAIN")
}

func (h *Handler) loadRepeatPartyScenario(ctx context.Context) error {
	if err := h.loadSingleWarehouseScenario(ctx); err != nil {
		return err
	}
	history := map[string]billing.LastTransaction{
		"SOAP100": {Rate: "39.75", Qty: "24", SchemePercent: "2"},
		"OIL1L":   {Rate: "186", Qty: "6", CashDiscountPercent: "1"},
	}
	for item, last := range history {
		if err := h.Store.RecordTransaction(ctx, item, partyRetail, last); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadLargeReceiptScenario(ctx context.Context) error {
	if err := h.loadSingleWarehouseScenario(ctx); err != nil {
		return err
	}
	now := h.Now().UTC()
	plan, err := h.Splitter.Plan(receipts.PlanInput{
		Series:       "CR",
		StartNumber:  1001,
		Date:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Party:        partyRetail,
		Amount:       decimal.NewFromInt(45000),
		CashDiscount: decimal.NewFromInt(250),
		Narration:    "Against INV/88",
	})
	if err != nil {
		return err
	}
	return h.Store.SaveBatch(ctx, receipts.NewBatch(uuid.NewString(), plan, now))
}

// loadMasterDataJSON parses catalog and stock through the catalog factory
// and replaces the stored master data.
func (h *Handler) loadMasterDataJSON(ctx context.Context, catalogJSON, stockJSON string, warehouses ...string) error {
	items, err := h.Catalogs.ParseCatalog([]byte(catalogJSON))
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	stock, err := h.Catalogs.ParseStock([]byte(stockJSON))
	if err != nil {
		return fmt.Errorf("stock: %w", err)
	}
	if err := h.Store.ReplaceCatalog(ctx, items); err != nil {
		return err
	}
	if err := h.Store.ReplaceStock(ctx, stock); err != nil {
		return err
	}
	return h.Store.ReplaceWarehouses(ctx, h.Catalogs.WarehousesFrom(warehouses))
}
