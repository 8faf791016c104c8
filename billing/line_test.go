package billing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/invoice-engine/billing"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testCatalog() billing.CatalogMap {
	return billing.CatalogMap{
		"X001": {
			Code: "X001", Name: "Soap 100g", PrimaryUnit: "PCS", SecondaryUnit: "BOX",
			Multiplier: "12", MRP: "45", BaseRate: "40.50", GSTPercent: "18", Pack: "12x100g",
		},
		"X002": {
			Code: "X002", Name: "Oil 1L", PrimaryUnit: "PCS",
			MRP: "210", BaseRate: "190", GSTPercent: "5", Pack: "1L",
		},
		"X003": {
			Code: "X003", Name: "Rice 25kg", PrimaryUnit: "BAG", SecondaryUnit: "KG",
			Multiplier: "not-a-number", BaseRate: "1500", GSTPercent: "0", Pack: "25kg",
		},
	}
}

func testStock() billing.StockMap {
	return billing.StockMap{
		"X001": {"A": decimal.NewFromInt(50), "HIDDEN": decimal.NewFromInt(100)},
		"X002": {"A": decimal.NewFromInt(5), "B": decimal.NewFromInt(8)},
		"X003": {"B": decimal.Zero},
	}
}

func newEngine() *billing.LineEngine {
	return &billing.LineEngine{
		Catalog:    testCatalog(),
		Stock:      testStock(),
		Warehouses: billing.WarehouseList{"A", "B"},
	}
}

// =============================================================================
// STOCK ALLOCATION TESTS
// =============================================================================

func TestSelectItem_SingleAccessibleWarehouse_AutoSelected(t *testing.T) {
	// GIVEN: X001 has stock in A (accessible) and HIDDEN (not accessible)
	engine := newEngine()
	doc := billing.NewDocument("INV", 1)

	// WHEN: Selecting X001
	doc, out, err := engine.SelectItem(doc, 0, "X001")
	require.NoError(t, err)

	// THEN: A is auto-selected with its own quantity
	line := doc.Lines[0]
	assert.Equal(t, "A", line.Warehouse)
	assert.True(t, line.StockLimit.Equal(decimal.NewFromInt(50)), "stock limit %s", line.StockLimit)
	assert.True(t, line.TotalStock.Equal(decimal.NewFromInt(150)), "total stock counts every warehouse")
	assert.Equal(t, billing.FocusQty, out.Focus)
}

func TestSelectItem_TwoAccessibleWarehouses_ManualSelection(t *testing.T) {
	engine := newEngine()
	doc := billing.NewDocument("INV", 1)

	doc, out, err := engine.SelectItem(doc, 0, "X002")
	require.NoError(t, err)

	line := doc.Lines[0]
	assert.Empty(t, line.Warehouse, "no auto-selection with two candidates")
	assert.True(t, line.StockLimit.IsZero())
	assert.Equal(t, billing.FocusWarehouse, out.Focus)

	// WHEN: User picks B
	doc, _, err = engine.SelectWarehouse(doc, 0, "B")
	require.NoError(t, err)
	assert.True(t, doc.Lines[0].StockLimit.Equal(decimal.NewFromInt(8)))
}

func TestSelectItem_NoStockAnywhere_NoAutoSelection(t *testing.T) {
	engine := newEngine()
	doc, _, err := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X003")
	require.NoError(t, err)
	assert.Empty(t, doc.Lines[0].Warehouse)
	assert.True(t, doc.Lines[0].StockLimit.IsZero())
}

func TestSelectItem_ReselectWithWarehouseSet_RecomputesLimit(t *testing.T) {
	// GIVEN: Line holds X002 in warehouse A (limit 5)
	engine := newEngine()
	doc := billing.NewDocument("INV", 1)
	doc, _, _ = engine.SelectItem(doc, 0, "X002")
	doc, _, _ = engine.SelectWarehouse(doc, 0, "A")
	require.True(t, doc.Lines[0].StockLimit.Equal(decimal.NewFromInt(5)))

	// WHEN: Switching the line to X001 without clearing
	doc, _, err := engine.SelectItem(doc, 0, "X001")
	require.NoError(t, err)

	// THEN: Limit is X001's stock in A, not the stale 5
	assert.Equal(t, "A", doc.Lines[0].Warehouse)
	assert.True(t, doc.Lines[0].StockLimit.Equal(decimal.NewFromInt(50)), "got %s", doc.Lines[0].StockLimit)
}

func TestSelectWarehouse_NotAccessible_Rejected(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")

	after, _, err := engine.SelectWarehouse(doc, 0, "HIDDEN")
	assert.ErrorIs(t, err, billing.ErrWarehouseNotAccessible)
	assert.Equal(t, "A", after.Lines[0].Warehouse, "document unchanged on rejection")
}

func TestSelectWarehouse_KeepsQuantityAboveNewLimit(t *testing.T) {
	// GIVEN: X002 in B with qty 7 (limit 8)
	engine := newEngine()
	doc := billing.NewDocument("INV", 1)
	doc, _, _ = engine.SelectItem(doc, 0, "X002")
	doc, _, _ = engine.SelectWarehouse(doc, 0, "B")
	doc, out, _ := engine.EditField(doc, 0, billing.FieldQty, "7")
	require.Nil(t, out.OverStock)

	// WHEN: Moving to A (limit 5)
	doc, out, err := engine.SelectWarehouse(doc, 0, "A")
	require.NoError(t, err)

	// THEN: qty is not truncated, but flagged
	assert.Equal(t, "7", doc.Lines[0].Qty)
	require.NotNil(t, out.OverStock)
	assert.True(t, out.OverStock.Limit.Equal(decimal.NewFromInt(5)))
}

// =============================================================================
// DUPLICATE GUARD TESTS
// =============================================================================

func TestSelectItem_Duplicate_LineClearedAndConflictReported(t *testing.T) {
	// GIVEN: Line 0 holds X001
	engine := newEngine()
	doc := billing.NewDocument("INV", 3)
	doc, _, _ = engine.SelectItem(doc, 0, "X001")
	doc, _, _ = engine.EditField(doc, 2, billing.FieldRate, "99")

	// WHEN: Selecting X001 on line 2
	doc, out, err := engine.SelectItem(doc, 2, "X001")
	require.NoError(t, err)

	// THEN: line 2 is empty and line 0 is reported
	require.NotNil(t, out.Conflict)
	assert.Equal(t, 0, out.Conflict.ConflictIndex)
	assert.Equal(t, 2, out.Conflict.LineIndex)
	assert.True(t, errors.Is(out.Conflict, billing.ErrDuplicateItem))

	line := doc.Lines[2]
	assert.True(t, line.IsEmpty())
	assert.Empty(t, line.Unit)
	assert.Empty(t, line.Rate)
	assert.True(t, line.Net.IsZero())
	assert.Equal(t, "X001", doc.Lines[0].ItemCode, "original line untouched")
}

func TestSelectItem_SameItemOnSameLine_NotADuplicate(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")
	doc, out, err := engine.SelectItem(doc, 0, "X001")
	require.NoError(t, err)
	assert.Nil(t, out.Conflict)
	assert.Equal(t, "X001", doc.Lines[0].ItemCode)
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestSelectItem_PopulatesCatalogDefaults(t *testing.T) {
	engine := newEngine()
	doc, _, err := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")
	require.NoError(t, err)

	line := doc.Lines[0]
	assert.Equal(t, "PCS", line.Unit)
	assert.Equal(t, "40.5", line.Rate)
	assert.Equal(t, "12x100g", line.Pack)
	assert.Equal(t, "18", line.GSTPercent)
	assert.True(t, line.Gross.IsZero(), "no qty yet")
	assert.True(t, line.Net.IsZero())
}

func TestSelectItem_Empty_ClearsLine(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")
	doc, _, _ = engine.EditField(doc, 0, billing.FieldQty, "3")

	doc, out, err := engine.SelectItem(doc, 0, "")
	require.NoError(t, err)
	assert.Equal(t, billing.FocusItem, out.Focus)
	assert.True(t, doc.Lines[0].IsEmpty())
	assert.Empty(t, doc.Lines[0].Qty)
	assert.Empty(t, doc.Lines[0].Warehouse)
	assert.True(t, doc.Lines[0].StockLimit.IsZero())
	assert.True(t, doc.Lines[0].Gross.IsZero())
}

func TestSelectItem_UnknownCode_ClearsLine(t *testing.T) {
	engine := newEngine()
	doc, out, err := engine.SelectItem(billing.NewDocument("INV", 1), 0, "NOPE")
	require.NoError(t, err)
	assert.True(t, out.UnknownItem)
	assert.True(t, doc.Lines[0].IsEmpty())
}

func TestEditField_RepricesAndWarnsOverStock(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")

	doc, out, err := engine.EditField(doc, 0, billing.FieldQty, "60")
	require.NoError(t, err)

	// 60 * 40.5 = 2430
	assert.True(t, doc.Lines[0].Gross.Equal(dec("2430")), "gross %s", doc.Lines[0].Gross)
	require.NotNil(t, out.OverStock, "60 > 50 should warn")
	assert.Equal(t, "60", doc.Lines[0].Qty, "warning does not block the edit")

	doc, out, _ = engine.EditField(doc, 0, billing.FieldSchemePercent, "10")
	assert.Nil(t, out.OverStock, "only qty edits raise the warning")
	assert.True(t, doc.Lines[0].Net.Equal(dec("2187")), "net %s", doc.Lines[0].Net)
}

func TestEditField_UnknownField(t *testing.T) {
	engine := newEngine()
	doc := billing.NewDocument("INV", 1)
	_, _, err := engine.EditField(doc, 0, billing.Field("mrp"), "1")
	assert.ErrorIs(t, err, billing.ErrUnknownField)
}

func TestOperations_OutOfRange(t *testing.T) {
	engine := newEngine()
	doc := billing.NewDocument("INV", 1)
	_, _, err := engine.SelectItem(doc, 5, "X001")
	assert.ErrorIs(t, err, billing.ErrLineOutOfRange)
	_, _, err = engine.SwapUnit(doc, -1)
	assert.ErrorIs(t, err, billing.ErrLineOutOfRange)
}

func TestOperations_DoNotMutateInput(t *testing.T) {
	engine := newEngine()
	doc := billing.NewDocument("INV", 1)
	_, _, _ = engine.SelectItem(doc, 0, "X001")
	assert.True(t, doc.Lines[0].IsEmpty(), "input document must not change")
}

// =============================================================================
// UNIT CONVERSION TESTS
// =============================================================================

func TestSwapUnit_RoundTrip(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")
	doc, _, _ = engine.EditField(doc, 0, billing.FieldQty, "2")
	origRate, origPack := doc.Lines[0].Rate, doc.Lines[0].Pack

	// WHEN: Swap to BOX
	doc, _, err := engine.SwapUnit(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, "BOX", doc.Lines[0].Unit)
	assert.Equal(t, "486.00", doc.Lines[0].Rate) // 40.50 * 12
	assert.True(t, doc.Lines[0].Gross.Equal(dec("972")), "re-priced after swap")

	// WHEN: Swap back
	doc, _, err = engine.SwapUnit(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, "PCS", doc.Lines[0].Unit)
	assert.Equal(t, origRate, doc.Lines[0].Rate)
	assert.Equal(t, origPack, doc.Lines[0].Pack)
}

func TestSwapUnit_SingleUnitItem_NoOp(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X002")
	after, _, err := engine.SwapUnit(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, doc.Lines[0], after.Lines[0])
}

func TestSwapUnit_BadMultiplier_ZeroRate(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X003")
	doc, _, err := engine.SwapUnit(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, "KG", doc.Lines[0].Unit)
	assert.Equal(t, "0.00", doc.Lines[0].Rate)
}

// =============================================================================
// HISTORY / DOCUMENT TESTS
// =============================================================================

func TestApplyLastTransaction(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")

	doc, _, err := engine.ApplyLastTransaction(doc, 0, &billing.LastTransaction{
		Rate: "100", Qty: "10", SchemePercent: "5", CashDiscountPercent: "2",
	})
	require.NoError(t, err)
	assert.True(t, doc.Lines[0].Net.Equal(dec("931")))

	_, _, err = engine.ApplyLastTransaction(billing.NewDocument("INV", 1), 0, &billing.LastTransaction{Rate: "1"})
	assert.ErrorIs(t, err, billing.ErrNoItem)
}

func TestAddAndRemoveLine(t *testing.T) {
	engine := newEngine()
	doc := engine.AddLine(billing.NewDocument("INV", 1))
	require.Len(t, doc.Lines, 2)
	doc, _, _ = engine.SelectItem(doc, 1, "X001")

	doc, err := engine.RemoveLine(doc, 0)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "X001", doc.Lines[0].ItemCode)
}

func TestRefresh_RederivesStockFromNewSnapshot(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")

	engine.Stock = billing.StockMap{"X001": {"A": decimal.NewFromInt(3)}}
	doc = engine.Refresh(doc)
	assert.True(t, doc.Lines[0].StockLimit.Equal(decimal.NewFromInt(3)))
	assert.True(t, doc.Lines[0].TotalStock.Equal(decimal.NewFromInt(3)))
}

func TestRefresh_KeepsUnsetWarehouseUnset(t *testing.T) {
	// GIVEN: X001 auto-selected A, then the user cleared the warehouse
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X001")
	doc, _, err := engine.SelectWarehouse(doc, 0, "")
	require.NoError(t, err)
	doc, _, err = engine.EditField(doc, 0, billing.FieldQty, "3")
	require.NoError(t, err)

	// WHEN: Refreshing against an unchanged snapshot
	doc = engine.Refresh(doc)

	// THEN: The warehouse stays unset and validation still catches it
	assert.Equal(t, "", doc.Lines[0].Warehouse)
	assert.True(t, doc.Lines[0].StockLimit.IsZero())
	assert.True(t, doc.Lines[0].TotalStock.Equal(decimal.NewFromInt(150)))
	doc.Party = "P-01"
	assert.ErrorIs(t, billing.DocumentValidator{}.Validate(doc), billing.ErrMissingWarehouse)
}

func TestRefresh_DropsInaccessibleWarehouse(t *testing.T) {
	engine := newEngine()
	doc, _, _ := engine.SelectItem(billing.NewDocument("INV", 1), 0, "X002")
	doc, _, err := engine.SelectWarehouse(doc, 0, "A")
	require.NoError(t, err)

	// A is withdrawn; B is the only accessible warehouse holding X002
	engine.Warehouses = billing.WarehouseList{"B"}
	doc = engine.Refresh(doc)
	assert.Equal(t, "B", doc.Lines[0].Warehouse)
	assert.True(t, doc.Lines[0].StockLimit.Equal(decimal.NewFromInt(8)))
}

func TestConvertUnit_RateForms(t *testing.T) {
	item := testCatalog()["X001"]

	rate, pack := billing.ConvertUnit(item, "PCS")
	assert.Equal(t, "40.5", rate, "primary rate is canonical, not the raw catalog text")
	assert.Equal(t, "12x100g", pack)

	rate, _ = billing.ConvertUnit(item, "BOX")
	assert.Equal(t, "486.00", rate)

	item.BaseRate = "abc"
	rate, _ = billing.ConvertUnit(item, "PCS")
	assert.Equal(t, "0", rate)
}
