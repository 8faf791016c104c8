package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/receipts"
	"github.com/warp/invoice-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CatalogStockWarehouses(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.ReplaceCatalog(ctx, []billing.CatalogItem{
		{Code: "X001", Name: "Soap", PrimaryUnit: "PCS", SecondaryUnit: "BOX", Multiplier: "12", BaseRate: "40.50", GSTPercent: "18"},
	}))
	catalog, err := s.LoadCatalog(ctx)
	require.NoError(t, err)
	item, ok := catalog.GetItem("X001")
	require.True(t, ok)
	assert.Equal(t, "40.50", item.BaseRate)

	require.NoError(t, s.ReplaceStock(ctx, billing.StockMap{
		"X001": {"A": decimal.NewFromInt(50), "B": decimal.RequireFromString("2.5")},
	}))
	stock, err := s.LoadStock(ctx)
	require.NoError(t, err)
	assert.True(t, stock.Quantity("X001", "B").Equal(decimal.RequireFromString("2.5")))

	require.NoError(t, s.ReplaceWarehouses(ctx, billing.WarehouseList{"B", "A"}))
	whs, err := s.LoadWarehouses(ctx)
	require.NoError(t, err)
	assert.Equal(t, billing.WarehouseList{"B", "A"}, whs)

	// Replacing drops what was there
	require.NoError(t, s.ReplaceWarehouses(ctx, billing.WarehouseList{"C"}))
	whs, _ = s.LoadWarehouses(ctx)
	assert.Equal(t, billing.WarehouseList{"C"}, whs)
}

func TestStore_DraftRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	doc := billing.NewDocument("INV", 1)
	doc.ID = "d1"
	doc.Party = "P-01"
	doc.Lines[0].ItemCode = "X001"
	doc.Lines[0].Qty = "10"
	doc.Lines[0].Net = decimal.RequireFromString("405.00")
	require.NoError(t, s.SaveDraft(ctx, doc))

	doc.Party = "P-02"
	require.NoError(t, s.SaveDraft(ctx, doc))

	loaded, err := s.LoadDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "P-02", loaded.Party)
	assert.Equal(t, "10", loaded.Lines[0].Qty)
	assert.True(t, loaded.Lines[0].Net.Equal(decimal.NewFromInt(405)))

	require.NoError(t, s.DeleteDraft(ctx, "d1"))
	_, err = s.LoadDraft(ctx, "d1")
	assert.ErrorIs(t, err, billing.ErrDraftNotFound)
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	last, err := s.LastTransaction(ctx, "X001", "P-01")
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, s.RecordTransaction(ctx, "X001", "P-01", billing.LastTransaction{Rate: "38", Qty: "12"}))
	require.NoError(t, s.RecordTransaction(ctx, "X001", "P-01", billing.LastTransaction{Rate: "39", SchemePercent: "2"}))

	last, err = s.LastTransaction(ctx, "X001", "P-01")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "39", last.Rate)
	assert.Equal(t, "2", last.SchemePercent)
	assert.Equal(t, "", last.Qty)
}

func TestStore_CompleteSubmission(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	doc := billing.Document{ID: "d-1", Series: "INV", Party: "P-01", Lines: []billing.Line{
		{ItemCode: "X001", Rate: "40.5", Qty: "10", SchemePercent: "2"},
		{},
		{ItemCode: "X002", Rate: "190", Qty: "1"},
	}}
	require.NoError(t, s.SaveDraft(ctx, doc))
	require.NoError(t, s.CompleteSubmission(ctx, doc.ID, doc.Party, doc.HistoryEntries()))

	_, err := s.LoadDraft(ctx, "d-1")
	assert.ErrorIs(t, err, billing.ErrDraftNotFound)
	for code, rate := range map[string]string{"X001": "40.5", "X002": "190"} {
		last, err := s.LastTransaction(ctx, code, "P-01")
		require.NoError(t, err)
		require.NotNil(t, last, code)
		assert.Equal(t, rate, last.Rate)
	}

	// A second submission of the same draft writes nothing
	again := []billing.HistoryEntry{{ItemCode: "X003", Last: billing.LastTransaction{Rate: "1"}}}
	err = s.CompleteSubmission(ctx, "d-1", "P-01", again)
	assert.ErrorIs(t, err, billing.ErrDraftNotFound)
	last, err := s.LastTransaction(ctx, "X003", "P-01")
	require.NoError(t, err)
	assert.Nil(t, last, "history rolled back with the missing draft")
}

func TestStore_BatchAndLedger(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	date := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	plan, err := receipts.NewSplitter().Plan(receipts.PlanInput{
		Series: "CR", StartNumber: 7, Date: date, Party: "P-01",
		Amount: decimal.NewFromInt(45000), CashDiscount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	batch := receipts.NewBatch("b1", plan, date)
	require.NoError(t, batch.Mark(7, receipts.StatusSubmitted, "", date))
	require.NoError(t, s.SaveBatch(ctx, batch))

	loaded, err := s.LoadBatch(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 3)
	assert.True(t, loaded.OriginalAmount.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, receipts.StatusSubmitted, loaded.Entries[0].Status)
	assert.Equal(t, receipts.StatusPending, loaded.Entries[1].Status)
	assert.True(t, loaded.Entries[0].CashDiscount.Equal(decimal.NewFromInt(100)))
	assert.True(t, loaded.Entries[2].Date.Equal(date))
	assert.Equal(t, "b1-CR-9", loaded.Entries[2].IdempotencyKey)

	open, err := s.OpenBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, open)

	_, err = s.LoadBatch(ctx, "missing")
	assert.ErrorIs(t, err, receipts.ErrBatchNotFound)

	r := loaded.Entries[0].PlannedReceipt
	require.NoError(t, s.AppendReceipt(ctx, "b1", r))
	assert.ErrorIs(t, s.AppendReceipt(ctx, "b1", r), receipts.ErrDuplicateIdempotencyKey)

	exists, err := s.ReceiptExists(ctx, r.IdempotencyKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.ReplaceWarehouses(ctx, billing.WarehouseList{"A"}))
	require.NoError(t, s.RecordTransaction(ctx, "X001", "P-01", billing.LastTransaction{Rate: "10"}))
	require.NoError(t, s.SaveDraft(ctx, billing.Document{ID: "d1", Series: "INV"}))

	require.NoError(t, s.Reset(ctx))

	whs, err := s.LoadWarehouses(ctx)
	require.NoError(t, err)
	assert.Empty(t, whs)
	last, err := s.LastTransaction(ctx, "X001", "P-01")
	require.NoError(t, err)
	assert.Nil(t, last)
	_, err = s.LoadDraft(ctx, "d1")
	assert.ErrorIs(t, err, billing.ErrDraftNotFound)
}
