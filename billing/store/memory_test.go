package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/billing/store"
)

func TestMemory_DraftRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	doc := billing.NewDocument("INV", 2)
	doc.ID = "draft-1"
	doc.Party = "P-01"
	require.NoError(t, m.SaveDraft(ctx, doc))

	loaded, err := m.LoadDraft(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "P-01", loaded.Party)
	assert.Len(t, loaded.Lines, 2)

	// Mutating the loaded copy must not leak into the store
	loaded.Lines[0].ItemCode = "X001"
	again, _ := m.LoadDraft(ctx, "draft-1")
	assert.True(t, again.Lines[0].IsEmpty())

	require.NoError(t, m.DeleteDraft(ctx, "draft-1"))
	_, err = m.LoadDraft(ctx, "draft-1")
	assert.ErrorIs(t, err, billing.ErrDraftNotFound)
}

func TestMemory_History(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	last, err := m.LastTransaction(ctx, "X001", "P-01")
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, m.RecordTransaction(ctx, "X001", "P-01", billing.LastTransaction{Rate: "38", Qty: "12"}))
	last, err = m.LastTransaction(ctx, "X001", "P-01")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "38", last.Rate)
}
