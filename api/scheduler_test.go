package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryScheduler_StartRetriesImmediately(t *testing.T) {
	// GIVEN: An open batch left by an earlier run
	handler := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, handler.loadLargeReceiptScenario(ctx))

	// WHEN: The scheduler starts
	rs := NewRetryScheduler(handler.Store, handler)
	rs.CheckInterval = time.Hour
	rs.Start()
	t.Cleanup(rs.Stop)

	// THEN: The first pass runs without waiting for the ticker
	require.Eventually(t, func() bool {
		open, err := handler.Store.OpenBatches(ctx)
		return err == nil && len(open) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRetryScheduler_Disabled(t *testing.T) {
	handler := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, handler.loadLargeReceiptScenario(ctx))

	rs := NewRetryScheduler(handler.Store, handler)
	rs.Enabled = false
	rs.Start()
	rs.Stop()

	open, err := handler.Store.OpenBatches(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestRetryScheduler_NothingOpen(t *testing.T) {
	handler := setupTestHandler(t)
	rs := NewRetryScheduler(handler.Store, handler)
	assert.Equal(t, 0, rs.RetryOpenBatches(context.Background()))
}
