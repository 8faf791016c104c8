/*
scheduler.go - Automated retry of partially submitted receipt batches

PURPOSE:
  Periodically looks for receipt batches that still have receipts not
  saved (a submission stopped part way, or the server restarted mid-batch)
  and submits the outstanding receipts again.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects batches with pending or failed receipts via the store
  - Reuses Handler.submitBatch, so retries go through the ledger and
    never post a saved receipt twice
  - Logs each attempt; a batch that fails again is retried next tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 5 minutes)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRetryScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - receipts.go: SubmitBatch endpoint (manual retry)
  - receipts/ledger.go: Idempotent ledger submitter
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/invoice-engine/receipts"
)

// batchLister is the part of the store the scheduler needs.
type batchLister interface {
	OpenBatches(ctx context.Context) ([]string, error)
}

// RetryScheduler handles automated resubmission of receipt batches.
type RetryScheduler struct {
	Store         batchLister
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool
	Logger        zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetryScheduler creates a new scheduler.
func NewRetryScheduler(store batchLister, handler *Handler) *RetryScheduler {
	return &RetryScheduler{
		Store:         store,
		Handler:       handler,
		CheckInterval: 5 * time.Minute,
		Enabled:       true,
		Logger:        handler.Logger.With().Str("component", "retry_scheduler").Logger(),
	}
}

// Start begins the scheduler.
func (rs *RetryScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info().Msg("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info().Dur("interval", rs.CheckInterval).Msg("started")
}

// Stop stops the scheduler and waits for an in-flight pass to finish.
func (rs *RetryScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info().Msg("stopped")
	}
}

func (rs *RetryScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RetryOpenBatches(context.Background())

	for {
		select {
		case <-rs.ticker.C:
			rs.RetryOpenBatches(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// RetryOpenBatches submits the outstanding receipts of every open batch
// and returns how many batches completed.
func (rs *RetryScheduler) RetryOpenBatches(ctx context.Context) int {
	ctx = rs.Logger.WithContext(ctx)

	ids, err := rs.Store.OpenBatches(ctx)
	if err != nil {
		rs.Logger.Error().Err(err).Msg("listing open batches")
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	completed, failed := 0, 0
	for _, id := range ids {
		_, err := rs.Handler.submitBatch(ctx, id)
		var partial *receipts.PartialSubmissionError
		switch {
		case errors.As(err, &partial):
			failed++
			rs.Logger.Warn().Err(partial.Err).
				Str("batch_id", id).
				Int("failed_doc_no", partial.Failed).
				Ints("pending", partial.Pending).
				Msg("batch still incomplete")
		case err != nil:
			failed++
			rs.Logger.Error().Err(err).Str("batch_id", id).Msg("retrying batch")
		default:
			completed++
		}
	}

	rs.Logger.Info().Int("completed", completed).Int("failed", failed).Msg("retry pass done")
	return completed
}
