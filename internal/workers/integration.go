package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/lp"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/offersource"
	"github.com/dornbi/bltools-go/internal/pipeline"
	"github.com/dornbi/bltools-go/internal/sourcing"
	"github.com/dornbi/bltools-go/internal/taskqueue"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

// optimizeTaskPayload is the JSON body of a TaskTypeOptimize task: the
// wanted-list XML inline (small enough to fit in a task payload) plus the
// marketplace to fetch offers from.
type optimizeTaskPayload struct {
	WantedListXML string `json:"wantedListXml"`
	Marketplace   string `json:"marketplace"`
}

// fetchOffersTaskPayload is the JSON body of a TaskTypeFetchOffers task: the
// items to refresh and the marketplace to refresh them from.
type fetchOffersTaskPayload struct {
	Items       []catalog.Item `json:"items"`
	Marketplace string         `json:"marketplace"`
}

// StartOptimizeWorker runs the background worker loop handling both
// optimize and fetch-offers tasks, mirroring the teacher's
// StartIngestionWorker shape (fixed worker ID, poll delay, handler
// registration) against the renamed task types.
func StartOptimizeWorker(ctx context.Context, cfg *sourcing.Config, lpCfg *lp.Config, filterOpts offers.Options, cache *offersource.Cache) error {
	queue := taskqueue.New(nil) // Pool will be initialized later
	config := WorkerConfig{
		WorkerID:  "optimize-worker-1",
		TaskTypes: []string{string(taskqueue.TaskTypeOptimize), string(taskqueue.TaskTypeFetchOffers)},
		MaxTasks:  5,
		PollDelay: 5 * time.Second,
	}

	worker := New(queue, config)
	worker.RegisterHandler(string(taskqueue.TaskTypeOptimize), NewOptimizeHandler(cfg, lpCfg, filterOpts, cache))
	worker.RegisterHandler(string(taskqueue.TaskTypeFetchOffers), NewFetchOffersHandler(cache))

	log.Info().Msg("Starting optimize worker...")
	worker.Start(ctx)

	return nil
}

// NewOptimizeHandler builds a task handler that runs one full optimization
// from a queued wanted list, persisting the outcome as a database.Run.
func NewOptimizeHandler(cfg *sourcing.Config, lpCfg *lp.Config, filterOpts offers.Options, cache *offersource.Cache) func(context.Context, []byte) error {
	return func(ctx context.Context, payload []byte) error {
		var req optimizeTaskPayload
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("failed to unmarshal optimize payload: %w", err)
		}

		_, err := pipeline.Optimize(ctx, bytes.NewReader([]byte(req.WantedListXML)), req.Marketplace, cfg, lpCfg, filterOpts, cache)
		return err
	}
}

// NewFetchOffersHandler builds a task handler that refreshes the offer
// cache for a batch of items ahead of an interactive request, replacing the
// teacher's rerun handler (which re-ran a whole chain's ingestion).
func NewFetchOffersHandler(cache *offersource.Cache) func(context.Context, []byte) error {
	return func(ctx context.Context, payload []byte) error {
		var req fetchOffersTaskPayload
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("failed to unmarshal fetch-offers payload: %w", err)
		}

		if errs := pipeline.RefreshOffers(ctx, req.Marketplace, req.Items, cache); len(errs) > 0 {
			return fmt.Errorf("fetch-offers failed for %d of %d items: %v", len(errs), len(req.Items), errs[0])
		}
		return nil
	}
}

// CleanupOldRuns sweeps completed tasks from the queue older than the
// retention window, unchanged from the teacher's own cleanup entrypoint.
func CleanupOldRuns(ctx context.Context) error {
	queue := taskqueue.New(nil)
	count, err := queue.CleanupOldTasks(ctx, 7) // Keep 7 days
	if err != nil {
		return fmt.Errorf("failed to cleanup old tasks: %w", err)
	}

	log.Info().Int("count", count).Msg("Cleaned up old tasks")
	return nil
}
