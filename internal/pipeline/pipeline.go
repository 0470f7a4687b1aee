// Package pipeline orchestrates one end-to-end optimizer invocation: read a
// wanted list, fetch or reuse cached offers, run the candidate selector and
// chosen solver backend, and persist the outcome as a database.Run. This
// replaces the teacher's discover/fetch/parse/persist chain (which walked a
// retail chain's CSV publication feed into ingestion_runs) with the shorter
// sequence this domain actually needs, while keeping the teacher's run
// bookkeeping and fmt.Printf progress-logging texture.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/database"
	"github.com/dornbi/bltools-go/internal/lp"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/offersource"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/dornbi/bltools-go/internal/sourcing"
	"github.com/dornbi/bltools-go/internal/wantedlist"
)

// Result bundles the persisted run record with the in-memory optimizer
// result, the latter needed by callers (handlers) that want the detailed
// allocation without a second database round trip.
type Result struct {
	Run    *database.Run
	Result *sourcing.Result
}

// Optimize runs one full optimization: read the wanted list from r, take each
// item's offers from the cache (fetching from the named marketplace on a
// miss), filter them, select
// candidates, solve with the backend named by cfg.Mode, and persist the run.
// A failure after the run row is created is recorded on that row rather than
// discarded, mirroring the teacher's markRunFailed convention.
func Optimize(ctx context.Context, r io.Reader, marketplace string, cfg *sourcing.Config, lpCfg *lp.Config, filterOpts offers.Options, cache *offersource.Cache) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid sourcing config: %w", err)
	}

	entries, err := wantedlist.Read(r)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read wanted list: %w", err)
	}
	demand := wantedlist.ToPartsNeeded(entries)

	run := &database.Run{ID: database.NewRunID(), Mode: string(cfg.Mode)}
	if err := database.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("pipeline: create run: %w", err)
	}
	fmt.Printf("[INFO] Starting optimize run %s (mode=%s, items=%d)\n", run.ID, cfg.Mode, len(demand))

	if err := database.MarkRunRunning(ctx, run.ID); err != nil {
		fmt.Printf("[WARN] Failed to mark run %s running: %v\n", run.ID, err)
	}

	result, err := runOptimize(ctx, run.ID, demand, marketplace, cfg, lpCfg, filterOpts, cache)
	if err != nil {
		fmt.Printf("[ERROR] Run %s failed: %v\n", run.ID, err)
		if failErr := database.FailRun(ctx, run.ID, err); failErr != nil {
			fmt.Printf("[WARN] Failed to record failure for run %s: %v\n", run.ID, failErr)
		}
		return nil, err
	}

	grandTotal, grossTotal := result.GrandNetTotal(), result.GrossTotal()
	if err := database.CompleteRun(ctx, run.ID, grandTotal, grossTotal); err != nil {
		fmt.Printf("[WARN] Failed to mark run %s completed: %v\n", run.ID, err)
	}
	run.GrandTotal, run.GrossTotal = &grandTotal, &grossTotal
	fmt.Printf("[INFO] Run %s complete: %d sellers, gross total %.2f\n", run.ID, len(result.SelectedSellers()), grossTotal)

	return &Result{Run: run, Result: result}, nil
}

// runOptimize drives the sourcing.Run state machine once demand is in hand,
// isolated from Optimize's run bookkeeping so it can be tested without a
// database.
func runOptimize(ctx context.Context, runID string, demand parts.Needed, marketplace string, cfg *sourcing.Config, lpCfg *lp.Config, filterOpts offers.Options, cache *offersource.Cache) (*sourcing.Result, error) {
	items := demand.Items()

	fmt.Printf("[INFO] Run %s: fetching offers for %d items from %s\n", runID, len(items), marketplace)
	raw, fetchErrs := offersource.FetchAll(ctx, marketplace, items, cache)
	for _, fe := range fetchErrs {
		fmt.Printf("[WARN] Run %s: %v\n", runID, fe)
	}

	metrics := sourcing.NewMetrics()
	selector := sourcing.NewSelector(cfg, metrics)
	builtin := sourcing.NewBuiltin(cfg, metrics)

	run := sourcing.NewRun(demand, raw, selector, builtin)
	if err := run.Filter(filterOpts); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	if err := run.SelectPool(); err != nil {
		return nil, fmt.Errorf("select pool: %w", err)
	}

	switch cfg.Mode {
	case sourcing.ModeGLPK:
		solver := lp.NewSolver(lpCfg, metrics)
		allocation, err := solver.Solve(ctx, runID, demand, run.Filtered(), run.Pool(), cfg.ShopFixCost)
		if err != nil {
			return nil, fmt.Errorf("glpk solve: %w", err)
		}
		return run.SolveWithAllocation(allocation, cfg.ShopFixCost), nil
	default:
		result, err := run.SolveBuiltin(ctx, cfg.ShopFixCost)
		if err != nil {
			return nil, fmt.Errorf("builtin solve: %w", err)
		}
		return result, nil
	}
}

// RefreshOffers re-fetches offers for the given items unconditionally
// (bypassing the cache's freshness check), used by the background worker to
// keep the cache warm ahead of interactive requests. A failure on one item
// does not abort the batch, matching offersource.FetchAll's own tolerance.
func RefreshOffers(ctx context.Context, marketplace string, items []catalog.Item, cache *offersource.Cache) []error {
	var errs []error
	for _, item := range items {
		list, err := offersource.FetchOffers(marketplace, item)
		if err != nil {
			errs = append(errs, fmt.Errorf("pipeline: refresh %s: %w", item.Key(), err))
			continue
		}
		if err := cache.Put(ctx, item, list); err != nil {
			errs = append(errs, fmt.Errorf("pipeline: cache %s: %w", item.Key(), err))
		}
	}
	return errs
}
