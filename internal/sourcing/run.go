package sourcing

import (
	"context"
	"fmt"

	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stage is a state in the Run state machine of spec.md §4.7.
type Stage int

const (
	StageLoaded Stage = iota
	StageFiltered
	StagePoolSelected
	StageSolved
)

func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageFiltered:
		return "filtered"
	case StagePoolSelected:
		return "pool_selected"
	case StageSolved:
		return "solved"
	default:
		return "unknown"
	}
}

// Run drives one optimization from raw offers to a Result through the
// linear Loaded→Filtered→PoolSelected→Solved progression. There is no
// in-place mutation after Solved; an out-of-order transition is an
// invariant violation and panics rather than returning an error, since it
// can only be caused by a bug in this package's own callers.
type Run struct {
	stage    Stage
	demand   parts.Needed
	raw      offers.ByItem
	filtered offers.ByItem
	pool     *Pool
	result   *Result

	selector *Selector
	builtin  *Builtin
	logger   zerolog.Logger
}

// NewRun creates a Run in the Loaded stage.
func NewRun(demand parts.Needed, raw offers.ByItem, selector *Selector, builtin *Builtin) *Run {
	return &Run{
		stage:    StageLoaded,
		demand:   demand,
		raw:      raw,
		selector: selector,
		builtin:  builtin,
		logger:   log.With().Str("component", "sourcing_run").Logger(),
	}
}

// Stage returns the current stage.
func (r *Run) Stage() Stage { return r.stage }

func (r *Run) requireStage(expected Stage) {
	if r.stage != expected {
		panic(fmt.Sprintf("sourcing: invalid transition from %s, expected %s", r.stage, expected))
	}
}

// Filter applies offer filtering and advances to StageFiltered.
func (r *Run) Filter(opts offers.Options) error {
	r.requireStage(StageLoaded)
	normalized := offers.Normalize(r.raw)
	filtered, err := offers.Filter(r.demand, normalized, opts)
	if err != nil {
		return err
	}
	r.filtered = filtered
	r.stage = StageFiltered
	return nil
}

// SelectPool runs the candidate selector and advances to StagePoolSelected.
func (r *Run) SelectPool() error {
	r.requireStage(StageFiltered)
	pool, narrowed, err := r.selector.Select(r.demand, r.filtered)
	if err != nil {
		return err
	}
	r.pool = pool
	r.filtered = narrowed
	r.stage = StagePoolSelected
	return nil
}

// SolveBuiltin runs the built-in optimizer and advances to StageSolved.
func (r *Run) SolveBuiltin(ctx context.Context, shopFixCost float64) (*Result, error) {
	r.requireStage(StagePoolSelected)
	allocation, _, err := r.builtin.Run(ctx, r.pool, r.demand, r.filtered)
	if err != nil {
		return nil, err
	}
	r.result = NewResult(r.demand, r.filtered, r.pool, allocation, shopFixCost)
	r.stage = StageSolved
	return r.result, nil
}

// SolveWithAllocation records an externally-computed allocation (e.g. from
// the LP solver) and advances to StageSolved.
func (r *Run) SolveWithAllocation(allocation Allocation, shopFixCost float64) *Result {
	r.requireStage(StagePoolSelected)
	r.result = NewResult(r.demand, r.filtered, r.pool, allocation, shopFixCost)
	r.stage = StageSolved
	return r.result
}

// Pool returns the selected candidate pool, valid from StagePoolSelected on.
func (r *Run) Pool() *Pool { return r.pool }

// Filtered returns the current filtered offer set.
func (r *Run) Filtered() offers.ByItem { return r.filtered }

// Demand returns the run's demand.
func (r *Run) Demand() parts.Needed { return r.demand }
