package sourcing

import (
	"context"
	"math"
	"math/bits"
	"time"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Allocation maps a seller to the items it was assigned, and the ordered
// quantity of each.
type Allocation map[string]map[catalog.Item]int

// candidateResult is the (cost, mask, allocation) message a worker returns,
// per spec.md §5's "communicate only by returning a message" model.
type candidateResult struct {
	cost       float64
	mask       uint64
	allocation Allocation
	found      bool
	evaluated  int64 // feasible masks costed by this worker
}

// Builtin is the subset-enumeration optimizer of spec.md §4.3.
type Builtin struct {
	config  *Config
	metrics *Metrics
	logger  zerolog.Logger
}

// NewBuiltin creates a Builtin optimizer bound to cfg.
func NewBuiltin(cfg *Config, metrics *Metrics) *Builtin {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Builtin{config: cfg, metrics: metrics, logger: log.With().Str("component", "builtin_optimizer").Logger()}
}

// Run enumerates every non-empty subset of pool.Order and returns the
// minimum-cost allocation that covers every item in demand, or the best
// partial solution seen so far if ctx is cancelled mid-enumeration.
func (b *Builtin) Run(ctx context.Context, pool *Pool, demand parts.Needed, filtered offers.ByItem) (Allocation, float64, error) {
	start := time.Now()
	var runErr error
	defer func() { b.metrics.RecordOptimization("builtin", time.Since(start), runErr) }()

	sellers := pool.Order
	n := len(sellers)
	items := demand.Items()
	m := len(items)

	if n == 0 || m == 0 {
		runErr = ErrPoolTooSmall{MinConsiderShops: 1}
		return nil, 0, runErr
	}

	sellerIndex := make(map[string]int, n)
	for idx, name := range sellers {
		sellerIndex[name] = idx
	}

	has := make([]uint64, m)
	price := make([][]float64, m)
	for i, item := range items {
		price[i] = make([]float64, n)
		for j := range price[i] {
			price[i][j] = math.Inf(1)
		}
		for _, o := range filtered[item] {
			j, ok := sellerIndex[o.ShopName]
			if !ok {
				continue
			}
			has[i] |= 1 << uint(j)
			if o.UnitPrice < price[i][j] {
				price[i][j] = o.UnitPrice
			}
		}
	}

	totalMasks := uint64(1) << uint(n)
	workerCount := b.config.Jobs
	if workerCount < 1 {
		workerCount = 1
	}
	chunkCount := workerCount * 10
	if uint64(chunkCount) > totalMasks {
		chunkCount = int(totalMasks)
	}
	chunkSize := (totalMasks + uint64(chunkCount) - 1) / uint64(chunkCount)

	demandByIdx := make([]int, m)
	for i, item := range items {
		demandByIdx[i] = demand[item]
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workerCount)
	results := make([]candidateResult, chunkCount)

	for c := 0; c < chunkCount; c++ {
		c := c
		lo := uint64(c)*chunkSize + 1
		hi := lo + chunkSize
		if lo < 1 {
			lo = 1
		}
		if hi > totalMasks {
			hi = totalMasks
		}
		group.Go(func() error {
			results[c] = evaluateChunk(gctx, lo, hi, n, m, has, price, demandByIdx, items, sellers, b.config)
			return nil
		})
	}
	_ = group.Wait() // evaluateChunk never returns an error; cancellation yields a partial best

	var masksEvaluated int64
	for _, r := range results {
		masksEvaluated += r.evaluated
	}

	b.metrics.RecordMasksEvaluated(masksEvaluated)

	best := combineResults(results)
	if !best.found {
		runErr = ErrNoFeasibleAllocation{}
		return nil, 0, runErr
	}
	return best.allocation, best.cost, nil
}

func evaluateChunk(
	ctx context.Context,
	lo, hi uint64,
	n, m int,
	has []uint64,
	price [][]float64,
	demand []int,
	items []catalog.Item,
	sellers []string,
	cfg *Config,
) candidateResult {
	var best candidateResult
	var evaluated int64

	for mask := lo; mask < hi; mask++ {
		if mask%4096 == 0 && ctx.Err() != nil {
			break
		}

		popcount := bits.OnesCount64(mask)
		if cfg.MaxShops > 0 && cfg.MaxShops < n && popcount > cfg.MaxShops {
			continue
		}

		feasible := true
		for i := 0; i < m; i++ {
			if has[i]&mask == 0 {
				feasible = false
				break
			}
		}
		if !feasible {
			continue
		}

		cost := float64(popcount) * cfg.ShopFixCost
		assign := make([]int, m) // seller index per item
		for i := 0; i < m; i++ {
			bestJ, bestPrice := -1, math.Inf(1)
			for j := 0; j < n; j++ {
				if mask&(1<<uint(j)) == 0 {
					continue
				}
				if has[i]&(1<<uint(j)) == 0 {
					continue
				}
				if price[i][j] < bestPrice {
					bestPrice, bestJ = price[i][j], j
				}
			}
			assign[i] = bestJ
			cost += float64(demand[i]) * bestPrice
		}

		evaluated++

		if !best.found || isBetter(cost, popcount, mask, best) {
			best = candidateResult{cost: cost, mask: mask, found: true, allocation: buildAllocation(assign, items, sellers, demand)}
		}
	}
	best.evaluated = evaluated
	return best
}

// isBetter implements the tie-break spec.md §9 leaves open: lower cost
// wins; equal cost prefers smaller popcount, then smaller mask value.
func isBetter(cost float64, popcount int, mask uint64, current candidateResult) bool {
	if cost != current.cost {
		return cost < current.cost
	}
	currentPopcount := bits.OnesCount64(current.mask)
	if popcount != currentPopcount {
		return popcount < currentPopcount
	}
	return mask < current.mask
}

// buildAllocation assigns each item in full to its cheapest selected
// seller, per spec.md §4.3.
func buildAllocation(assign []int, items []catalog.Item, sellers []string, demand []int) Allocation {
	alloc := make(Allocation)
	for i, j := range assign {
		if j < 0 {
			continue
		}
		seller := sellers[j]
		if alloc[seller] == nil {
			alloc[seller] = make(map[catalog.Item]int)
		}
		alloc[seller][items[i]] = demand[i]
	}
	return alloc
}

func combineResults(results []candidateResult) candidateResult {
	var best candidateResult
	for _, r := range results {
		if !r.found {
			continue
		}
		if !best.found || isBetter(r.cost, bits.OnesCount64(r.mask), r.mask, best) {
			best = r
		}
	}
	return best
}

// ErrNoFeasibleAllocation is returned when no subset of the candidate pool
// covers every item within max_shops.
type ErrNoFeasibleAllocation struct{}

func (ErrNoFeasibleAllocation) Error() string {
	return "no feasible allocation within max_shops covers every item"
}
