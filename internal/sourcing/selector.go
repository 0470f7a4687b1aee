package sourcing

import (
	"math"
	"sort"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Selector builds a Pool from filtered offers per spec.md §4.2.
type Selector struct {
	config  *Config
	logger  zerolog.Logger
	metrics *Metrics
}

// NewSelector creates a Selector bound to the given sourcing Config.
func NewSelector(config *Config, metrics *Metrics) *Selector {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Selector{
		config:  config,
		metrics: metrics,
		logger:  log.With().Str("component", "candidate_selector").Logger(),
	}
}

// Select builds the candidate pool and returns it alongside FilteredOffers
// narrowed to only offers from the selected pool.
func (s *Selector) Select(demand parts.Needed, filtered offers.ByItem) (*Pool, offers.ByItem, error) {
	items := demand.Items()

	critical := s.buildCriticalSet(items, filtered)

	if len(critical) >= s.config.ConsiderShops {
		return nil, nil, ErrPoolTooSmall{MinConsiderShops: len(critical) + 1}
	}

	supplemental, unselected := s.scoreSupplemental(items, demand, filtered, critical)

	pool := &Pool{
		Critical:     critical,
		Supplemental: supplemental,
		Unselected:   unselected,
	}
	pool.Order = make([]string, 0, len(critical)+len(supplemental))
	names := make([]string, 0, len(critical))
	for name := range critical {
		names = append(names, name)
	}
	sort.Strings(names)
	pool.Order = append(pool.Order, names...)

	supNames := make([]string, 0, len(supplemental))
	for name := range supplemental {
		supNames = append(supNames, name)
	}
	sort.Slice(supNames, func(i, j int) bool {
		a, b := supplemental[supNames[i]].Score, supplemental[supNames[j]].Score
		if a != b {
			return a < b
		}
		return supNames[i] < supNames[j]
	})
	pool.Order = append(pool.Order, supNames...)

	narrowed := narrowOffers(filtered, pool)

	s.metrics.RecordCandidatePool(len(critical), len(supplemental), len(unselected))

	return pool, narrowed, nil
}

// buildCriticalSet sorts items ascending by FilteredOffers rarity and, for
// each item not yet covered by a chosen critical seller, adds the cheapest
// offer's seller as critical.
func (s *Selector) buildCriticalSet(items []catalog.Item, filtered offers.ByItem) map[string]SellerInfo {
	sorted := make([]catalog.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(filtered[sorted[i]]) < len(filtered[sorted[j]])
	})

	critical := make(map[string]SellerInfo)
	for _, item := range sorted {
		list := filtered[item]
		covered := false
		for _, o := range list {
			if _, ok := critical[o.ShopName]; ok {
				covered = true
				break
			}
		}
		if covered || len(list) == 0 {
			continue
		}
		cheapest := list[0] // offers.Normalize already sorts ascending by price
		critical[cheapest.ShopName] = SellerInfo{
			ShopName: cheapest.ShopName,
			MinBuy:   cheapest.MinBuy,
			Location: cheapest.Location,
			Class:    ClassCritical,
		}
	}
	return critical
}

// scoreSupplemental implements spec.md §4.2's supplemental scoring formula
// exactly. base_score mixes a constant term (amortized fixed cost across
// items) with a per-offer savings term; more negative is better.
func (s *Selector) scoreSupplemental(
	items []catalog.Item,
	demand parts.Needed,
	filtered offers.ByItem,
	critical map[string]SellerInfo,
) (supplemental map[string]SellerInfo, unselected map[string]SellerInfo) {
	baseScore := 10 * (float64(len(critical)) * s.config.ShopFixCost) / float64(len(items))

	existingPrice := make(map[catalog.Item]float64, len(items))
	for _, item := range items {
		min := math.Inf(1)
		for _, o := range filtered[item] {
			if _, ok := critical[o.ShopName]; ok && o.UnitPrice < min {
				min = o.UnitPrice
			}
		}
		existingPrice[item] = min
	}

	scores := make(map[string]float64)
	info := make(map[string]SellerInfo)
	for _, item := range items {
		list := filtered[item]
		denom := math.Log(float64(len(list)) + 1)
		for _, o := range list {
			if _, ok := critical[o.ShopName]; ok {
				continue
			}
			if _, ok := info[o.ShopName]; !ok {
				info[o.ShopName] = SellerInfo{ShopName: o.ShopName, MinBuy: o.MinBuy, Location: o.Location}
				scores[o.ShopName] = 0
			}
			contrib := baseScore/denom + (existingPrice[item]-o.UnitPrice)*float64(demand[item])
			if contrib > 0 {
				scores[o.ShopName] -= contrib
			}
		}
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] < scores[names[j]]
		}
		return names[i] < names[j]
	})

	supplementalCount := s.config.ConsiderShops - len(critical)
	if supplementalCount > len(names) {
		supplementalCount = len(names)
	}

	supplemental = make(map[string]SellerInfo, supplementalCount)
	unselected = make(map[string]SellerInfo, len(names)-supplementalCount)
	for i, name := range names {
		sellerInfo := info[name]
		sellerInfo.Score = scores[name]
		if i < supplementalCount {
			sellerInfo.Class = ClassSupplemental
			supplemental[name] = sellerInfo
		} else {
			sellerInfo.Class = ClassUnselected
			unselected[name] = sellerInfo
		}
	}
	return supplemental, unselected
}

// narrowOffers restricts filtered offers to only sellers in pool.
func narrowOffers(filtered offers.ByItem, pool *Pool) offers.ByItem {
	inPool := make(map[string]bool, len(pool.Critical)+len(pool.Supplemental))
	for name := range pool.Critical {
		inPool[name] = true
	}
	for name := range pool.Supplemental {
		inPool[name] = true
	}

	out := make(offers.ByItem, len(filtered))
	for item, list := range filtered {
		kept := make([]offers.Offer, 0, len(list))
		for _, o := range list {
			if inPool[o.ShopName] {
				kept = append(kept, o)
			}
		}
		out[item] = kept
	}
	return out
}
