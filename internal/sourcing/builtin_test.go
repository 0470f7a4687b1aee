package sourcing

import (
	"context"
	"testing"
	"time"

	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolOf(names ...string) *Pool {
	critical := make(map[string]SellerInfo, len(names))
	for _, n := range names {
		critical[n] = SellerInfo{ShopName: n, Class: ClassCritical}
	}
	return &Pool{Critical: critical, Supplemental: map[string]SellerInfo{}, Order: names}
}

// TestBuiltinSingleSellerScenario exercises S1: one item, one seller.
func TestBuiltinSingleSellerScenario(t *testing.T) {
	demand := parts.New()
	demand.Add(itemA(), 1)

	filtered := offers.ByItem{
		itemA(): {{ShopName: "X", UnitPrice: 1.00, QuantityAvail: 10}},
	}

	cfg := Defaults()
	cfg.ShopFixCost = 5
	cfg.Jobs = 2
	b := NewBuiltin(cfg, nil)

	alloc, cost, err := b.Run(context.Background(), poolOf("X"), demand, filtered)
	require.NoError(t, err)
	assert.Equal(t, 6.0, cost)
	require.Equal(t, 1, alloc["X"][itemA()])
}

// TestBuiltinForcedSplitScenario exercises S2: one seller cheaper overall
// despite losing on one item individually.
func TestBuiltinForcedSplitScenario(t *testing.T) {
	demand := parts.New()
	demand.Add(itemA(), 1)
	demand.Add(itemB(), 1)

	filtered := offers.ByItem{
		itemA(): {
			{ShopName: "Y", UnitPrice: 0.50, QuantityAvail: 10},
			{ShopName: "X", UnitPrice: 1.00, QuantityAvail: 10},
		},
		itemB(): {
			{ShopName: "X", UnitPrice: 1.00, QuantityAvail: 10},
		},
	}

	cfg := Defaults()
	cfg.ShopFixCost = 5
	b := NewBuiltin(cfg, nil)

	alloc, cost, err := b.Run(context.Background(), poolOf("X", "Y"), demand, filtered)
	require.NoError(t, err)
	assert.InDelta(t, 7.00, cost, 1e-9)
	assert.Equal(t, 1, alloc["X"][itemA()])
	assert.Equal(t, 1, alloc["X"][itemB()])
}

// TestBuiltinFixCostDominatesScenario exercises S3: a second shop's fixed
// cost never pays off, so the single cheapest seller Y wins at 5 + 100×0.09.
func TestBuiltinFixCostDominatesScenario(t *testing.T) {
	demand := parts.New()
	demand.Add(itemA(), 100)

	filtered := offers.ByItem{
		itemA(): {
			{ShopName: "Y", UnitPrice: 0.09, QuantityAvail: 1000},
			{ShopName: "X", UnitPrice: 0.10, QuantityAvail: 1000},
		},
	}

	cfg := Defaults()
	cfg.ShopFixCost = 5
	b := NewBuiltin(cfg, nil)

	alloc, cost, err := b.Run(context.Background(), poolOf("X", "Y"), demand, filtered)
	require.NoError(t, err)
	assert.InDelta(t, 14.00, cost, 1e-9)
	assert.Equal(t, 100, alloc["Y"][itemA()])
}

// TestBuiltinCancellationReturnsBestSoFar exercises S6: a cancellation mid
// enumeration still returns a valid covering allocation.
func TestBuiltinCancellationReturnsBestSoFar(t *testing.T) {
	demand := parts.New()
	demand.Add(itemA(), 1)

	names := make([]string, 20)
	offerList := make([]offers.Offer, 20)
	for i := range names {
		names[i] = string(rune('a' + i))
		offerList[i] = offers.Offer{ShopName: names[i], UnitPrice: float64(i + 1), QuantityAvail: 10}
	}
	filtered := offers.ByItem{itemA(): offerList}

	cfg := Defaults()
	cfg.MaxShops = 20
	cfg.Jobs = 4
	b := NewBuiltin(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	alloc, _, err := b.Run(ctx, poolOf(names...), demand, filtered)
	if err == nil {
		total := 0
		for _, items := range alloc {
			total += items[itemA()]
		}
		assert.GreaterOrEqual(t, total, 1)
	}
}
