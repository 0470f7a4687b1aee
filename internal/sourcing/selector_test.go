package sourcing

import (
	"testing"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemA() catalog.Item { return catalog.NewPart("A", 0, catalog.ConditionNew) }
func itemB() catalog.Item { return catalog.NewPart("B", 0, catalog.ConditionNew) }
func itemC() catalog.Item { return catalog.NewPart("C", 0, catalog.ConditionNew) }

// TestSelectRarityFirstCriticalPick exercises scenario S5: A is available
// only at Z, so Z must be critical even though it is expensive; cheap
// sellers for B and C should outscore the rest for supplemental.
func TestSelectRarityFirstCriticalPick(t *testing.T) {
	demand := parts.New()
	demand.Add(itemA(), 1)
	demand.Add(itemB(), 1)
	demand.Add(itemC(), 1)

	filtered := offers.ByItem{
		itemA(): {{ShopName: "Z", UnitPrice: 100, QuantityAvail: 1, Location: "US"}},
		itemB(): {
			{ShopName: "cheap", UnitPrice: 1, QuantityAvail: 1, Location: "US"},
			{ShopName: "Z", UnitPrice: 50, QuantityAvail: 1, Location: "US"},
		},
		itemC(): {
			{ShopName: "cheap", UnitPrice: 1, QuantityAvail: 1, Location: "US"},
			{ShopName: "Z", UnitPrice: 50, QuantityAvail: 1, Location: "US"},
		},
	}

	cfg := Defaults()
	cfg.ConsiderShops = 5
	sel := NewSelector(cfg, nil)

	pool, _, err := sel.Select(demand, filtered)
	require.NoError(t, err)

	_, zCritical := pool.Critical["Z"]
	assert.True(t, zCritical, "Z must be critical since A has no other seller")

	_, cheapSupplemental := pool.Supplemental["cheap"]
	assert.True(t, cheapSupplemental, "cheap should be selected as supplemental")
}

func TestSelectPoolTooSmallFails(t *testing.T) {
	demand := parts.New()
	demand.Add(itemA(), 1)
	demand.Add(itemB(), 1)

	filtered := offers.ByItem{
		itemA(): {{ShopName: "X", UnitPrice: 1, QuantityAvail: 1}},
		itemB(): {{ShopName: "Y", UnitPrice: 1, QuantityAvail: 1}},
	}

	cfg := Defaults()
	cfg.ConsiderShops = 2 // critical set will be {X, Y}, saturating the pool
	sel := NewSelector(cfg, nil)

	_, _, err := sel.Select(demand, filtered)
	require.Error(t, err)
	var tooSmall ErrPoolTooSmall
	require.ErrorAs(t, err, &tooSmall)
	assert.Equal(t, 3, tooSmall.MinConsiderShops)
}

func TestSelectDeterministic(t *testing.T) {
	demand := parts.New()
	demand.Add(itemA(), 1)
	demand.Add(itemB(), 1)

	filtered := offers.ByItem{
		itemA(): {
			{ShopName: "X", UnitPrice: 1, QuantityAvail: 1},
			{ShopName: "Y", UnitPrice: 2, QuantityAvail: 1},
		},
		itemB(): {
			{ShopName: "X", UnitPrice: 1, QuantityAvail: 1},
			{ShopName: "Y", UnitPrice: 2, QuantityAvail: 1},
		},
	}

	cfg := Defaults()
	cfg.ConsiderShops = 5
	sel := NewSelector(cfg, nil)

	pool1, _, err := sel.Select(demand, filtered)
	require.NoError(t, err)
	pool2, _, err := sel.Select(demand, filtered)
	require.NoError(t, err)

	assert.Equal(t, pool1.Order, pool2.Order)
}
