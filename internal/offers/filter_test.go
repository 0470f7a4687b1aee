package offers

import (
	"testing"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDedupesBySeller(t *testing.T) {
	item := catalog.NewPart("3001", 1, catalog.ConditionNew)
	raw := ByItem{
		item: {
			{ShopName: "a", UnitPrice: 1.0, QuantityAvail: 5},
			{ShopName: "a", UnitPrice: 1.0, QuantityAvail: 10},
			{ShopName: "b", UnitPrice: 0.5, QuantityAvail: 3},
		},
	}

	out := Normalize(raw)

	require.Len(t, out[item], 2)
	assert.Equal(t, "b", out[item][0].ShopName)
	assert.Equal(t, 10, out[item][1].QuantityAvail)
}

func TestFilterQuantityRule(t *testing.T) {
	item := catalog.NewPart("3001", 1, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 5)

	raw := ByItem{item: {
		{ShopName: "a", UnitPrice: 1, QuantityAvail: 2, Condition: ConditionNew},
		{ShopName: "b", UnitPrice: 1, QuantityAvail: 10, Condition: ConditionNew},
	}}

	out, err := Filter(demand, raw, Options{})
	require.NoError(t, err)
	require.Len(t, out[item], 1)
	assert.Equal(t, "b", out[item][0].ShopName)
}

func TestFilterEmptyResultIsHardFailure(t *testing.T) {
	item := catalog.NewPart("3001", 1, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 5)

	raw := ByItem{item: {{ShopName: "a", UnitPrice: 1, QuantityAvail: 1, Condition: ConditionNew}}}

	_, err := Filter(demand, raw, Options{})
	require.Error(t, err)
	var noOffers ErrNoOffers
	require.ErrorAs(t, err, &noOffers)
	assert.Equal(t, item, noOffers.Item)
}

func TestFilterUsedConditionRequiresAllowlist(t *testing.T) {
	item := catalog.NewPart("3001", 1, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 1)

	raw := ByItem{item: {{ShopName: "a", UnitPrice: 1, QuantityAvail: 1, Condition: ConditionUsed}}}

	_, err := Filter(demand, raw, Options{})
	require.Error(t, err)

	out, err := Filter(demand, raw, Options{IncludeUsedAll: true})
	require.NoError(t, err)
	require.Len(t, out[item], 1)
}

func TestFilterAnyConditionItemAllowsUsed(t *testing.T) {
	item := catalog.NewPart("3001", 1, catalog.ConditionAny)
	demand := parts.New()
	demand.Add(item, 1)

	raw := ByItem{item: {{ShopName: "a", UnitPrice: 1, QuantityAvail: 1, Condition: ConditionUsed}}}

	out, err := Filter(demand, raw, Options{})
	require.NoError(t, err)
	require.Len(t, out[item], 1)
}

func TestFilterShopExcludeOverride(t *testing.T) {
	item := catalog.NewPart("3001", 1, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 1)

	raw := ByItem{item: {{ShopName: "blocked", UnitPrice: 1, QuantityAvail: 1, Condition: ConditionNew, Location: "XX"}}}

	_, err := Filter(demand, raw, Options{ExcludeShops: map[string]bool{"blocked": true}})
	require.Error(t, err)

	out, err := Filter(demand, raw, Options{
		ExcludeShops:     map[string]bool{"blocked": true},
		DontExcludeShops: map[string]bool{"blocked": true},
	})
	require.NoError(t, err)
	require.Len(t, out[item], 1)
}

func TestFilterIdempotent(t *testing.T) {
	item := catalog.NewPart("3001", 1, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 1)

	raw := ByItem{item: {{ShopName: "a", UnitPrice: 1, QuantityAvail: 3, Condition: ConditionNew, Location: "US"}}}

	first, err := Filter(demand, raw, Options{})
	require.NoError(t, err)
	second, err := Filter(demand, first, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
