package lp

import (
	"strings"
	"testing"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/dornbi/bltools-go/internal/sourcing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteModelContainsSetsAndParams(t *testing.T) {
	item := catalog.NewPart("3001", 5, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(item, 3)

	filtered := offers.ByItem{item: {{ShopName: "ShopA", UnitPrice: 1.23, QuantityAvail: 10}}}

	pool := &sourcing.Pool{
		Critical:     map[string]sourcing.SellerInfo{"ShopA": {ShopName: "ShopA", MinBuy: 5}},
		Supplemental: map[string]sourcing.SellerInfo{},
		Order:        []string{"ShopA"},
	}

	var sb strings.Builder
	err := WriteModel(&sb, demand, filtered, pool, 5.0)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "set Bricks")
	assert.Contains(t, out, "set Shops")
	assert.Contains(t, out, "param fix_cost")
	assert.Contains(t, out, "param min_order")
	assert.Contains(t, out, "param demand")
	assert.Contains(t, out, "param unit_price")
	assert.Contains(t, out, "'ShopA'")
	assert.Contains(t, out, "end;")
}

func TestWriteModelUnavailablePriceSentinel(t *testing.T) {
	itemA := catalog.NewPart("3001", 5, catalog.ConditionNew)
	itemB := catalog.NewPart("3002", 5, catalog.ConditionNew)
	demand := parts.New()
	demand.Add(itemA, 1)
	demand.Add(itemB, 1)

	filtered := offers.ByItem{
		itemA: {{ShopName: "ShopA", UnitPrice: 1.0, QuantityAvail: 10}},
		itemB: {{ShopName: "ShopB", UnitPrice: 2.0, QuantityAvail: 10}},
	}

	pool := &sourcing.Pool{
		Critical:     map[string]sourcing.SellerInfo{"ShopA": {ShopName: "ShopA"}, "ShopB": {ShopName: "ShopB"}},
		Supplemental: map[string]sourcing.SellerInfo{},
		Order:        []string{"ShopA", "ShopB"},
	}

	var sb strings.Builder
	err := WriteModel(&sb, demand, filtered, pool, 5.0)
	require.NoError(t, err)

	assert.Contains(t, sb.String(), "1000.00000")
}
