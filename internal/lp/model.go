// Package lp formulates the mixed-integer program used for larger candidate
// pools, drives the external glpsol solver, and parses its solution, per
// spec.md §4.4.
package lp

import (
	"fmt"
	"io"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
	"github.com/dornbi/bltools-go/internal/sourcing"
)

// unavailablePrice is the sentinel unit price emitted for a (brick, shop)
// pair the shop does not offer, per spec.md §4.4.
const unavailablePrice = 1000.0

// maxBricksFromShop bounds the activation-link constraint; arbitrarily high
// but required so order_shop toggles whenever order_brick is non-zero.
const maxBricksFromShop = 10000

const amplPreamble = `
set Bricks;

set Shops;

# The demand for each brick.
param demand{b in Bricks}, integer;

# Unit price of each brick from shop s.
param unit_price{b in Bricks, s in Shops};

# Fix cost when ordering from shop s.
param fix_cost{s in Shops};

# Minimum order from each shop.
param min_order{s in Shops};

# Maximum total number of bricks to order from one shop. This can be
# arbitrarily high but is needed to enforce consistency.
param max_bricks_from_shop;

# Do we order from shop s?
var order_shop{s in Shops}, binary >= 0;

# How many bricks do we order of brick b from shop s?
var order_brick{b in Bricks, s in Shops} integer >= 0;

minimize cost:
  sum{s in Shops} order_shop[s] * fix_cost[s] +
  sum{b in Bricks, s in Shops} order_brick[b,s] * unit_price[b,s];

s.t. brick_at_least{b in Bricks}:
sum{s in Shops} order_brick[b,s] >= demand[b];

s.t. brick_not_too_much{b in Bricks}:
sum{s in Shops} order_brick[b,s] <= 10 * demand[b];

s.t. brick_shop_sync{b in Bricks, s in Shops}:
order_shop[s] >= order_brick[b,s] / max_bricks_from_shop;

s.t. shop_at_least{s in Shops}:
sum{b in Bricks} order_brick[b,s] * unit_price[b,s] >= min_order[s] * order_shop[s];

data;

param max_bricks_from_shop := %d;

`

// WriteModel emits the AMPL-style model file for demand against the
// candidate pool, writing bricks in items' stable key order and shops in
// pool.Order, so the same inputs always produce a byte-identical file.
func WriteModel(w io.Writer, demand parts.Needed, filtered offers.ByItem, pool *sourcing.Pool, shopFixCost float64) error {
	items := demand.Items()
	shops := pool.Order

	if _, err := fmt.Fprintf(w, amplPreamble, maxBricksFromShop); err != nil {
		return err
	}

	if err := writeSet(w, "Bricks", itemKeys(items)); err != nil {
		return err
	}
	if err := writeSet(w, "Shops", shops); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "param fix_cost :=\n"); err != nil {
		return err
	}
	for _, s := range shops {
		if _, err := fmt.Fprintf(w, "%s %.5f\n", quoteName(s), shopFixCost); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, ";\n\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "param min_order :=\n"); err != nil {
		return err
	}
	for _, s := range shops {
		minBuy := sellerMinBuy(pool, s)
		if _, err := fmt.Fprintf(w, "%s %.5f\n", quoteName(s), minBuy); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, ";\n\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "param demand :=\n"); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s %d\n", quoteName(item.Key()), demand[item]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, ";\n\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "param unit_price : "); err != nil {
		return err
	}
	for _, s := range shops {
		if _, err := fmt.Fprintf(w, "%s ", quoteName(s)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, ":=\n"); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s", quoteName(item.Key())); err != nil {
			return err
		}
		prices := make(map[string]float64, len(filtered[item]))
		for _, o := range filtered[item] {
			prices[o.ShopName] = o.UnitPrice
		}
		for _, s := range shops {
			price, ok := prices[s]
			if !ok {
				price = unavailablePrice
			}
			if _, err := fmt.Fprintf(w, " %.5f", price); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, ";\n\nend;\n"); err != nil {
		return err
	}
	return nil
}

func writeSet(w io.Writer, name string, members []string) error {
	if _, err := fmt.Fprintf(w, "set %s :=\n", name); err != nil {
		return err
	}
	for _, m := range members {
		if _, err := fmt.Fprintf(w, "%s\n", quoteName(m)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, ";\n\n")
	return err
}

func itemKeys(items []catalog.Item) []string {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = item.Key()
	}
	return keys
}

func sellerMinBuy(pool *sourcing.Pool, name string) float64 {
	if info, ok := pool.Critical[name]; ok {
		return info.MinBuy
	}
	if info, ok := pool.Supplemental[name]; ok {
		return info.MinBuy
	}
	return 0
}

// quoteName single-quotes a name, matching the parser's expectation that
// "names surrounded by single quotes are unquoted" (spec.md §4.4).
func quoteName(name string) string {
	return "'" + name + "'"
}
