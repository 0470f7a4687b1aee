// Package parts aggregates per-item demand for one run: the quantities a
// build requires, optionally scaled and reduced by an on-hand inventory.
package parts

import (
	"sort"

	"github.com/dornbi/bltools-go/internal/catalog"
)

// Needed maps an Item to the positive integer quantity required.
type Needed map[catalog.Item]int

// New returns an empty demand map.
func New() Needed {
	return make(Needed)
}

// Add increments the demand for item by qty. qty may be negative when used
// internally by Subtract; callers adding new demand should pass qty > 0.
func (n Needed) Add(item catalog.Item, qty int) {
	n[item] += qty
}

// Scale multiplies every demand by multiple, the configured "multiple"
// option. multiple <= 0 is treated as 1 (no scaling).
func (n Needed) Scale(multiple int) Needed {
	if multiple <= 1 {
		return n
	}
	for item, qty := range n {
		n[item] = qty * multiple
	}
	return n
}

// Items returns the items with positive demand, in a stable order.
func (n Needed) Items() []catalog.Item {
	items := make([]catalog.Item, 0, len(n))
	for item, qty := range n {
		if qty > 0 {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Less(items[j]) })
	return items
}

// Total returns the sum of all positive demand quantities.
func (n Needed) Total() int {
	total := 0
	for _, qty := range n {
		if qty > 0 {
			total += qty
		}
	}
	return total
}

// Subtract deducts an on-hand inventory from n, walking entries in
// descending item order as spec.md §4.6 requires. An exact (part, color,
// condition) match is deducted first; if the demand's own condition is
// "any", an on-hand entry for the same part/color with condition "new" or
// "used" may also satisfy it. Deductions floor at zero and fully-matched
// entries are removed. Subtract returns a new Needed and leaves the
// receiver unmodified.
func Subtract(demand Needed, inventory Needed) Needed {
	result := make(Needed, len(demand))
	for item, qty := range demand {
		result[item] = qty
	}

	invCopy := make(Needed, len(inventory))
	for item, qty := range inventory {
		invCopy[item] = qty
	}

	items := make([]catalog.Item, 0, len(result))
	for item := range result {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[j].Less(items[i]) })

	for _, item := range items {
		remaining := result[item]
		if remaining <= 0 {
			continue
		}

		if have, ok := invCopy[item]; ok && have > 0 {
			used := min(have, remaining)
			invCopy[item] -= used
			remaining -= used
		}

		if remaining > 0 && item.Condition == catalog.ConditionAny {
			remaining = subtractAnyCondition(invCopy, item, remaining)
		}

		if remaining <= 0 {
			delete(result, item)
		} else {
			result[item] = remaining
		}
	}
	return result
}

func subtractAnyCondition(inv Needed, demandItem catalog.Item, remaining int) int {
	for _, cond := range []catalog.Condition{catalog.ConditionNew, catalog.ConditionUsed} {
		if remaining <= 0 {
			break
		}
		candidate := demandItem
		candidate.Condition = cond
		if have, ok := inv[candidate]; ok && have > 0 {
			used := min(have, remaining)
			inv[candidate] -= used
			remaining -= used
		}
	}
	return remaining
}
