// Package offers holds the per-item offer list and the filtering rules
// (quantity, condition, shop/country allow-deny) that narrow raw scraped
// offers down to the set the candidate selector may choose from.
package offers

import (
	"sort"

	"github.com/dornbi/bltools-go/internal/catalog"
)

// Condition is the offer's own new/used state, distinct from catalog.Condition
// which also allows "any" on the demand side.
type Condition string

const (
	ConditionNew  Condition = "N"
	ConditionUsed Condition = "U"
)

// Offer is one seller's listing for one Item.
type Offer struct {
	ShopName     string
	UnitPrice    float64
	QuantityAvail int
	Condition    Condition
	Location     string
	MinBuy       float64
}

// ByItem is the raw or filtered offer collection, keyed by Item.
type ByItem map[catalog.Item][]Offer

// Normalize deduplicates offers from the same seller for the same item
// (keeping the one with the larger available quantity) and sorts the
// result ascending by unit price, per spec.md §6.
func Normalize(raw ByItem) ByItem {
	out := make(ByItem, len(raw))
	for item, list := range raw {
		bySeller := make(map[string]Offer, len(list))
		for _, o := range list {
			existing, ok := bySeller[o.ShopName]
			if !ok || o.QuantityAvail > existing.QuantityAvail {
				bySeller[o.ShopName] = o
			}
		}
		merged := make([]Offer, 0, len(bySeller))
		for _, o := range bySeller {
			merged = append(merged, o)
		}
		sort.Slice(merged, func(i, j int) bool {
			if merged[i].UnitPrice != merged[j].UnitPrice {
				return merged[i].UnitPrice < merged[j].UnitPrice
			}
			return merged[i].ShopName < merged[j].ShopName // deterministic tie-break
		})
		out[item] = merged
	}
	return out
}
