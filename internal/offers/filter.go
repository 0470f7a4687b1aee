package offers

import (
	"fmt"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/parts"
)

// Options holds the include/exclude configuration from spec.md §6. Nil or
// empty sets behave as "no restriction" for the corresponding include set,
// and as "nothing excluded" for the corresponding exclude set.
type Options struct {
	IncludeShops     map[string]bool
	ExcludeShops     map[string]bool
	DontExcludeShops map[string]bool // waives shop-exclude and country rules for listed shops

	IncludeCountries map[string]bool
	ExcludeCountries map[string]bool

	// IncludeUsedAll allows used offers for every item (the "all" sentinel
	// value of include_used).
	IncludeUsedAll bool
	IncludeUsed    map[catalog.Item]bool
	ExcludeUsed    map[catalog.Item]bool
}

// ErrNoOffers is returned when an item in demand has no offers left after
// filtering: an infeasible-input hard failure per spec.md §4.1 and §7.
type ErrNoOffers struct {
	Item catalog.Item
}

func (e ErrNoOffers) Error() string {
	return fmt.Sprintf("no offers for item %s: catalog mapping may be wrong or the item does not exist in this color", e.Item)
}

// Filter narrows raw (already-normalized) offers to those satisfying every
// rule in spec.md §4.1 for each item in demand. An item left with zero
// offers is a hard failure.
func Filter(demand parts.Needed, raw ByItem, opts Options) (ByItem, error) {
	out := make(ByItem, len(demand))
	for item, qty := range demand {
		if qty <= 0 {
			continue
		}
		list := raw[item]
		kept := make([]Offer, 0, len(list))
		for _, o := range list {
			if !passesQuantity(o, qty) {
				continue
			}
			if !passesCondition(o, item, opts) {
				continue
			}
			if !passesShop(o, opts) {
				continue
			}
			if !passesCountry(o, opts) {
				continue
			}
			kept = append(kept, o)
		}
		if len(kept) == 0 {
			return nil, ErrNoOffers{Item: item}
		}
		out[item] = kept
	}
	return out, nil
}

func passesQuantity(o Offer, demandQty int) bool {
	return o.QuantityAvail >= demandQty
}

func passesCondition(o Offer, item catalog.Item, opts Options) bool {
	if o.Condition == ConditionNew {
		return true
	}
	if item.Condition == catalog.ConditionAny {
		return true
	}
	if opts.IncludeUsedAll {
		return !opts.ExcludeUsed[item]
	}
	return opts.IncludeUsed[item]
}

func passesShop(o Offer, opts Options) bool {
	if opts.DontExcludeShops[o.ShopName] {
		return true
	}
	if len(opts.IncludeShops) > 0 && !opts.IncludeShops[o.ShopName] {
		return false
	}
	return !opts.ExcludeShops[o.ShopName]
}

func passesCountry(o Offer, opts Options) bool {
	if opts.DontExcludeShops[o.ShopName] {
		return true
	}
	if len(opts.IncludeCountries) > 0 && !opts.IncludeCountries[o.Location] {
		return false
	}
	return !opts.ExcludeCountries[o.Location]
}
