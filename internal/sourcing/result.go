package sourcing

import (
	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/parts"
)

// Result is the shared query surface over a completed run, per spec.md
// §4.5. Both optimizer backends produce a Result from their Allocation.
type Result struct {
	Demand     parts.Needed
	Filtered   offers.ByItem
	Pool       *Pool
	Allocation Allocation
	ShopFixCost float64
}

// NewResult builds a Result from a completed allocation.
func NewResult(demand parts.Needed, filtered offers.ByItem, pool *Pool, allocation Allocation, shopFixCost float64) *Result {
	return &Result{Demand: demand, Filtered: filtered, Pool: pool, Allocation: allocation, ShopFixCost: shopFixCost}
}

// TotalBricks returns the total demand quantity across all items.
func (r *Result) TotalBricks() int {
	return r.Demand.Total()
}

// OfferCount returns the number of filtered offers for item.
func (r *Result) OfferCount(item catalog.Item) int {
	return len(r.Filtered[item])
}

// UnitPrice looks up the unit price a seller offers for item within the
// filtered offer set. Returns false if no such offer exists.
func (r *Result) UnitPrice(seller string, item catalog.Item) (float64, bool) {
	for _, o := range r.Filtered[item] {
		if o.ShopName == seller {
			return o.UnitPrice, true
		}
	}
	return 0, false
}

// SellerNetTotal returns the sum of allocated-quantity × unit-price for one
// seller, excluding the fixed shop cost.
func (r *Result) SellerNetTotal(seller string) float64 {
	total := 0.0
	for item, qty := range r.Allocation[seller] {
		if price, ok := r.UnitPrice(seller, item); ok {
			total += float64(qty) * price
		}
	}
	return total
}

// GrandNetTotal sums SellerNetTotal across every seller in the allocation.
func (r *Result) GrandNetTotal() float64 {
	total := 0.0
	for seller := range r.Allocation {
		total += r.SellerNetTotal(seller)
	}
	return total
}

// GrossTotal adds ShopFixCost per selected (non-empty-allocation) seller to
// GrandNetTotal.
func (r *Result) GrossTotal() float64 {
	total := r.GrandNetTotal()
	for seller, items := range r.Allocation {
		if len(items) > 0 {
			_ = seller
			total += r.ShopFixCost
		}
	}
	return total
}

// SelectedSellers returns the sellers with a non-empty allocation.
func (r *Result) SelectedSellers() []string {
	names := make([]string, 0, len(r.Allocation))
	for seller, items := range r.Allocation {
		if len(items) > 0 {
			names = append(names, seller)
		}
	}
	return names
}
