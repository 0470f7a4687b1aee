package offersource

import (
	"context"
	"fmt"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
)

// FetchAll resolves offers for every item, checking cache first and falling
// back to the named marketplace adapter on a miss, caching the result
// before returning it. A failure for one item does not abort the batch; it
// is recorded and the item is simply absent from the result, matching the
// original fetch_shops.py's item-at-a-time progress loop that tolerates
// individual failures.
func FetchAll(ctx context.Context, slug string, items []catalog.Item, cache *Cache) (offers.ByItem, []error) {
	result := make(offers.ByItem, len(items))
	var errs []error

	for _, item := range items {
		if cached, ok, err := cache.Get(ctx, item); err == nil && ok {
			result[item] = cached
			continue
		}

		list, err := FetchOffers(slug, item)
		if err != nil {
			errs = append(errs, fmt.Errorf("offersource: %s: %w", item.Key(), err))
			continue
		}

		if err := cache.Put(ctx, item, list); err != nil {
			errs = append(errs, fmt.Errorf("offersource: cache %s: %w", item.Key(), err))
		}
		result[item] = list
	}

	return offers.Normalize(result), errs
}
