package offersource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/database"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/storage"
)

// Cache fronts a marketplace adapter with a local-disk cache (for offline
// replay and to avoid re-scraping within a short window) and a Postgres
// cache (for the last-known offers to survive a process restart), adapted
// from the teacher's internal/storage/local.go key-value usage and
// internal/database's run persistence.
type Cache struct {
	disk storage.Storage
	ttl  time.Duration
}

// NewCache builds a Cache backed by local disk storage rooted at dir.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	disk, err := storage.NewLocalStorage(dir)
	if err != nil {
		return nil, fmt.Errorf("offersource: init disk cache: %w", err)
	}
	return &Cache{disk: disk, ttl: ttl}, nil
}

func cacheKey(item catalog.Item) string {
	return fmt.Sprintf("offers/%s.json", item.Key())
}

// Get returns a fresh cached offer list for item, consulting local disk
// first (cheapest) and falling back to Postgres. Returns ok=false on a
// miss or a stale entry (older than the configured TTL).
func (c *Cache) Get(ctx context.Context, item catalog.Item) (result []offers.Offer, ok bool, err error) {
	info, err := c.disk.GetInfo(ctx, cacheKey(item))
	if err == nil && time.Since(info.ModifiedAt) < c.ttl {
		data, err := c.disk.Get(ctx, cacheKey(item))
		if err == nil {
			var cached []offers.Offer
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
				return cached, true, nil
			}
		}
	}

	rows, err := database.GetCachedOffers(ctx, item.Key())
	if err != nil {
		return nil, false, fmt.Errorf("offersource: read cached offers: %w", err)
	}
	if len(rows) == 0 || time.Since(rows[0].FetchedAt) >= c.ttl {
		return nil, false, nil
	}

	out := make([]offers.Offer, 0, len(rows))
	for _, r := range rows {
		cond := offers.ConditionNew
		if r.Condition == "U" {
			cond = offers.ConditionUsed
		}
		out = append(out, offers.Offer{
			ShopName:      r.ShopName,
			UnitPrice:     r.UnitPrice,
			QuantityAvail: r.QuantityAvail,
			Condition:     cond,
			Location:      r.Location,
			MinBuy:        r.MinBuy,
		})
	}
	return out, true, nil
}

// Put writes a freshly scraped offer list to both caches.
func (c *Cache) Put(ctx context.Context, item catalog.Item, list []offers.Offer) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("offersource: marshal offers for cache: %w", err)
	}
	if err := c.disk.Put(ctx, cacheKey(item), data, &storage.Metadata{
		ContentType:  "application/json",
		DownloadedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("offersource: write disk cache: %w", err)
	}

	rows := make([]database.CachedOffer, 0, len(list))
	for _, o := range list {
		cond := "N"
		if o.Condition == offers.ConditionUsed {
			cond = "U"
		}
		rows = append(rows, database.CachedOffer{
			ItemKey:       item.Key(),
			ShopName:      o.ShopName,
			UnitPrice:     o.UnitPrice,
			QuantityAvail: o.QuantityAvail,
			Condition:     cond,
			Location:      o.Location,
			MinBuy:        o.MinBuy,
		})
	}
	if err := database.UpsertCachedOffers(ctx, item.Key(), rows); err != nil {
		return fmt.Errorf("offersource: write postgres cache: %w", err)
	}
	return nil
}
