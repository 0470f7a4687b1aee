package offersource

import (
	"fmt"
	"sync"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/http/ratelimit"
)

// Adapter is the contract one marketplace source must satisfy. There is
// exactly one adapter today (BrickLink); the registry exists so a second
// marketplace can be added without changing callers, the same role the
// teacher's chain registry plays for retail chains.
type Adapter interface {
	Slug() string
	FetchOffers(item catalog.Item) ([]offers.Offer, error)
}

// brickLinkAdapter adapts *BrickLink (which returns RawOffer) to the
// registry's Adapter interface (which returns offers.Offer).
type brickLinkAdapter struct {
	*BrickLink
}

func (a brickLinkAdapter) Slug() string { return Slug }

func (a brickLinkAdapter) FetchOffers(item catalog.Item) ([]offers.Offer, error) {
	raw, err := a.BrickLink.FetchOffers(item)
	if err != nil {
		return nil, err
	}
	return Result(raw), nil
}

// Registry manages offer-source adapter registration and retrieval,
// adapted from internal/adapters/registry/registry.go generalized from
// "one adapter per retail chain" to "one adapter per marketplace".
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// DefaultRegistry is the global registry instance.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new, empty offer-source registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register registers an adapter under its own slug.
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Slug()] = adapter
}

// Get retrieves a registered adapter by slug.
func (r *Registry) Get(slug string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[slug]
	return adapter, ok
}

// List returns all registered adapter slugs.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.adapters))
	for slug := range r.adapters {
		slugs = append(slugs, slug)
	}
	return slugs
}

// InitializeDefaultAdapters registers every built-in marketplace adapter
// against DefaultRegistry. Called once at startup, mirroring the teacher's
// registry.InitializeDefaultAdapters.
func InitializeDefaultAdapters(rateLimit ratelimit.Config, numShops int) error {
	DefaultRegistry.Register(brickLinkAdapter{BrickLink: NewBrickLink(rateLimit, numShops)})
	return nil
}

// FetchOffers is a convenience function fetching offers for one item from
// the named marketplace via the default registry.
func FetchOffers(slug string, item catalog.Item) ([]offers.Offer, error) {
	adapter, ok := DefaultRegistry.Get(slug)
	if !ok {
		return nil, fmt.Errorf("offersource: no adapter registered for %q", slug)
	}
	return adapter.FetchOffers(item)
}
