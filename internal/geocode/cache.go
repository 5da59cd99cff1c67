package geocode

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/fd-guo/ChatGeoPT/internal/observability"
)

// CachedGeocoder wraps a Geocoder with a bounded in-memory cache of matched
// addresses. A claim and the road question that follows it usually name the
// same place, so the second lookup never leaves the process.
type CachedGeocoder struct {
	inner   Geocoder
	places  *placeCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder holding at
// most maxEntries addresses.
func NewCachedGeocoder(inner Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		places:  newPlaceCache(maxEntries),
		metrics: metrics,
	}
}

// ForwardGeocode serves repeated queries from the cache.
func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (Location, bool, error) {
	key := queryKey(query)
	if loc, ok := c.places.lookup(key); ok {
		c.record("hit")
		return loc, true, nil
	}
	c.record("miss")

	loc, found, err := c.inner.ForwardGeocode(ctx, query)
	if err != nil {
		return loc, false, err
	}
	// "not found" is not remembered; the extractor may phrase it better next time.
	if found {
		c.places.store(key, loc)
	}
	return loc, found, nil
}

func (c *CachedGeocoder) record(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}

// queryKey folds case and whitespace runs so "Fenway  Park" and " fenway park"
// share an entry.
func queryKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// ─── PLACE CACHE ──────────────────────────────────────────────────────────────

// placeCache keeps the most recently used addresses. order runs from most to
// least recent; each element's Value is a *cachedPlace.
type placeCache struct {
	mu    sync.Mutex
	limit int
	order *list.List
	byKey map[string]*list.Element
}

type cachedPlace struct {
	key string
	loc Location
}

func newPlaceCache(limit int) *placeCache {
	return &placeCache{
		limit: max(limit, 1),
		order: list.New(),
		byKey: make(map[string]*list.Element),
	}
}

func (c *placeCache) lookup(key string) (Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		return Location{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedPlace).loc, true
}

func (c *placeCache) store(key string, loc Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		el.Value.(*cachedPlace).loc = loc
		c.order.MoveToFront(el)
		return
	}
	c.byKey[key] = c.order.PushFront(&cachedPlace{key: key, loc: loc})

	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cachedPlace).key)
	}
}

func (c *placeCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
