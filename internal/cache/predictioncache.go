package cache

import (
	"fmt"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/curbwatch/prediction-engine/internal/models"
)

// PredictionCache is a TTL-bounded cache of full /predict responses, keyed
// by a coarse bucket of (lat, lng, date, time-of-day, radius) so that
// requests landing in the same 15-minute window and ~100m cell reuse a
// single computed response.
type PredictionCache struct {
	store *gocache.Cache
}

// NewPredictionCache constructs a cache with the given TTL. go-cache
// doesn't bound entry count; maxSize is accepted for interface parity with
// the config but is not used, so the number of entries is unbounded.
// Expired entries are removed by a periodic cleanup every 2*ttl; there is
// no LRU or size-based eviction.
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	cleanupInterval := ttl * 2
	return &PredictionCache{store: gocache.New(ttl, cleanupInterval)}
}

// Key builds the cache key for a prediction query: rounded coordinates,
// calendar date, 15-minute time bucket, and integer radius, matching the
// reference service's cache-key scheme exactly.
func Key(lat, lng float64, radiusM float64, t time.Time) string {
	roundedLat := math.Round(lat*1000) / 1000
	roundedLng := math.Round(lng*1000) / 1000
	date := t.Format("2006-01-02")
	bucket := t.Hour()*4 + t.Minute()/15
	return fmt.Sprintf("%.3f:%.3f:%s:%d:%d", roundedLat, roundedLng, date, bucket, int(radiusM))
}

// Get returns the cached response for key, if present and unexpired.
func (c *PredictionCache) Get(key string) (models.PredictResponse, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return models.PredictResponse{}, false
	}
	resp, ok := v.(models.PredictResponse)
	return resp, ok
}

// Put stores a response under key using the cache's default TTL.
func (c *PredictionCache) Put(key string, resp models.PredictResponse) {
	c.store.SetDefault(key, resp)
}

// InvalidateAll clears every cached prediction. Used after a successful
// traffic/weather/events poll and on explicit area invalidation.
func (c *PredictionCache) InvalidateAll() {
	c.store.Flush()
}

// InvalidateArea is, as in the reference implementation, a full-cache
// clear rather than a targeted eviction — finer-grained invalidation by
// geographic cell was left as a documented future refinement there and is
// preserved unchanged here; see DESIGN.md.
func (c *PredictionCache) InvalidateArea(lat, lng, radiusM float64) {
	c.InvalidateAll()
}

// ItemCount reports the number of cached entries, primarily for health/metrics.
func (c *PredictionCache) ItemCount() int {
	return c.store.ItemCount()
}
