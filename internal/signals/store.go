package signals

import (
	"context"
	"time"

	"github.com/curbwatch/prediction-engine/internal/models"
)

// SignalStore is the persistence dependency every poller writes fetched
// signals to. Cache invalidation goes through CacheInvalidator instead.
type SignalStore interface {
	UpsertSignal(ctx context.Context, sig models.RealTimeSignal) error
	UpsertGarageAvailability(ctx context.Context, snapshot models.GarageAvailability) error
}

// CacheInvalidator is implemented by the prediction cache; kept as a
// narrow interface here so this package doesn't import internal/cache.
type CacheInvalidator interface {
	InvalidateAll()
}

// EventPublisher is implemented by the MQTT-backed analytics publisher;
// cache-invalidation events from successful polls are best-effort published
// for downstream observability — the Manager ignores any publish error.
type EventPublisher interface {
	PublishEvent(topic string, payload []byte) error
}

// Fetcher is the signature every individual poller implements: fetch from
// an upstream, persist, and report whether the cache should be invalidated
// as a result (garages pollers return false; the other three return true
// on success, matching the reference scheduler's behavior).
type Fetcher func(ctx context.Context) (invalidate bool, err error)

// clock is overridable for tests.
var clock = time.Now
