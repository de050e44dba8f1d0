package signals

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Feed is implemented by the operator-facing WebSocket hub; a best-effort
// push of every cache-invalidation event, independent of the MQTT broker.
type Feed interface {
	Broadcast(payload []byte)
}

// Manager schedules the four independent signal pollers, each wrapped in
// its own circuit breaker so a flaky upstream can't cascade retries into
// every subsequent tick. Each poller's failure is logged and swallowed, not
// propagated — matching the reference scheduler's "log and continue"
// posture exactly.
type Manager struct {
	scheduler gocron.Scheduler
	cache     CacheInvalidator
	broker    EventPublisher
	feed      Feed
	logger    *zap.Logger
}

// NewManager constructs a Manager; call Start to begin scheduling. broker
// and feed may both be nil.
func NewManager(cache CacheInvalidator, broker EventPublisher, feed Feed, logger *zap.Logger) (*Manager, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Manager{scheduler: sched, cache: cache, broker: broker, feed: feed, logger: logger}, nil
}

// breakerFor builds a per-poller circuit breaker with a conservative
// failure threshold, named for log correlation.
func breakerFor(name string) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// Register schedules fetch to run every interval under name's circuit
// breaker. A successful fetch that reports invalidate=true clears the
// prediction cache and best-effort publishes an invalidation event.
func (m *Manager) Register(name string, interval time.Duration, enabled bool, fetch Fetcher) error {
	if !enabled {
		return nil
	}

	breaker := breakerFor(name)
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		result, err := breaker.Execute(func() (interface{}, error) {
			return fetch(ctx)
		})
		if err != nil {
			m.logger.Warn("signal poller failed", zap.String("poller", name), zap.Error(err))
			return
		}

		invalidate, _ := result.(bool)
		if invalidate {
			m.cache.InvalidateAll()
			payload := []byte(`{"source":"` + name + `"}`)
			if m.broker != nil {
				_ = m.broker.PublishEvent("cache-invalidated", payload)
			}
			if m.feed != nil {
				m.feed.Broadcast(payload)
			}
		}
		m.logger.Info("signal poller completed", zap.String("poller", name), zap.Bool("invalidated", invalidate))
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
	)
	return err
}

// Start begins executing every registered job on its schedule.
func (m *Manager) Start() {
	m.scheduler.Start()
}

// Stop halts the scheduler, waiting for in-flight jobs to finish.
func (m *Manager) Stop() error {
	return m.scheduler.Shutdown()
}
