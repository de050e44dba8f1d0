package signals

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/curbwatch/prediction-engine/internal/config"
)

// maxPublishRetries bounds the publish retry loop before giving up and
// logging.
const maxPublishRetries = 3

// publishRetryBackoff is the base backoff between publish attempts.
const publishRetryBackoff = 2 * time.Second

// EventBroker publishes cache-invalidation events onto an analytics broker
// topic for downstream consumers. It is optional: when
// disabled in config, PublishEvent is a no-op so callers never need a nil
// check.
type EventBroker struct {
	client  mqtt.Client
	topic   string
	enabled bool
	logger  *zap.Logger
}

// NewEventBroker builds and connects an EventBroker from config. When
// cfg.Enabled is false, it returns a disabled broker that never dials out.
func NewEventBroker(cfg config.MQTTConfig, logger *zap.Logger) (*EventBroker, error) {
	if !cfg.Enabled {
		return &EventBroker{enabled: false, logger: logger}, nil
	}

	opts := mqtt.NewClientOptions()
	brokerURI := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
	opts.AddBroker(brokerURI)
	opts.SetClientID(fmt.Sprintf("prediction-engine-%d", time.Now().UnixNano()))
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("eventBroker: connect: %w", err)
	}

	return &EventBroker{client: client, topic: cfg.Topic, enabled: true, logger: logger}, nil
}

// PublishEvent publishes payload to the broker's configured topic suffixed
// with subtopic, retrying a few times before logging and giving up. The last
// publish error is returned; the Manager discards it, since this is a
// best-effort side channel, not part of the prediction critical path.
func (b *EventBroker) PublishEvent(subtopic string, payload []byte) error {
	if !b.enabled {
		return nil
	}

	topic := fmt.Sprintf("%s/%s", b.topic, subtopic)
	var lastErr error
	for attempt := 1; attempt <= maxPublishRetries; attempt++ {
		token := b.client.Publish(topic, 1, false, payload)
		token.Wait()
		if token.Error() == nil {
			return nil
		}
		lastErr = token.Error()
		time.Sleep(publishRetryBackoff * time.Duration(attempt))
	}

	if b.logger != nil {
		b.logger.Warn("eventBroker: publish failed after retries", zap.String("topic", topic), zap.Error(lastErr))
	}
	return lastErr
}

// Close disconnects the broker, if connected.
func (b *EventBroker) Close() {
	if b.enabled && b.client != nil {
		b.client.Disconnect(250)
	}
}
