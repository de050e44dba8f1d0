package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbwatch/prediction-engine/internal/config"
)

func TestNewEventBroker_DisabledNeverDialsOut(t *testing.T) {
	broker, err := NewEventBroker(config.MQTTConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.NotNil(t, broker)
}

func TestEventBroker_Disabled_PublishEventIsNoOp(t *testing.T) {
	broker, err := NewEventBroker(config.MQTTConfig{Enabled: false}, nil)
	require.NoError(t, err)

	err = broker.PublishEvent("cache-invalidated", []byte(`{}`))
	assert.NoError(t, err)
}

func TestEventBroker_Disabled_CloseIsSafe(t *testing.T) {
	broker, err := NewEventBroker(config.MQTTConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { broker.Close() })
}
