package cloudevents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderEvent(t *testing.T) {
	factory := NewEventFactory(SourceMarketplace)
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")

	event := factory.CreateOrderEvent(ctx, OrderPlaced, "PYR-12345", map[string]string{"orderId": "PYR-12345"})

	require.NoError(t, event.Validate())
	assert.Equal(t, "order/PYR-12345", event.Subject)
	assert.Equal(t, SourceMarketplace, event.Source)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, map[string]string{
		ExtCorrelationID: "corr-1",
		ExtOrderID:       "PYR-12345",
	}, event.Extensions())

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"specversion":"1.0"`)
	assert.Contains(t, string(raw), `"qurbanorderid":"PYR-12345"`)
}

func TestCreateEventWithoutCorrelation(t *testing.T) {
	event := NewEventFactory(SourceMarketplace).CreateEvent(context.Background(), OrderCompleted, "", nil)
	assert.Empty(t, event.CorrelationID)
	assert.Empty(t, event.Extensions())
	assert.NotEmpty(t, event.ID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		event CloudEvent
	}{
		{"missing id", CloudEvent{Type: OrderPlaced, Source: SourceMarketplace, SpecVersion: SpecVersion}},
		{"missing type", CloudEvent{ID: "1", Source: SourceMarketplace, SpecVersion: SpecVersion}},
		{"missing source", CloudEvent{ID: "1", Type: OrderPlaced, SpecVersion: SpecVersion}},
		{"bad version", CloudEvent{ID: "1", Type: OrderPlaced, Source: SourceMarketplace, SpecVersion: "0.3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.event.Validate())
		})
	}
}
