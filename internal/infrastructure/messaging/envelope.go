package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/gigmile/mobile-money-service/internal/domain"
)

const (
	fieldEventID   = "event_id"
	fieldEventType = "event_type"
	fieldKey       = "aggregate_id"
	fieldData      = "data"
)

// StreamKey is the Redis stream an event type is published on.
func StreamKey(eventType string) string {
	return "events:" + eventType
}

type eventDecoder func(data []byte) (domain.DomainEvent, error)

var decoders = map[string]eventDecoder{
	domain.EventTypePaymentSettled: func(data []byte) (domain.DomainEvent, error) {
		var e domain.PaymentSettledEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	},
}

// encodeEvent flattens an event into stream entry fields. The full event
// travels as JSON under "data"; the other fields are for XRANGE readers.
func encodeEvent(event domain.DomainEvent) (map[string]interface{}, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return map[string]interface{}{
		fieldEventID:   event.GetEventID(),
		fieldEventType: event.GetEventType(),
		fieldKey:       event.GetAggregateID(),
		"occurred_at":  event.GetOccurredAt().Unix(),
		fieldData:      string(data),
	}, nil
}

func decodeEvent(eventType string, values map[string]interface{}) (domain.DomainEvent, error) {
	decode, ok := decoders[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
	data, ok := values[fieldData].(string)
	if !ok {
		return nil, fmt.Errorf("entry has no %q field", fieldData)
	}
	event, err := decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
