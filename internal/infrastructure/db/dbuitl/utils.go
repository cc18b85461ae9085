package dbutil

import (
	"encoding/json"
	"fmt"

	"github.com/clubnft/clubd/internal/core/domain"
)

// SerializeEvent encodes the given event as the json payload persisted by the event stores.
func SerializeEvent(event domain.Event) ([]byte, error) {
	return json.Marshal(event)
}

// DeserializeEvent decodes an event payload by looking at its Type field.
func DeserializeEvent(buf []byte) (domain.Event, error) {
	var eventType struct {
		Type domain.EventType
	}

	if err := json.Unmarshal(buf, &eventType); err != nil {
		return nil, err
	}

	switch eventType.Type {
	case domain.EventTypeMintRequested:
		var event = domain.MintRequested{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeTokenMinted:
		var event = domain.TokenMinted{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	}

	return nil, fmt.Errorf("unknown event type %d", eventType.Type)
}
