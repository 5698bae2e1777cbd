package logger

import (
	"context"

	"github.com/google/uuid"
)

// WithEventID adds a gateway event ID to the context. If eventID is empty a
// new UUID is generated, so every applied event gets a correlation handle
// even when the transport did not supply one.
func WithEventID(ctx context.Context, eventID string) context.Context {
	if eventID == "" {
		eventID = uuid.New().String()
	}
	return context.WithValue(ctx, EventIDKey, eventID)
}

// GetEventID extracts the event ID from the context, or returns an empty
// string.
func GetEventID(ctx context.Context) string {
	if eventID, ok := ctx.Value(EventIDKey).(string); ok {
		return eventID
	}
	return ""
}

// NewEventID generates a fresh event correlation ID.
func NewEventID() string {
	return uuid.New().String()
}
