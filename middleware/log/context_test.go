package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithEventIDContext(t *testing.T) {
	t.Run("adds provided event ID to context", func(t *testing.T) {
		ctx := WithEventID(context.Background(), "event-123")
		assert.Equal(t, "event-123", GetEventID(ctx))
	})

	t.Run("generates new event ID when empty string provided", func(t *testing.T) {
		ctx := WithEventID(context.Background(), "")
		eventID := GetEventID(ctx)
		assert.NotEmpty(t, eventID)
		// UUID format: 36 characters with hyphens.
		assert.Len(t, eventID, 36)
	})

	t.Run("preserves other context values", func(t *testing.T) {
		type testKey string
		key := testKey("test-key")

		ctx := context.WithValue(context.Background(), key, "value")
		ctx = WithEventID(ctx, "event-456")

		assert.Equal(t, "event-456", GetEventID(ctx))
		extracted, ok := ctx.Value(key).(string)
		require.True(t, ok)
		assert.Equal(t, "value", extracted)
	})
}

func TestGetEventID(t *testing.T) {
	t.Run("returns empty string when absent", func(t *testing.T) {
		assert.Empty(t, GetEventID(context.Background()))
	})

	t.Run("returns empty string for wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), EventIDKey, 12345)
		assert.Empty(t, GetEventID(ctx))
	})
}

func TestNewEventID(t *testing.T) {
	ids := make(map[string]bool)
	for range 100 {
		id := NewEventID()
		assert.NotEmpty(t, id)
		assert.False(t, ids[id], "duplicate ID generated: %s", id)
		ids[id] = true
	}
}
