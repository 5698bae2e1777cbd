package state

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/ChatState/internal/model"
)

// Shared fixtures for the registry tests. IDs are arbitrary but stable so
// failures are easy to read.
const (
	testGuildID   = "100000000000000001"
	testChannelID = "100000000000000002"
	testRoleID    = "100000000000000003"
	testRole2ID   = "100000000000000004"
	testUserID    = "100000000000000005"
	testSelfID    = "100000000000000006"
	testMessageID = "100000000000000007"
	testEmojiID   = "100000000000000008"
)

// idStrings renders an ID slice for order-sensitive comparisons.
func idStrings(ids []snowflake.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func mustSnowflake(t *testing.T, s string) snowflake.ID {
	t.Helper()
	id, err := snowflake.Parse(s)
	require.NoError(t, err)
	return id
}

// seedGuild parses a guild carrying two roles, one channel and one member
// holding both roles.
func seedGuild(t *testing.T, r *MemoryRegistry) *model.Guild {
	t.Helper()
	g, err := r.ParseGuild(Payload{
		"id":   testGuildID,
		"name": "test guild",
		"roles": []any{
			map[string]any{"id": testRoleID, "name": "mod", "position": 1},
			map[string]any{"id": testRole2ID, "name": "admin", "position": 2},
		},
		"channels": []any{
			map[string]any{"id": testChannelID, "name": "general", "type": 0},
		},
		"members": []any{
			map[string]any{
				"user":  map[string]any{"id": testUserID, "username": "alice"},
				"roles": []any{testRoleID, testRole2ID},
			},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, g)
	return g
}

// seedMessage parses a message into the seeded guild's channel.
func seedMessage(t *testing.T, r *MemoryRegistry) *model.Message {
	t.Helper()
	m, err := r.ParseMessage(Payload{
		"id":         testMessageID,
		"channel_id": testChannelID,
		"guild_id":   testGuildID,
		"content":    "hello",
		"author":     map[string]any{"id": testUserID, "username": "alice"},
	})
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}
