package ingest

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/ChatState/internal/model"
	"github.com/Gopher0727/ChatState/internal/state"
)

const (
	guildID   = "100000000000000001"
	channelID = "100000000000000002"
	roleID    = "100000000000000003"
	userID    = "100000000000000005"
	selfID    = "100000000000000006"
	messageID = "100000000000000007"
)

// newDispatcher returns a dispatcher over a fresh registry with one guild,
// one channel, one role and one member already applied.
func newDispatcher(t *testing.T) (*Dispatcher, *state.MemoryRegistry) {
	t.Helper()
	reg := state.NewMemoryRegistry()
	d := NewDispatcher(reg, nil, nil)

	_, err := d.Apply(EventReady, state.Payload{
		"user": map[string]any{"id": selfID, "username": "statebot", "verified": true},
	})
	require.NoError(t, err)

	delta, err := d.Apply(EventGuildCreate, state.Payload{
		"id":   guildID,
		"name": "demo",
		"roles": []any{
			map[string]any{"id": roleID, "name": "mod", "position": 1},
		},
		"channels": []any{
			map[string]any{"id": channelID, "name": "general", "type": 0},
		},
		"members": []any{
			map[string]any{
				"user":  map[string]any{"id": userID, "username": "alice"},
				"roles": []any{roleID},
			},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	return d, reg
}

func applyMessage(t *testing.T, d *Dispatcher) *model.Message {
	t.Helper()
	delta, err := d.Apply(EventMessageCreate, state.Payload{
		"id":         messageID,
		"channel_id": channelID,
		"guild_id":   guildID,
		"content":    "hello",
		"author":     map[string]any{"id": userID, "username": "alice"},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	m, ok := delta.Entity.(*model.Message)
	require.True(t, ok)
	return m
}

func mustSnowflakeID(t *testing.T, s string) snowflake.ID {
	t.Helper()
	id, err := snowflake.Parse(s)
	require.NoError(t, err)
	return id
}

func TestDispatcherReady(t *testing.T) {
	reg := state.NewMemoryRegistry()
	d := NewDispatcher(reg, nil, nil)

	delta, err := d.Apply(EventReady, state.Payload{
		"user": map[string]any{"id": selfID, "username": "statebot"},
		"guilds": []any{
			map[string]any{"id": guildID, "name": "demo", "unavailable": true},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)

	me := reg.Me()
	require.NotNil(t, me)
	assert.Equal(t, "statebot", me.Username)
	assert.Len(t, reg.Guilds(), 1)

	t.Run("missing user object fails", func(t *testing.T) {
		_, err := d.Apply(EventReady, state.Payload{})
		assert.ErrorIs(t, err, state.ErrMissingUser)
	})
}

func TestDispatcherGuildDelete(t *testing.T) {
	t.Run("outage flags instead of deleting", func(t *testing.T) {
		d, reg := newDispatcher(t)
		delta, err := d.Apply(EventGuildDelete, state.Payload{"id": guildID, "unavailable": true})
		require.NoError(t, err)
		require.NotNil(t, delta)

		g := reg.Guilds()[0]
		assert.True(t, g.Unavailable)
	})

	t.Run("removal cascades", func(t *testing.T) {
		d, reg := newDispatcher(t)
		delta, err := d.Apply(EventGuildDelete, state.Payload{"id": guildID})
		require.NoError(t, err)
		require.NotNil(t, delta)

		assert.Empty(t, reg.Guilds())
	})

	t.Run("uncached guild is suppressed", func(t *testing.T) {
		d, _ := newDispatcher(t)
		delta, err := d.Apply(EventGuildDelete, state.Payload{"id": "999999999999999999"})
		require.NoError(t, err)
		assert.Nil(t, delta)
	})
}

func TestDispatcherChannelFlow(t *testing.T) {
	d, reg := newDispatcher(t)

	delta, err := d.Apply(EventChannelCreate, state.Payload{
		"id": "100000000000000040", "guild_id": guildID, "name": "random", "type": 0,
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	ch := delta.Entity.(*model.Channel)
	assert.Equal(t, "random", ch.Name)

	delta, err = d.Apply(EventChannelUpdate, state.Payload{
		"id": "100000000000000040", "topic": "anything goes",
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Equal(t, "", delta.Old.(*model.Channel).Topic)
	assert.Equal(t, "anything goes", delta.New.(*model.Channel).Topic)

	delta, err = d.Apply(EventChannelPinsUpdate, state.Payload{
		"channel_id": "100000000000000040", "last_pin_timestamp": "2026-08-25T10:00:00Z",
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.NotNil(t, ch.LastPinTimestamp)

	delta, err = d.Apply(EventChannelDelete, state.Payload{"id": "100000000000000040"})
	require.NoError(t, err)
	require.NotNil(t, delta)
	_, ok := reg.Channel(ch.ID)
	assert.False(t, ok)
}

func TestDispatcherMemberFlow(t *testing.T) {
	d, reg := newDispatcher(t)

	delta, err := d.Apply(EventGuildMemberAdd, state.Payload{
		"guild_id": guildID,
		"user":     map[string]any{"id": "100000000000000050", "username": "bob"},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)

	delta, err = d.Apply(EventGuildMemberUpdate, state.Payload{
		"guild_id": guildID,
		"user":     map[string]any{"id": "100000000000000050"},
		"nick":     "bobby",
		"roles":    []any{roleID},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	updated := delta.New.(*model.Member)
	assert.Equal(t, "bobby", updated.Nick)
	assert.Len(t, updated.RoleIDs, 1)

	delta, err = d.Apply(EventGuildMemberRemove, state.Payload{
		"guild_id": guildID,
		"user":     map[string]any{"id": "100000000000000050"},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)

	g := reg.Guilds()[0]
	assert.Len(t, g.Members, 1)

	t.Run("update for unknown member is suppressed", func(t *testing.T) {
		delta, err := d.Apply(EventGuildMemberUpdate, state.Payload{
			"guild_id": guildID,
			"user":     map[string]any{"id": "100000000000000050"},
			"nick":     "ghost",
		})
		require.NoError(t, err)
		assert.Nil(t, delta)
	})
}

func TestDispatcherRoleFlow(t *testing.T) {
	d, reg := newDispatcher(t)

	delta, err := d.Apply(EventGuildRoleCreate, state.Payload{
		"guild_id": guildID,
		"role":     map[string]any{"id": "100000000000000060", "name": "vip", "position": 3},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)

	delta, err = d.Apply(EventGuildRoleUpdate, state.Payload{
		"guild_id": guildID,
		"role":     map[string]any{"id": "100000000000000060", "name": "very vip"},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Equal(t, "vip", delta.Old.(*model.Role).Name)
	assert.Equal(t, "very vip", delta.New.(*model.Role).Name)

	t.Run("delete strips members", func(t *testing.T) {
		g := reg.Guilds()[0]
		member := g.Members[mustSnowflakeID(t, userID)]
		require.NotNil(t, member)
		require.True(t, member.HasRole(mustSnowflakeID(t, roleID)))

		delta, err := d.Apply(EventGuildRoleDelete, state.Payload{
			"guild_id": guildID,
			"role_id":  roleID,
		})
		require.NoError(t, err)
		require.NotNil(t, delta)
		assert.False(t, member.HasRole(mustSnowflakeID(t, roleID)))
	})
}

func TestDispatcherMessageFlow(t *testing.T) {
	d, reg := newDispatcher(t)
	m := applyMessage(t, d)

	delta, err := d.Apply(EventMessageUpdate, state.Payload{
		"id": messageID, "content": "edited",
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Equal(t, "hello", delta.Old.(*model.Message).Content)
	assert.Equal(t, "edited", delta.New.(*model.Message).Content)

	delta, err = d.Apply(EventMessageDelete, state.Payload{"id": messageID})
	require.NoError(t, err)
	require.NotNil(t, delta)
	_, ok := reg.Message(m.ID)
	assert.False(t, ok)

	t.Run("delete of uncached message is suppressed", func(t *testing.T) {
		delta, err := d.Apply(EventMessageDelete, state.Payload{"id": messageID})
		require.NoError(t, err)
		assert.Nil(t, delta)
	})
}

func TestDispatcherReactionFlow(t *testing.T) {
	d, _ := newDispatcher(t)
	m := applyMessage(t, d)

	add := state.Payload{
		"message_id": messageID,
		"channel_id": channelID,
		"user_id":    userID,
		"emoji":      map[string]any{"name": "👍"},
	}

	delta, err := d.Apply(EventMessageReactionAdd, add)
	require.NoError(t, err)
	require.NotNil(t, delta)
	reaction := delta.Entity.(*model.Reaction)
	assert.Equal(t, 1, reaction.Count)

	delta, err = d.Apply(EventMessageReactionAdd, add)
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Equal(t, 2, delta.Entity.(*model.Reaction).Count)

	delta, err = d.Apply(EventMessageReactionRemove, add)
	require.NoError(t, err)
	require.NotNil(t, delta)
	remaining := delta.New.(*model.Reaction)
	assert.Equal(t, 1, remaining.Count)

	delta, err = d.Apply(EventMessageReactionRemove, add)
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Nil(t, delta.New)
	assert.Empty(t, m.Reactions)

	t.Run("uncached channel suppresses the add", func(t *testing.T) {
		delta, err := d.Apply(EventMessageReactionAdd, state.Payload{
			"message_id": messageID,
			"channel_id": "999999999999999999",
			"emoji":      map[string]any{"name": "👍"},
		})
		require.NoError(t, err)
		assert.Nil(t, delta)
	})

	t.Run("remove all clears the collection", func(t *testing.T) {
		_, err := d.Apply(EventMessageReactionAdd, add)
		require.NoError(t, err)
		delta, err := d.Apply(EventMessageReactionRemoveAll, state.Payload{"message_id": messageID})
		require.NoError(t, err)
		require.NotNil(t, delta)
		assert.Empty(t, m.Reactions)
	})
}

func TestDispatcherPresenceUpdate(t *testing.T) {
	d, reg := newDispatcher(t)

	delta, err := d.Apply(EventPresenceUpdate, state.Payload{
		"guild_id": guildID,
		"user":     map[string]any{"id": userID},
		"status":   "online",
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Nil(t, delta.Old)
	assert.Equal(t, model.StatusOnline, delta.New.(*model.Presence).Status)

	member, ok := reg.Member(mustSnowflakeID(t, guildID), mustSnowflakeID(t, userID))
	require.True(t, ok)
	require.NotNil(t, member.Presence)
	assert.Equal(t, model.StatusOnline, member.Presence.Status)
}

func TestDispatcherVoiceStateUpdate(t *testing.T) {
	d, reg := newDispatcher(t)

	delta, err := d.Apply(EventVoiceStateUpdate, state.Payload{
		"guild_id":   guildID,
		"user_id":    userID,
		"channel_id": channelID,
		"self_mute":  true,
	})
	require.NoError(t, err)
	require.NotNil(t, delta)

	v, ok := reg.VoiceState(mustSnowflakeID(t, guildID), mustSnowflakeID(t, userID))
	require.True(t, ok)
	assert.True(t, v.SelfMute)
}

func TestDispatcherFiltering(t *testing.T) {
	reg := state.NewMemoryRegistry()
	d := NewDispatcher(reg, NewFilter(EventGuildCreate), nil)

	delta, err := d.Apply(EventMessageCreate, state.Payload{
		"id": messageID, "channel_id": channelID,
	})
	require.NoError(t, err)
	assert.Nil(t, delta)
	assert.Zero(t, reg.MessageCount())

	t.Run("unknown kinds are suppressed", func(t *testing.T) {
		delta, err := d.Apply("TYPING_START", state.Payload{})
		require.NoError(t, err)
		assert.Nil(t, delta)
	})
}

func TestDispatcherUserUpdate(t *testing.T) {
	d, reg := newDispatcher(t)

	delta, err := d.Apply(EventUserUpdate, state.Payload{
		"id": selfID, "username": "statebot-renamed",
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Equal(t, "statebot-renamed", reg.Me().Username)
}

func TestDispatcherWebhookUpdate(t *testing.T) {
	d, reg := newDispatcher(t)

	delta, err := d.Apply(EventWebhookUpdate, state.Payload{
		"id": "100000000000000070", "guild_id": guildID, "channel_id": channelID, "name": "deploys",
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	w := delta.Entity.(*model.Webhook)
	_, ok := reg.Webhook(w.ID)
	assert.True(t, ok)
}

func TestDispatcherGuildEmojisUpdate(t *testing.T) {
	d, _ := newDispatcher(t)

	delta, err := d.Apply(EventGuildEmojisUpdate, state.Payload{
		"guild_id": guildID,
		"emojis": []any{
			map[string]any{"id": "200000000000000001", "name": "blob"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Len(t, delta.Added.([]*model.Emoji), 1)
	assert.Empty(t, delta.Removed)

	delta, err = d.Apply(EventGuildEmojisUpdate, state.Payload{
		"guild_id": guildID,
		"emojis":   []any{},
	})
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Len(t, delta.Removed.([]*model.Emoji), 1)
}
