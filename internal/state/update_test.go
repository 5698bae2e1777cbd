package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/ChatState/internal/model"
)

func TestUpdateChannel(t *testing.T) {
	t.Run("not cached yields nil", func(t *testing.T) {
		r := NewMemoryRegistry()
		diff, err := r.UpdateChannel(Payload{"id": testChannelID, "name": "renamed"})
		require.NoError(t, err)
		assert.Nil(t, diff)
	})

	t.Run("old snapshot is immutable", func(t *testing.T) {
		r := NewMemoryRegistry()
		seedGuild(t, r)

		diff, err := r.UpdateChannel(Payload{"id": testChannelID, "name": "renamed"})
		require.NoError(t, err)
		require.NotNil(t, diff)
		assert.Equal(t, "general", diff.Old.Name)
		assert.Equal(t, "renamed", diff.New.Name)

		// Later mutations of the live channel never leak into Old.
		diff.New.Name = "renamed again"
		assert.Equal(t, "general", diff.Old.Name)
	})

	t.Run("partial payload merges", func(t *testing.T) {
		r := NewMemoryRegistry()
		seedGuild(t, r)

		diff, err := r.UpdateChannel(Payload{"id": testChannelID, "topic": "welcome"})
		require.NoError(t, err)
		require.NotNil(t, diff)
		assert.Equal(t, "general", diff.New.Name)
		assert.Equal(t, "welcome", diff.New.Topic)
	})

	t.Run("failed decode leaves the channel untouched", func(t *testing.T) {
		r := NewMemoryRegistry()
		seedGuild(t, r)

		diff, err := r.UpdateChannel(Payload{
			"id":       testChannelID,
			"name":     "renamed",
			"position": []any{1, 2},
		})
		require.Error(t, err)
		assert.Nil(t, diff)

		ch, ok := r.Channel(mustSnowflake(t, testChannelID))
		require.True(t, ok)
		assert.Equal(t, "general", ch.Name)
		assert.Zero(t, ch.Position)
	})

	t.Run("identical payload is idempotent", func(t *testing.T) {
		r := NewMemoryRegistry()
		seedGuild(t, r)

		p := Payload{"id": testChannelID, "name": "renamed", "topic": "welcome"}
		_, err := r.UpdateChannel(p)
		require.NoError(t, err)
		diff, err := r.UpdateChannel(p)
		require.NoError(t, err)
		require.NotNil(t, diff)
		assert.Equal(t, diff.Old, diff.New.Clone())
	})
}

func TestUpdateGuild(t *testing.T) {
	t.Run("not cached yields nil", func(t *testing.T) {
		r := NewMemoryRegistry()
		diff, err := r.UpdateGuild(Payload{"id": testGuildID, "name": "renamed"})
		require.NoError(t, err)
		assert.Nil(t, diff)
	})

	t.Run("containment survives an attribute update", func(t *testing.T) {
		r := NewMemoryRegistry()
		g := seedGuild(t, r)

		diff, err := r.UpdateGuild(Payload{"id": testGuildID, "name": "renamed"})
		require.NoError(t, err)
		require.NotNil(t, diff)
		assert.Equal(t, "test guild", diff.Old.Name)
		assert.Equal(t, "renamed", g.Name)
		assert.Len(t, g.Roles, 2)
		assert.Len(t, g.Members, 1)
	})
}

func TestUpdateMessage(t *testing.T) {
	t.Run("not cached yields nil", func(t *testing.T) {
		r := NewMemoryRegistry()
		diff, err := r.UpdateMessage(Payload{"id": testMessageID, "content": "edited"})
		require.NoError(t, err)
		assert.Nil(t, diff)
	})

	t.Run("edit records the new content", func(t *testing.T) {
		r := NewMemoryRegistry()
		seedGuild(t, r)
		seedMessage(t, r)

		diff, err := r.UpdateMessage(Payload{
			"id":               testMessageID,
			"content":          "edited",
			"edited_timestamp": "2026-08-25T10:00:00Z",
		})
		require.NoError(t, err)
		require.NotNil(t, diff)
		assert.Equal(t, "hello", diff.Old.Content)
		assert.Nil(t, diff.Old.EditedTimestamp)
		assert.Equal(t, "edited", diff.New.Content)
		require.NotNil(t, diff.New.EditedTimestamp)
		assert.Equal(t, 2026, diff.New.EditedTimestamp.Year())
	})
}

func TestUpdateRole(t *testing.T) {
	r := NewMemoryRegistry()
	g := seedGuild(t, r)

	t.Run("missing guild yields nil", func(t *testing.T) {
		diff, err := r.UpdateRole(mustSnowflake(t, "999999999999999999"), Payload{"id": testRoleID})
		require.NoError(t, err)
		assert.Nil(t, diff)
	})

	t.Run("missing role yields nil", func(t *testing.T) {
		diff, err := r.UpdateRole(g.ID, Payload{"id": "999999999999999999"})
		require.NoError(t, err)
		assert.Nil(t, diff)
	})

	t.Run("updates in place", func(t *testing.T) {
		diff, err := r.UpdateRole(g.ID, Payload{"id": testRoleID, "name": "moderator", "position": 5})
		require.NoError(t, err)
		require.NotNil(t, diff)
		assert.Equal(t, "mod", diff.Old.Name)
		assert.Equal(t, "moderator", diff.New.Name)
		assert.Equal(t, 5, g.Roles[mustSnowflake(t, testRoleID)].Position)
	})
}

func TestUpdateMember(t *testing.T) {
	r := NewMemoryRegistry()
	g := seedGuild(t, r)
	m := g.Members[mustSnowflake(t, testUserID)]

	t.Run("roles from other guilds are dropped", func(t *testing.T) {
		mod, ok := r.Role(g.ID, mustSnowflake(t, testRoleID))
		require.True(t, ok)
		foreign := mod.Clone()
		foreign.GuildID = mustSnowflake(t, "999999999999999999")

		diff, err := r.UpdateMember(m, []*model.Role{mod, foreign}, Payload{"nick": "al"})
		require.NoError(t, err)
		require.NotNil(t, diff)
		assert.Equal(t, "al", diff.New.Nick)
		assert.Equal(t, []string{testRoleID}, idStrings(diff.New.RoleIDs))
	})

	t.Run("uncached member yields nil", func(t *testing.T) {
		ghost := &model.Member{GuildID: g.ID, UserID: mustSnowflake(t, "999999999999999999")}
		diff, err := r.UpdateMember(ghost, nil, Payload{"nick": "x"})
		require.NoError(t, err)
		assert.Nil(t, diff)
	})

	t.Run("failed decode leaves the member untouched", func(t *testing.T) {
		before := m.Nick
		diff, err := r.UpdateMember(m, nil, Payload{
			"nick":      "broken",
			"joined_at": []any{1},
		})
		require.Error(t, err)
		assert.Nil(t, diff)

		live, ok := r.Member(g.ID, m.UserID)
		require.True(t, ok)
		assert.Equal(t, before, live.Nick)
	})
}

func TestUpdateMemberPresence(t *testing.T) {
	r := NewMemoryRegistry()
	g := seedGuild(t, r)
	m := g.Members[mustSnowflake(t, testUserID)]

	change, err := r.UpdateMemberPresence(m, Payload{"status": "online"})
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Nil(t, change.Old)
	require.NotNil(t, change.New)

	change, err = r.UpdateMemberPresence(m, Payload{"status": "idle"})
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, "online", string(change.Old.Status))
	assert.Equal(t, "idle", string(change.New.Status))
	assert.Same(t, m, change.Member)
}

func TestUpdateGuildEmojis(t *testing.T) {
	r := NewMemoryRegistry()
	g := seedGuild(t, r)

	emojiA := Payload{"id": "200000000000000001", "name": "a"}
	emojiB := Payload{"id": "200000000000000002", "name": "b"}
	emojiC := Payload{"id": "200000000000000003", "name": "c"}

	removed, added, err := r.UpdateGuildEmojis([]Payload{emojiA, emojiB}, g)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Len(t, added, 2)

	removed, added, err = r.UpdateGuildEmojis([]Payload{emojiB, emojiC}, g)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	require.Len(t, added, 1)
	assert.Equal(t, "a", removed[0].Name)
	assert.Equal(t, "c", added[0].Name)

	// The guild's table now holds exactly the new set, and the removed emoji
	// is gone from the store too.
	assert.Len(t, g.Emojis, 2)
	_, ok := r.GuildEmoji(removed[0].ID)
	assert.False(t, ok)
	_, ok = r.GuildEmoji(added[0].ID)
	assert.True(t, ok)

	t.Run("unchanged set reports nothing", func(t *testing.T) {
		removed, added, err := r.UpdateGuildEmojis([]Payload{emojiB, emojiC}, g)
		require.NoError(t, err)
		assert.Empty(t, removed)
		assert.Empty(t, added)
	})
}

func TestSetGuildUnavailability(t *testing.T) {
	r := NewMemoryRegistry()
	g := seedGuild(t, r)

	r.SetGuildUnavailability(g, true)
	assert.True(t, g.Unavailable)
	r.SetGuildUnavailability(g, false)
	assert.False(t, g.Unavailable)
}

func TestSetLastPinnedTimestamp(t *testing.T) {
	r := NewMemoryRegistry()
	seedGuild(t, r)
	ch, ok := r.Channel(mustSnowflake(t, testChannelID))
	require.True(t, ok)

	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	r.SetLastPinnedTimestamp(ch, &ts)
	require.NotNil(t, ch.LastPinTimestamp)
	assert.True(t, ch.LastPinTimestamp.Equal(ts))

	// A nil timestamp means the last pin was removed.
	r.SetLastPinnedTimestamp(ch, nil)
	assert.Nil(t, ch.LastPinTimestamp)
}

func TestSetRolesForMember(t *testing.T) {
	r := NewMemoryRegistry()
	g := seedGuild(t, r)
	m := g.Members[mustSnowflake(t, testUserID)]
	mod := g.Roles[mustSnowflake(t, testRoleID)]

	r.SetRolesForMember([]*model.Role{mod}, m)
	assert.Equal(t, []string{testRoleID}, idStrings(m.RoleIDs))

	r.SetRolesForMember(nil, m)
	assert.Empty(t, m.RoleIDs)
}
