package state

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/Gopher0727/ChatState/internal/model"
)

// UpdateChannel applies the payload to the cached channel and returns the
// (old, new) snapshot pair, or nil if the channel is not cached.
func (r *MemoryRegistry) UpdateChannel(p Payload) (*Diff[model.Channel], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("channel update: %w", ErrMissingID)
	}
	ch, ok := r.store.channel(id)
	if !ok {
		return nil, nil
	}
	old := ch.Clone()
	if err := decodePayload(p, ch); err != nil {
		// A failed decode must not leave a half-applied entity behind.
		*ch = *old
		return nil, fmt.Errorf("channel update %s: %w", id, err)
	}
	r.notifyUpsert(KindChannel, ch.ID.String(), ch.Clone())
	return &Diff[model.Channel]{Old: old, New: ch}, nil
}

// UpdateGuild applies the payload to the cached guild and returns the
// (old, new) snapshot pair, or nil if the guild is not cached. Only the
// guild's own attributes are touched; contained entities have their own
// update operations.
func (r *MemoryRegistry) UpdateGuild(p Payload) (*Diff[model.Guild], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("guild update: %w", ErrMissingID)
	}
	g, ok := r.store.guild(id)
	if !ok {
		return nil, nil
	}
	old := g.Clone()
	if err := decodePayload(p, g); err != nil {
		*g = *old
		return nil, fmt.Errorf("guild update %s: %w", id, err)
	}
	r.notifyUpsert(KindGuild, g.ID.String(), g.Clone())
	return &Diff[model.Guild]{Old: old, New: g}, nil
}

// UpdateMessage applies the payload to the cached message and returns the
// (old, new) snapshot pair, or nil if the message is no longer cached.
func (r *MemoryRegistry) UpdateMessage(p Payload) (*Diff[model.Message], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("message update: %w", ErrMissingID)
	}
	m, ok := r.store.message(id)
	if !ok {
		return nil, nil
	}
	old := m.Clone()
	if err := decodePayload(p, m); err != nil {
		*m = *old
		return nil, fmt.Errorf("message update %s: %w", id, err)
	}
	r.notifyUpsert(KindMessage, m.ID.String(), m.Clone())
	return &Diff[model.Message]{Old: old, New: m}, nil
}

// UpdateRole applies the payload to the cached role and returns the
// (old, new) snapshot pair. A missing guild or role yields nil.
func (r *MemoryRegistry) UpdateRole(guildID snowflake.ID, p Payload) (*Diff[model.Role], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("role update: %w", ErrMissingID)
	}
	g, ok := r.store.guild(guildID)
	if !ok {
		return nil, nil
	}
	role, ok := g.Roles[id]
	if !ok {
		return nil, nil
	}
	old := role.Clone()
	if err := decodePayload(p, role); err != nil {
		*role = *old
		return nil, fmt.Errorf("role update %s: %w", id, err)
	}
	r.notifyUpsert(KindRole, role.ID.String(), role.Clone())
	return &Diff[model.Role]{Old: old, New: role}, nil
}

// UpdateMember applies the payload and the resolved role set to the cached
// member and returns the (old, new) snapshot pair, or nil if the member is
// not cached. Roles from other guilds are ignored.
func (r *MemoryRegistry) UpdateMember(member *model.Member, roles []*model.Role, p Payload) (*Diff[model.Member], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.lookupMember(member.GuildID, member.UserID)
	if !ok {
		return nil, nil
	}
	old := live.Clone()
	if err := decodePayload(p, live); err != nil {
		*live = *old
		return nil, fmt.Errorf("member update %s/%s: %w", member.GuildID, member.UserID, err)
	}
	r.setRolesForMember(roles, live)
	r.notifyUpsert(KindMember, memberKey(live.GuildID, live.UserID), live.Clone())
	return &Diff[model.Member]{Old: old, New: live}, nil
}

// UpdateMemberPresence replaces the member's presence and returns the member
// together with the before/after presence snapshots, or nil if the member is
// not cached.
func (r *MemoryRegistry) UpdateMemberPresence(member *model.Member, p Payload) (*PresenceChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.lookupMember(member.GuildID, member.UserID)
	if !ok {
		return nil, nil
	}
	old := live.Presence.Clone()
	pr, err := r.parsePresence(live, p)
	if err != nil {
		return nil, err
	}
	r.notifyUpsert(KindMember, memberKey(live.GuildID, live.UserID), live.Clone())
	return &PresenceChange{Member: live, Old: old, New: pr}, nil
}

// UpdateGuildEmojis replaces the guild's emoji set with the supplied list.
// It returns the emojis removed from and added to the guild; an emoji
// present both before and after counts as unchanged and appears in neither
// set.
func (r *MemoryRegistry) UpdateGuildEmojis(payloads []Payload, guild *model.Guild) (removed, added []*model.Emoji, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := make(map[snowflake.ID]*model.Emoji, len(guild.Emojis))
	for id, e := range guild.Emojis {
		before[id] = e
	}

	seen := make(map[snowflake.ID]bool, len(payloads))
	for _, p := range payloads {
		id, ok := payloadID(p, "id")
		if !ok {
			continue // guild emoji lists never carry unicode entries
		}
		seen[id] = true
		_, existed := before[id]
		e, perr := r.parseEmoji(p, guild)
		if perr != nil {
			return nil, nil, perr
		}
		if !existed {
			added = append(added, e)
		}
	}
	for id, e := range before {
		if !seen[id] {
			delete(guild.Emojis, id)
			r.store.removeEmoji(id)
			r.notifyDelete(KindEmoji, id.String())
			removed = append(removed, e)
		}
	}
	return removed, added, nil
}

// SetGuildUnavailability flips the guild's availability flag.
func (r *MemoryRegistry) SetGuildUnavailability(guild *model.Guild, unavailable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	guild.Unavailable = unavailable
	r.notifyUpsert(KindGuild, guild.ID.String(), guild.Clone())
}

// SetLastPinnedTimestamp records the channel's last pinned-message time.
// A nil timestamp means the last pin was removed.
func (r *MemoryRegistry) SetLastPinnedTimestamp(channel *model.Channel, ts *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ts == nil {
		channel.LastPinTimestamp = nil
	} else {
		t := *ts
		channel.LastPinTimestamp = &t
	}
	r.notifyUpsert(KindChannel, channel.ID.String(), channel.Clone())
}

// SetRolesForMember replaces the member's role set with the given roles.
// Roles belonging to a different guild are dropped.
func (r *MemoryRegistry) SetRolesForMember(roles []*model.Role, member *model.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setRolesForMember(roles, member)
	r.notifyUpsert(KindMember, memberKey(member.GuildID, member.UserID), member.Clone())
}

func (r *MemoryRegistry) setRolesForMember(roles []*model.Role, member *model.Member) {
	member.RoleIDs = member.RoleIDs[:0]
	for _, role := range roles {
		if role.GuildID == member.GuildID {
			member.RoleIDs = append(member.RoleIDs, role.ID)
		}
	}
}
