package state

import (
	"fmt"
	"reflect"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/Gopher0727/ChatState/internal/model"
)

// snowflakeIDType is cached for the decode hook below.
var snowflakeIDType = reflect.TypeOf(snowflake.ID(0))

// snowflakeHook converts wire-format IDs (strings or numbers) into
// snowflake.ID values during payload decoding.
func snowflakeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != snowflakeIDType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return snowflake.Parse(v)
	case float64:
		return snowflake.ID(uint64(v)), nil
	case int:
		return snowflake.ID(uint64(v)), nil
	case int64:
		return snowflake.ID(uint64(v)), nil
	case uint64:
		return snowflake.ID(v), nil
	default:
		return data, nil
	}
}

// decodePayload applies the attribute map onto out. Keys absent from the
// payload leave the corresponding fields untouched, which is what gives
// update operations their partial-merge semantics.
func decodePayload(p Payload, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			snowflakeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build payload decoder: %w", err)
	}
	if err := dec.Decode(p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// coerceID converts a single wire-format ID value. The second return is
// false when the value is nil or unparseable.
func coerceID(v any) (snowflake.ID, bool) {
	switch id := v.(type) {
	case string:
		parsed, err := snowflake.Parse(id)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case snowflake.ID:
		return id, true
	case float64:
		return snowflake.ID(uint64(id)), true
	case int:
		return snowflake.ID(uint64(id)), true
	case int64:
		return snowflake.ID(uint64(id)), true
	case uint64:
		return snowflake.ID(id), true
	default:
		return 0, false
	}
}

// payloadID extracts an ID-valued attribute. The second return is false when
// the key is absent, null or unparseable.
func payloadID(p Payload, key string) (snowflake.ID, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	return coerceID(v)
}

// payloadChild extracts a nested attribute map.
func payloadChild(p Payload, key string) (Payload, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	child, ok := v.(map[string]any)
	return child, ok
}

// payloadChildren extracts a list of nested attribute maps. Entries that are
// not maps are skipped.
func payloadChildren(p Payload, key string) []Payload {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	children := make([]Payload, 0, len(raw))
	for _, item := range raw {
		if child, ok := item.(map[string]any); ok {
			children = append(children, child)
		}
	}
	return children
}

// payloadIDs extracts a list of ID-valued attributes.
func payloadIDs(p Payload, key string) []snowflake.ID {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(raw))
	for _, item := range raw {
		if id, ok := coerceID(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseGuild builds or refreshes a guild from a payload, including any
// nested roles, channels, members, emojis and presences it carries.
func (r *MemoryRegistry) ParseGuild(p Payload) (*model.Guild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseGuild(p)
}

func (r *MemoryRegistry) parseGuild(p Payload) (*model.Guild, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("guild: %w", ErrMissingID)
	}
	g, cached := r.store.guild(id)
	if !cached {
		g = model.NewGuild(id)
	}
	if err := decodePayload(p, g); err != nil {
		return nil, fmt.Errorf("guild %s: %w", id, err)
	}
	r.store.putGuild(g)

	for _, roleP := range payloadChildren(p, "roles") {
		if _, err := r.parseRole(roleP, g); err != nil {
			return nil, err
		}
	}
	for _, chP := range payloadChildren(p, "channels") {
		if _, err := r.parseChannel(chP, g); err != nil {
			return nil, err
		}
	}
	for _, memberP := range payloadChildren(p, "members") {
		if _, err := r.parseMember(memberP, g); err != nil {
			return nil, err
		}
	}
	for _, emojiP := range payloadChildren(p, "emojis") {
		if _, err := r.parseEmoji(emojiP, g); err != nil {
			return nil, err
		}
	}
	for _, presP := range payloadChildren(p, "presences") {
		userP, ok := payloadChild(presP, "user")
		if !ok {
			continue
		}
		userID, ok := payloadID(userP, "id")
		if !ok {
			continue
		}
		member, ok := g.Members[userID]
		if !ok {
			// Presence for a member we never saw; nothing to attach it to.
			r.log.Debug("skipping presence for unknown member",
				zap.Stringer("guild_id", g.ID),
				zap.Stringer("user_id", userID))
			continue
		}
		if _, err := r.parsePresence(member, presP); err != nil {
			return nil, err
		}
	}

	r.notifyUpsert(KindGuild, g.ID.String(), g.Clone())
	return g, nil
}

// ParseChannel builds or refreshes a channel. guild is the owning guild, or
// nil for a DM channel.
func (r *MemoryRegistry) ParseChannel(p Payload, guild *model.Guild) (*model.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseChannel(p, guild)
}

func (r *MemoryRegistry) parseChannel(p Payload, guild *model.Guild) (*model.Channel, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("channel: %w", ErrMissingID)
	}
	ch, cached := r.store.channel(id)
	if !cached {
		ch = &model.Channel{ID: id}
	}
	if err := decodePayload(p, ch); err != nil {
		return nil, fmt.Errorf("channel %s: %w", id, err)
	}
	if guild != nil {
		ch.GuildID = guild.ID
		guild.Channels[ch.ID] = ch
	}
	r.store.putChannel(ch)
	r.notifyUpsert(KindChannel, ch.ID.String(), ch.Clone())
	return ch, nil
}

// ParseEmoji builds or refreshes an emoji. A payload without an id describes
// a unicode emoji and is keyed by a synthetic ID derived from its name.
func (r *MemoryRegistry) ParseEmoji(p Payload, guild *model.Guild) (*model.Emoji, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseEmoji(p, guild)
}

func (r *MemoryRegistry) parseEmoji(p Payload, guild *model.Guild) (*model.Emoji, error) {
	id, hasID := payloadID(p, "id")
	if !hasID {
		name, ok := p["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("emoji: %w", ErrMissingID)
		}
		id = model.SyntheticEmojiID(name)
	}
	e, cached := r.store.emoji(id)
	if !cached {
		e = &model.Emoji{ID: id}
	}
	if err := decodePayload(p, e); err != nil {
		return nil, fmt.Errorf("emoji %s: %w", id, err)
	}
	if guild != nil && hasID {
		e.GuildID = guild.ID
		guild.Emojis[e.ID] = e
	}
	r.store.putEmoji(e)
	r.notifyUpsert(KindEmoji, e.ID.String(), e.Clone())
	return e, nil
}

// ParseUser builds or refreshes a user. When the payload describes the
// account the cache is maintained for, parsing routes through the self-user
// path and refreshes the identity slot instead of creating a second generic
// record.
func (r *MemoryRegistry) ParseUser(p Payload) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseUser(p)
}

func (r *MemoryRegistry) parseUser(p Payload) (*model.User, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("user: %w", ErrMissingID)
	}
	if r.identity.is(id) {
		me, err := r.parseSelfUser(p)
		if err != nil {
			return nil, err
		}
		return &me.User, nil
	}
	u, cached := r.store.user(id)
	if !cached {
		u = &model.User{ID: id}
	}
	if err := decodePayload(p, u); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	r.store.putUser(u)
	r.notifyUpsert(KindUser, u.ID.String(), u.Clone())
	return u, nil
}

// ParseSelfUser builds the self user and installs it into the identity
// slot. The handshake event is the only normal caller; subsequent calls
// refresh the slot in place.
func (r *MemoryRegistry) ParseSelfUser(p Payload) (*model.SelfUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseSelfUser(p)
}

func (r *MemoryRegistry) parseSelfUser(p Payload) (*model.SelfUser, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("self user: %w", ErrMissingID)
	}
	me := r.identity.get()
	if me == nil || me.ID != id {
		me = &model.SelfUser{User: model.User{ID: id}}
	}
	if err := decodePayload(p, me); err != nil {
		return nil, fmt.Errorf("self user %s: %w", id, err)
	}
	r.identity.set(me)
	r.notifyUpsert(KindUser, me.ID.String(), me.Clone())
	return me, nil
}

// ParseMember builds or refreshes a member of the given guild. The payload
// must carry a nested user object. Role references that do not resolve
// against the guild's role table are dropped.
func (r *MemoryRegistry) ParseMember(p Payload, guild *model.Guild) (*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseMember(p, guild)
}

func (r *MemoryRegistry) parseMember(p Payload, guild *model.Guild) (*model.Member, error) {
	userP, ok := payloadChild(p, "user")
	if !ok {
		return nil, fmt.Errorf("member: %w", ErrMissingUser)
	}
	u, err := r.parseUser(userP)
	if err != nil {
		return nil, err
	}
	m, cached := guild.Members[u.ID]
	if !cached {
		m = &model.Member{GuildID: guild.ID, UserID: u.ID}
	}
	m.User = u
	if err := decodePayload(p, m); err != nil {
		return nil, fmt.Errorf("member %s/%s: %w", guild.ID, u.ID, err)
	}
	if _, ok := p["roles"]; ok {
		roleIDs := payloadIDs(p, "roles")
		m.RoleIDs = m.RoleIDs[:0]
		for _, roleID := range roleIDs {
			if _, ok := guild.Roles[roleID]; ok {
				m.RoleIDs = append(m.RoleIDs, roleID)
			} else {
				r.log.Debug("dropping unresolvable role reference",
					zap.Stringer("guild_id", guild.ID),
					zap.Stringer("role_id", roleID))
			}
		}
	}
	guild.Members[u.ID] = m
	r.notifyUpsert(KindMember, memberKey(guild.ID, u.ID), m.Clone())
	return m, nil
}

// ParsePartialMember merges a partial member payload with its supplementary
// user payload and parses the combined result. Message events deliver
// members in this shape.
func (r *MemoryRegistry) ParsePartialMember(memberP, userP Payload, guild *model.Guild) (*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parsePartialMember(memberP, userP, guild)
}

func (r *MemoryRegistry) parsePartialMember(memberP, userP Payload, guild *model.Guild) (*model.Member, error) {
	merged := make(Payload, len(memberP)+1)
	for k, v := range memberP {
		merged[k] = v
	}
	merged["user"] = map[string]any(userP)
	return r.parseMember(merged, guild)
}

// ParseMessage builds or refreshes a message. The message is constructed
// even when its channel is not cached; only the channel-side activity
// bookkeeping is skipped in that degraded mode.
func (r *MemoryRegistry) ParseMessage(p Payload) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseMessage(p)
}

func (r *MemoryRegistry) parseMessage(p Payload) (*model.Message, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("message: %w", ErrMissingID)
	}
	m, cached := r.store.message(id)
	if !cached {
		m = &model.Message{ID: id}
	}
	if err := decodePayload(p, m); err != nil {
		return nil, fmt.Errorf("message %s: %w", id, err)
	}
	if chID, ok := payloadID(p, "channel_id"); ok {
		m.ChannelID = chID
	}
	if gID, ok := payloadID(p, "guild_id"); ok {
		m.GuildID = gID
	}

	ch, chOK := r.store.channel(m.ChannelID)
	if chOK && m.GuildID == 0 {
		m.GuildID = ch.GuildID
	}

	if authorP, ok := payloadChild(p, "author"); ok {
		author, err := r.parseUser(authorP)
		if err != nil {
			return nil, err
		}
		m.AuthorID = author.ID
		if memberP, ok := payloadChild(p, "member"); ok {
			if g, ok := r.store.guild(m.GuildID); ok {
				if _, err := r.parsePartialMember(memberP, authorP, g); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, reactionP := range payloadChildren(p, "reactions") {
		emojiP, ok := payloadChild(reactionP, "emoji")
		if !ok {
			continue
		}
		emoji, err := r.parseEmoji(emojiP, nil)
		if err != nil {
			return nil, err
		}
		reaction := m.ReactionByEmoji(emoji.ID)
		if reaction == nil {
			reaction = &model.Reaction{MessageID: m.ID, Emoji: emoji}
			m.Reactions = append(m.Reactions, reaction)
		}
		if err := decodePayload(reactionP, reaction); err != nil {
			return nil, fmt.Errorf("reaction on %s: %w", m.ID, err)
		}
	}

	if chOK {
		ch.LastMessageID = m.ID
	} else {
		// Deliberate degraded mode: the message is still cached and
		// returned, only the channel bookkeeping is skipped.
		r.log.Debug("message channel not cached, skipping activity bookkeeping",
			zap.Stringer("message_id", m.ID),
			zap.Stringer("channel_id", m.ChannelID))
	}

	if evicted := r.store.putMessage(m); evicted != 0 {
		r.notifyDelete(KindMessage, evicted.String())
	}
	r.notifyUpsert(KindMessage, m.ID.String(), m.Clone())
	return m, nil
}

// ParsePresence decodes a presence payload onto the given member, replacing
// its previous presence.
func (r *MemoryRegistry) ParsePresence(member *model.Member, p Payload) (*model.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parsePresence(member, p)
}

func (r *MemoryRegistry) parsePresence(member *model.Member, p Payload) (*model.Presence, error) {
	pr := &model.Presence{}
	if err := decodePayload(p, pr); err != nil {
		return nil, fmt.Errorf("presence for %s/%s: %w", member.GuildID, member.UserID, err)
	}
	member.Presence = pr
	return pr, nil
}

// ParseReaction builds a reaction from a payload and attaches it to its
// message. When the message's channel cannot be resolved the reaction is
// untrackable and nil is returned instead.
func (r *MemoryRegistry) ParseReaction(p Payload) (*model.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseReaction(p)
}

func (r *MemoryRegistry) parseReaction(p Payload) (*model.Reaction, error) {
	msgID, ok := payloadID(p, "message_id")
	if !ok {
		return nil, fmt.Errorf("reaction: %w", ErrMissingID)
	}
	chID, ok := payloadID(p, "channel_id")
	if !ok {
		return nil, fmt.Errorf("reaction: %w", ErrMissingID)
	}
	if _, ok := r.store.channel(chID); !ok {
		// Untrackable: we cannot resolve the container this reaction
		// ultimately belongs to.
		r.log.Debug("reaction channel not cached, refusing to track",
			zap.Stringer("message_id", msgID),
			zap.Stringer("channel_id", chID))
		return nil, nil
	}
	emojiP, ok := payloadChild(p, "emoji")
	if !ok {
		return nil, fmt.Errorf("reaction on %s: %w", msgID, ErrMissingID)
	}
	emoji, err := r.parseEmoji(emojiP, nil)
	if err != nil {
		return nil, err
	}

	reaction := &model.Reaction{MessageID: msgID, Emoji: emoji, Count: 1}
	if err := decodePayload(p, reaction); err != nil {
		return nil, fmt.Errorf("reaction on %s: %w", msgID, err)
	}
	if m, ok := r.store.message(msgID); ok {
		if existing := m.ReactionByEmoji(emoji.ID); existing != nil {
			// Only fields the payload actually carries may overwrite the
			// tracked state; most reaction events omit the running count.
			if _, ok := p["count"]; ok {
				existing.Count = reaction.Count
			}
			if _, ok := p["me"]; ok {
				existing.Me = reaction.Me
			}
			reaction = existing
		} else {
			m.Reactions = append(m.Reactions, reaction)
		}
		r.notifyUpsert(KindMessage, m.ID.String(), m.Clone())
	}
	return reaction, nil
}

// ParseRole builds or refreshes a role within the given guild.
func (r *MemoryRegistry) ParseRole(p Payload, guild *model.Guild) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parseRole(p, guild)
}

func (r *MemoryRegistry) parseRole(p Payload, guild *model.Guild) (*model.Role, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("role: %w", ErrMissingID)
	}
	role, cached := guild.Roles[id]
	if !cached {
		role = &model.Role{ID: id, GuildID: guild.ID}
	}
	if err := decodePayload(p, role); err != nil {
		return nil, fmt.Errorf("role %s: %w", id, err)
	}
	guild.Roles[id] = role
	r.notifyUpsert(KindRole, role.ID.String(), role.Clone())
	return role, nil
}

// ParseWebhook builds or refreshes a webhook.
func (r *MemoryRegistry) ParseWebhook(p Payload) (*model.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("webhook: %w", ErrMissingID)
	}
	w, cached := r.store.webhook(id)
	if !cached {
		w = &model.Webhook{ID: id}
	}
	if err := decodePayload(p, w); err != nil {
		return nil, fmt.Errorf("webhook %s: %w", id, err)
	}
	if gID, ok := payloadID(p, "guild_id"); ok {
		w.GuildID = gID
	}
	if chID, ok := payloadID(p, "channel_id"); ok {
		w.ChannelID = chID
	}
	r.store.putWebhook(w)
	r.notifyUpsert(KindWebhook, w.ID.String(), w.Clone())
	return w, nil
}

// ParseVoiceState builds or refreshes a voice state within the given guild.
func (r *MemoryRegistry) ParseVoiceState(guild *model.Guild, p Payload) (*model.VoiceState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := payloadID(p, "user_id")
	if !ok {
		return nil, fmt.Errorf("voice state: %w", ErrMissingID)
	}
	v, cached := r.store.voiceState(guild.ID, userID)
	if !cached {
		v = &model.VoiceState{GuildID: guild.ID, UserID: userID}
	}
	if err := decodePayload(p, v); err != nil {
		return nil, fmt.Errorf("voice state %s/%s: %w", guild.ID, userID, err)
	}
	if chID, ok := payloadID(p, "channel_id"); ok {
		v.ChannelID = chID
	}
	r.store.putVoiceState(v)
	r.notifyUpsert(KindVoiceState, memberKey(guild.ID, userID), v.Clone())
	return v, nil
}
