package ingest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gopher0727/ChatState/internal/model"
	"github.com/Gopher0727/ChatState/internal/state"
)

// Delta is the sole signal the dispatch collaborator receives about what an
// applied event changed. A nil *Delta means "suppress, nothing to report",
// never an error.
type Delta struct {
	Event   string
	Entity  any // the entity a create/delete style event affected
	Old     any // pre-mutation snapshot for update style events
	New     any // post-mutation state for update style events
	Removed any // set-valued removals (guild emoji updates)
	Added   any // set-valued additions (guild emoji updates)
}

// Dispatcher routes already-deserialized gateway events into the state
// registry. It owns no transport: callers hand it (kind, payload) pairs in
// arrival order.
type Dispatcher struct {
	reg    state.Registry
	filter *Filter
	log    *zap.Logger
}

// NewDispatcher builds a dispatcher applying events that pass the filter.
// A nil filter admits everything.
func NewDispatcher(reg state.Registry, filter *Filter, log *zap.Logger) *Dispatcher {
	if filter == nil {
		filter = AllowAll()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{reg: reg, filter: filter, log: log}
}

// Apply applies one event to the registry and reports what changed.
// Filtered-out and unknown kinds are suppressed without touching the
// registry.
func (d *Dispatcher) Apply(kind string, p state.Payload) (*Delta, error) {
	if !d.filter.Allows(kind) {
		if _, known := eventOrdinals[kind]; !known {
			d.log.Debug("unknown event kind", zap.String("kind", kind))
		}
		return nil, nil
	}

	switch kind {
	case EventReady:
		return d.applyReady(p)
	case EventUserUpdate:
		me, err := d.reg.ParseSelfUser(p)
		if err != nil {
			return nil, err
		}
		return &Delta{Event: kind, Entity: me}, nil
	case EventGuildCreate:
		g, err := d.reg.ParseGuild(p)
		if err != nil {
			return nil, err
		}
		return &Delta{Event: kind, Entity: g}, nil
	case EventGuildUpdate:
		diff, err := d.reg.UpdateGuild(p)
		if err != nil || diff == nil {
			return nil, err
		}
		return &Delta{Event: kind, Old: diff.Old, New: diff.New}, nil
	case EventGuildDelete:
		return d.applyGuildDelete(p)
	case EventGuildEmojisUpdate:
		return d.applyGuildEmojisUpdate(p)
	case EventChannelCreate:
		return d.applyChannelCreate(p)
	case EventChannelUpdate:
		diff, err := d.reg.UpdateChannel(p)
		if err != nil || diff == nil {
			return nil, err
		}
		return &Delta{Event: kind, Old: diff.Old, New: diff.New}, nil
	case EventChannelDelete:
		return d.applyChannelDelete(p)
	case EventChannelPinsUpdate:
		return d.applyChannelPinsUpdate(p)
	case EventGuildMemberAdd:
		return d.applyMemberAdd(p)
	case EventGuildMemberUpdate:
		return d.applyMemberUpdate(p)
	case EventGuildMemberRemove:
		return d.applyMemberRemove(p)
	case EventGuildRoleCreate:
		return d.applyRoleCreate(p)
	case EventGuildRoleUpdate:
		return d.applyRoleUpdate(p)
	case EventGuildRoleDelete:
		return d.applyRoleDelete(p)
	case EventMessageCreate:
		m, err := d.reg.ParseMessage(p)
		if err != nil {
			return nil, err
		}
		return &Delta{Event: kind, Entity: m}, nil
	case EventMessageUpdate:
		diff, err := d.reg.UpdateMessage(p)
		if err != nil || diff == nil {
			return nil, err
		}
		return &Delta{Event: kind, Old: diff.Old, New: diff.New}, nil
	case EventMessageDelete:
		return d.applyMessageDelete(p)
	case EventMessageReactionAdd:
		return d.applyReactionAdd(p)
	case EventMessageReactionRemove:
		return d.applyReactionRemove(p)
	case EventMessageReactionRemoveAll:
		return d.applyReactionRemoveAll(p)
	case EventPresenceUpdate:
		return d.applyPresenceUpdate(p)
	case EventVoiceStateUpdate:
		return d.applyVoiceStateUpdate(p)
	case EventWebhookUpdate:
		w, err := d.reg.ParseWebhook(p)
		if err != nil {
			return nil, err
		}
		return &Delta{Event: kind, Entity: w}, nil
	}
	return nil, nil
}

func (d *Dispatcher) applyReady(p state.Payload) (*Delta, error) {
	userP, ok := childPayload(p, "user")
	if !ok {
		return nil, fmt.Errorf("ready event: %w", state.ErrMissingUser)
	}
	me, err := d.reg.ParseSelfUser(userP)
	if err != nil {
		return nil, err
	}
	for _, guildP := range childPayloads(p, "guilds") {
		if _, err := d.reg.ParseGuild(guildP); err != nil {
			return nil, err
		}
	}
	return &Delta{Event: EventReady, Entity: me}, nil
}

func (d *Dispatcher) applyGuildDelete(p state.Payload) (*Delta, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("guild delete: %w", state.ErrMissingID)
	}
	g, cached := d.reg.Guild(id)
	if !cached {
		return nil, nil
	}
	if unavailable, _ := p["unavailable"].(bool); unavailable {
		// The guild went away due to an outage, not removal; keep it cached
		// but flagged.
		d.reg.SetGuildUnavailability(g, true)
		return &Delta{Event: EventGuildDelete, Entity: g}, nil
	}
	d.reg.DeleteGuild(g)
	return &Delta{Event: EventGuildDelete, Entity: g}, nil
}

func (d *Dispatcher) applyGuildEmojisUpdate(p state.Payload) (*Delta, error) {
	guildID, ok := payloadID(p, "guild_id")
	if !ok {
		return nil, fmt.Errorf("guild emojis update: %w", state.ErrMissingID)
	}
	g, cached := d.reg.Guild(guildID)
	if !cached {
		return nil, nil
	}
	removed, added, err := d.reg.UpdateGuildEmojis(childPayloads(p, "emojis"), g)
	if err != nil {
		return nil, err
	}
	return &Delta{Event: EventGuildEmojisUpdate, Entity: g, Removed: removed, Added: added}, nil
}

func (d *Dispatcher) applyChannelCreate(p state.Payload) (*Delta, error) {
	guild := d.resolveGuild(p)
	ch, err := d.reg.ParseChannel(p, guild)
	if err != nil {
		return nil, err
	}
	return &Delta{Event: EventChannelCreate, Entity: ch}, nil
}

func (d *Dispatcher) applyChannelDelete(p state.Payload) (*Delta, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("channel delete: %w", state.ErrMissingID)
	}
	ch, cached := d.reg.Channel(id)
	if !cached {
		return nil, nil
	}
	d.reg.DeleteChannel(ch)
	return &Delta{Event: EventChannelDelete, Entity: ch}, nil
}

func (d *Dispatcher) applyChannelPinsUpdate(p state.Payload) (*Delta, error) {
	chID, ok := payloadID(p, "channel_id")
	if !ok {
		return nil, fmt.Errorf("channel pins update: %w", state.ErrMissingID)
	}
	ch, cached := d.reg.Channel(chID)
	if !cached {
		return nil, nil
	}
	var ts *time.Time
	if raw, ok := p["last_pin_timestamp"].(string); ok && raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("channel pins update %s: %w", chID, err)
		}
		ts = &parsed
	}
	d.reg.SetLastPinnedTimestamp(ch, ts)
	return &Delta{Event: EventChannelPinsUpdate, Entity: ch}, nil
}

func (d *Dispatcher) applyMemberAdd(p state.Payload) (*Delta, error) {
	guild := d.resolveGuild(p)
	if guild == nil {
		return nil, nil
	}
	m, err := d.reg.ParseMember(p, guild)
	if err != nil {
		return nil, err
	}
	return &Delta{Event: EventGuildMemberAdd, Entity: m}, nil
}

func (d *Dispatcher) applyMemberUpdate(p state.Payload) (*Delta, error) {
	guild := d.resolveGuild(p)
	if guild == nil {
		return nil, nil
	}
	userP, ok := childPayload(p, "user")
	if !ok {
		return nil, fmt.Errorf("member update: %w", state.ErrMissingUser)
	}
	userID, ok := payloadID(userP, "id")
	if !ok {
		return nil, fmt.Errorf("member update: %w", state.ErrMissingID)
	}
	member, cached := d.reg.Member(guild.ID, userID)
	if !cached {
		return nil, nil
	}
	roles := d.resolveRoles(guild.ID, payloadIDList(p, "roles"))
	diff, err := d.reg.UpdateMember(member, roles, p)
	if err != nil || diff == nil {
		return nil, err
	}
	return &Delta{Event: EventGuildMemberUpdate, Old: diff.Old, New: diff.New}, nil
}

func (d *Dispatcher) applyMemberRemove(p state.Payload) (*Delta, error) {
	guild := d.resolveGuild(p)
	if guild == nil {
		return nil, nil
	}
	userP, ok := childPayload(p, "user")
	if !ok {
		return nil, fmt.Errorf("member remove: %w", state.ErrMissingUser)
	}
	userID, ok := payloadID(userP, "id")
	if !ok {
		return nil, fmt.Errorf("member remove: %w", state.ErrMissingID)
	}
	member, cached := d.reg.Member(guild.ID, userID)
	if !cached {
		return nil, nil
	}
	d.reg.DeleteMember(member)
	return &Delta{Event: EventGuildMemberRemove, Entity: member}, nil
}

func (d *Dispatcher) applyRoleCreate(p state.Payload) (*Delta, error) {
	guild := d.resolveGuild(p)
	if guild == nil {
		return nil, nil
	}
	roleP, ok := childPayload(p, "role")
	if !ok {
		return nil, fmt.Errorf("role create: %w", state.ErrMissingID)
	}
	role, err := d.reg.ParseRole(roleP, guild)
	if err != nil {
		return nil, err
	}
	return &Delta{Event: EventGuildRoleCreate, Entity: role}, nil
}

func (d *Dispatcher) applyRoleUpdate(p state.Payload) (*Delta, error) {
	guildID, ok := payloadID(p, "guild_id")
	if !ok {
		return nil, fmt.Errorf("role update: %w", state.ErrMissingID)
	}
	roleP, ok := childPayload(p, "role")
	if !ok {
		return nil, fmt.Errorf("role update: %w", state.ErrMissingID)
	}
	diff, err := d.reg.UpdateRole(guildID, roleP)
	if err != nil || diff == nil {
		return nil, err
	}
	return &Delta{Event: EventGuildRoleUpdate, Old: diff.Old, New: diff.New}, nil
}

func (d *Dispatcher) applyRoleDelete(p state.Payload) (*Delta, error) {
	guildID, ok := payloadID(p, "guild_id")
	if !ok {
		return nil, fmt.Errorf("role delete: %w", state.ErrMissingID)
	}
	roleID, ok := payloadID(p, "role_id")
	if !ok {
		return nil, fmt.Errorf("role delete: %w", state.ErrMissingID)
	}
	role, cached := d.reg.Role(guildID, roleID)
	if !cached {
		return nil, nil
	}
	d.reg.DeleteRole(role)
	return &Delta{Event: EventGuildRoleDelete, Entity: role}, nil
}

func (d *Dispatcher) applyMessageDelete(p state.Payload) (*Delta, error) {
	id, ok := payloadID(p, "id")
	if !ok {
		return nil, fmt.Errorf("message delete: %w", state.ErrMissingID)
	}
	m, cached := d.reg.Message(id)
	if !cached {
		return nil, nil
	}
	d.reg.DeleteMessage(m)
	return &Delta{Event: EventMessageDelete, Entity: m}, nil
}

func (d *Dispatcher) applyReactionAdd(p state.Payload) (*Delta, error) {
	chID, ok := payloadID(p, "channel_id")
	if !ok {
		return nil, fmt.Errorf("reaction add: %w", state.ErrMissingID)
	}
	if _, cached := d.reg.Channel(chID); !cached {
		// Untrackable; the channel the message lives in is not cached.
		return nil, nil
	}
	msgID, ok := payloadID(p, "message_id")
	if !ok {
		return nil, fmt.Errorf("reaction add: %w", state.ErrMissingID)
	}
	msg, cached := d.reg.Message(msgID)
	if !cached {
		return nil, nil
	}
	emojiP, ok := childPayload(p, "emoji")
	if !ok {
		return nil, fmt.Errorf("reaction add: %w", state.ErrMissingID)
	}
	emoji, err := d.reg.ParseEmoji(emojiP, nil)
	if err != nil {
		return nil, err
	}
	updated := d.reg.IncrementReactionCount(msg, emoji)
	return &Delta{Event: EventMessageReactionAdd, Entity: updated}, nil
}

func (d *Dispatcher) applyReactionRemove(p state.Payload) (*Delta, error) {
	msgID, ok := payloadID(p, "message_id")
	if !ok {
		return nil, fmt.Errorf("reaction remove: %w", state.ErrMissingID)
	}
	msg, cached := d.reg.Message(msgID)
	if !cached {
		return nil, nil
	}
	emojiP, ok := childPayload(p, "emoji")
	if !ok {
		return nil, fmt.Errorf("reaction remove: %w", state.ErrMissingID)
	}
	emoji, err := d.reg.ParseEmoji(emojiP, nil)
	if err != nil {
		return nil, err
	}
	var user *model.User
	if userID, ok := payloadID(p, "user_id"); ok {
		if u, cached := d.reg.User(userID); cached {
			user = u
		}
	}
	remaining := d.reg.DeleteReaction(msg, user, emoji)
	return &Delta{Event: EventMessageReactionRemove, Entity: emoji, New: remaining}, nil
}

func (d *Dispatcher) applyReactionRemoveAll(p state.Payload) (*Delta, error) {
	msgID, ok := payloadID(p, "message_id")
	if !ok {
		return nil, fmt.Errorf("reaction remove all: %w", state.ErrMissingID)
	}
	msg, cached := d.reg.Message(msgID)
	if !cached {
		return nil, nil
	}
	d.reg.DeleteAllReactions(msg)
	return &Delta{Event: EventMessageReactionRemoveAll, Entity: msg}, nil
}

func (d *Dispatcher) applyPresenceUpdate(p state.Payload) (*Delta, error) {
	guild := d.resolveGuild(p)
	if guild == nil {
		return nil, nil
	}
	userP, ok := childPayload(p, "user")
	if !ok {
		return nil, fmt.Errorf("presence update: %w", state.ErrMissingUser)
	}
	userID, ok := payloadID(userP, "id")
	if !ok {
		return nil, fmt.Errorf("presence update: %w", state.ErrMissingID)
	}
	member, cached := d.reg.Member(guild.ID, userID)
	if !cached {
		return nil, nil
	}
	change, err := d.reg.UpdateMemberPresence(member, p)
	if err != nil || change == nil {
		return nil, err
	}
	return &Delta{Event: EventPresenceUpdate, Entity: change.Member, Old: change.Old, New: change.New}, nil
}

func (d *Dispatcher) applyVoiceStateUpdate(p state.Payload) (*Delta, error) {
	guild := d.resolveGuild(p)
	if guild == nil {
		return nil, nil
	}
	v, err := d.reg.ParseVoiceState(guild, p)
	if err != nil {
		return nil, err
	}
	return &Delta{Event: EventVoiceStateUpdate, Entity: v}, nil
}
