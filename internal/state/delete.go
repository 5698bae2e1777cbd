package state

import (
	"go.uber.org/zap"

	"github.com/Gopher0727/ChatState/internal/model"
)

// DeleteChannel removes the channel from the store and from its owning
// guild's channel table.
func (r *MemoryRegistry) DeleteChannel(ch *model.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.removeChannel(ch.ID)
	if g, ok := r.store.guild(ch.GuildID); ok {
		delete(g.Channels, ch.ID)
	}
	r.notifyDelete(KindChannel, ch.ID.String())
}

// DeleteGuild removes the guild and everything it contains: channels,
// members, roles, emojis, voice states and the guild's cached messages.
// None of them are independently observable once the guild is gone, so the
// order does not matter; all of them must leave the store.
func (r *MemoryRegistry) DeleteGuild(g *model.Guild) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.store.guild(g.ID)
	if !ok {
		return
	}

	for id := range live.Channels {
		r.store.removeChannel(id)
		r.notifyDelete(KindChannel, id.String())
	}
	for id := range live.Emojis {
		r.store.removeEmoji(id)
		r.notifyDelete(KindEmoji, id.String())
	}
	for userID := range live.Members {
		r.notifyDelete(KindMember, memberKey(live.ID, userID))
	}
	for id := range live.Roles {
		r.notifyDelete(KindRole, id.String())
	}
	for key := range r.store.voiceStates {
		if key.guildID == live.ID {
			delete(r.store.voiceStates, key)
			r.notifyDelete(KindVoiceState, memberKey(key.guildID, key.userID))
		}
	}
	for id, m := range r.store.messages {
		if m.GuildID == live.ID {
			r.store.removeMessage(id)
			r.notifyDelete(KindMessage, id.String())
		}
	}
	clear(live.Channels)
	clear(live.Members)
	clear(live.Roles)
	clear(live.Emojis)

	r.store.removeGuild(live.ID)
	r.notifyDelete(KindGuild, live.ID.String())
	r.log.Debug("guild deleted with cascade", zap.Stringer("guild_id", live.ID))
}

// DeleteMessage evicts the message from the cache.
func (r *MemoryRegistry) DeleteMessage(m *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.removeMessage(m.ID)
	r.notifyDelete(KindMessage, m.ID.String())
}

// DeleteMember removes the member from its guild's member table. The shared
// user record stays cached; it may be referenced from other guilds.
func (r *MemoryRegistry) DeleteMember(m *model.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.store.guild(m.GuildID)
	if !ok {
		return
	}
	delete(g.Members, m.UserID)
	r.notifyDelete(KindMember, memberKey(m.GuildID, m.UserID))
}

// DeleteRole removes the role from its guild's role table and strips the
// reference from every cached member holding it. Both happen inside one
// critical section: no reader can observe a member still referencing a
// deleted role.
func (r *MemoryRegistry) DeleteRole(role *model.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.store.guild(role.GuildID)
	if !ok {
		return
	}
	delete(g.Roles, role.ID)
	for _, m := range g.Members {
		m.RemoveRole(role.ID)
	}
	r.notifyDelete(KindRole, role.ID.String())
}

// DeleteEmoji removes a guild emoji from its guild and the store.
func (r *MemoryRegistry) DeleteEmoji(e *model.Emoji) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.store.guild(e.GuildID); ok {
		delete(g.Emojis, e.ID)
	}
	r.store.removeEmoji(e.ID)
	r.notifyDelete(KindEmoji, e.ID.String())
}

// DeleteReaction removes one user's reaction with the given emoji from the
// message. The count decrements; the entry disappears when it reaches zero.
// It returns the reaction still on the message, or nil when the last one was
// removed or nothing was tracked.
func (r *MemoryRegistry) DeleteReaction(msg *model.Message, user *model.User, emoji *model.Emoji) *model.Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.store.message(msg.ID)
	if !ok {
		return nil
	}
	reaction := live.ReactionByEmoji(emoji.ID)
	if reaction == nil {
		return nil
	}
	if user != nil && r.identity.is(user.ID) {
		reaction.Me = false
	}
	result := r.decrementReaction(live, reaction)
	r.notifyUpsert(KindMessage, live.ID.String(), live.Clone())
	return result
}

// DeleteAllReactions clears the message's entire reaction collection in one
// step.
func (r *MemoryRegistry) DeleteAllReactions(msg *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.store.message(msg.ID)
	if !ok {
		return
	}
	live.Reactions = nil
	r.notifyUpsert(KindMessage, live.ID.String(), live.Clone())
}

// IncrementReactionCount adds one to the reaction's count, creating a
// count-1 entry when this is the first reactor.
func (r *MemoryRegistry) IncrementReactionCount(msg *model.Message, emoji *model.Emoji) *model.Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.store.message(msg.ID)
	if !ok {
		return nil
	}
	reaction := live.ReactionByEmoji(emoji.ID)
	if reaction == nil {
		reaction = &model.Reaction{MessageID: live.ID, Emoji: emoji, Count: 1}
		live.Reactions = append(live.Reactions, reaction)
	} else {
		reaction.Count++
	}
	r.notifyUpsert(KindMessage, live.ID.String(), live.Clone())
	return reaction
}

// DecrementReactionCount subtracts one from the reaction's count. When the
// count reaches zero the entry is removed and nil is returned, signaling
// "reaction now absent". Counts never go negative: decrementing an absent
// reaction returns nil without creating anything.
func (r *MemoryRegistry) DecrementReactionCount(msg *model.Message, emoji *model.Emoji) *model.Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, ok := r.store.message(msg.ID)
	if !ok {
		return nil
	}
	reaction := live.ReactionByEmoji(emoji.ID)
	if reaction == nil {
		return nil
	}
	result := r.decrementReaction(live, reaction)
	r.notifyUpsert(KindMessage, live.ID.String(), live.Clone())
	return result
}

func (r *MemoryRegistry) decrementReaction(msg *model.Message, reaction *model.Reaction) *model.Reaction {
	reaction.Count--
	if reaction.Count <= 0 {
		msg.RemoveReaction(reaction.Emoji.ID)
		return nil
	}
	return reaction
}
