package state

import (
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/Gopher0727/ChatState/internal/model"
)

// Payload is the already-deserialized attribute map handed over by the
// transport collaborator. The cache never sees raw bytes; decoding wire
// frames into these maps is strictly the transport's job.
type Payload = map[string]any

var (
	// ErrMissingID is returned when a payload lacks the id attribute that
	// identifies the entity it describes.
	ErrMissingID = errors.New("payload has no id attribute")

	// ErrMissingUser is returned when a member or message payload lacks the
	// nested user/author object it is required to carry.
	ErrMissingUser = errors.New("payload has no user attribute")
)

// Diff is an immutable (old, new) snapshot pair returned by an update
// operation. Old is a deep copy taken before the mutation was applied; later
// mutations of the live entity never change it.
type Diff[E any] struct {
	Old *E
	New *E
}

// PresenceChange is the result of a member-presence update. Presence is a
// sub-object of Member rather than independently addressable, so the member
// is returned alongside the before/after presence snapshots.
type PresenceChange struct {
	Member *model.Member
	Old    *model.Presence
	New    *model.Presence
}

// EntityKind names a cached entity type for observers.
type EntityKind string

const (
	KindGuild      EntityKind = "guild"
	KindChannel    EntityKind = "channel"
	KindUser       EntityKind = "user"
	KindMember     EntityKind = "member"
	KindRole       EntityKind = "role"
	KindEmoji      EntityKind = "emoji"
	KindMessage    EntityKind = "message"
	KindWebhook    EntityKind = "webhook"
	KindVoiceState EntityKind = "voice_state"
)

// Observer receives change notifications after a mutation has committed.
// Entities passed to OnUpsert are deep copies; implementations may retain
// them. Both methods must not block: the registry calls them while holding
// its write lock.
type Observer interface {
	OnUpsert(kind EntityKind, key string, entity any)
	OnDelete(kind EntityKind, key string)
}

// Registry is the relational interface between the event stream and the
// cached object graph. It exists as an interface so the in-memory variant
// can be swapped for another backend without touching callers.
//
// Every operation is a single synchronous unit of work. Lookups report
// absence explicitly instead of failing. Update operations return a nil
// result when the target is not cached; callers must treat that as
// "suppress, nothing to report", never as an error.
type Registry interface {
	// Me returns the self user, or nil before the handshake event arrived.
	Me() *model.SelfUser

	// Lookups. The second return reports presence.
	Guild(id snowflake.ID) (*model.Guild, bool)
	Channel(id snowflake.ID) (*model.Channel, bool)
	Message(id snowflake.ID) (*model.Message, bool)
	User(id snowflake.ID) (*model.User, bool)
	Member(guildID, userID snowflake.ID) (*model.Member, bool)
	Role(guildID, roleID snowflake.ID) (*model.Role, bool)
	GuildEmoji(id snowflake.ID) (*model.Emoji, bool)
	Webhook(id snowflake.ID) (*model.Webhook, bool)
	VoiceState(guildID, userID snowflake.ID) (*model.VoiceState, bool)
	Guilds() []*model.Guild
	MessageCount() int

	// Parse operations build a domain entity from a raw attribute map,
	// resolve the references they are given and insert the result into the
	// store. They only fail on structurally malformed payloads.
	ParseGuild(p Payload) (*model.Guild, error)
	ParseChannel(p Payload, guild *model.Guild) (*model.Channel, error)
	ParseEmoji(p Payload, guild *model.Guild) (*model.Emoji, error)
	ParseUser(p Payload) (*model.User, error)
	ParseSelfUser(p Payload) (*model.SelfUser, error)
	ParseMember(p Payload, guild *model.Guild) (*model.Member, error)
	ParsePartialMember(memberP, userP Payload, guild *model.Guild) (*model.Member, error)
	ParseMessage(p Payload) (*model.Message, error)
	ParsePresence(member *model.Member, p Payload) (*model.Presence, error)
	ParseReaction(p Payload) (*model.Reaction, error)
	ParseRole(p Payload, guild *model.Guild) (*model.Role, error)
	ParseWebhook(p Payload) (*model.Webhook, error)
	ParseVoiceState(guild *model.Guild, p Payload) (*model.VoiceState, error)

	// Update operations mutate the cached entity in place and return an
	// (old, new) snapshot pair, or nil if the target is not cached.
	UpdateChannel(p Payload) (*Diff[model.Channel], error)
	UpdateGuild(p Payload) (*Diff[model.Guild], error)
	UpdateMessage(p Payload) (*Diff[model.Message], error)
	UpdateRole(guildID snowflake.ID, p Payload) (*Diff[model.Role], error)
	UpdateMember(member *model.Member, roles []*model.Role, p Payload) (*Diff[model.Member], error)
	UpdateMemberPresence(member *model.Member, p Payload) (*PresenceChange, error)

	// UpdateGuildEmojis replaces the guild's emoji set with the supplied
	// list and returns the emojis that were removed and added. The two sets
	// are disjoint; an emoji present before and after appears in neither.
	UpdateGuildEmojis(payloads []Payload, guild *model.Guild) (removed, added []*model.Emoji, err error)

	// Targeted setters for bookkeeping pushed by dedicated events.
	SetGuildUnavailability(guild *model.Guild, unavailable bool)
	SetLastPinnedTimestamp(channel *model.Channel, ts *time.Time)
	SetRolesForMember(roles []*model.Role, member *model.Member)

	// Delete operations remove the target together with the cascades the
	// data model requires. Deleting an absent entity is a no-op.
	// DeleteReaction returns the reaction still tracked on the message, or
	// nil when the last one was removed.
	DeleteChannel(ch *model.Channel)
	DeleteGuild(g *model.Guild)
	DeleteMessage(m *model.Message)
	DeleteMember(m *model.Member)
	DeleteRole(r *model.Role)
	DeleteEmoji(e *model.Emoji)
	DeleteReaction(msg *model.Message, user *model.User, emoji *model.Emoji) *model.Reaction
	DeleteAllReactions(msg *model.Message)

	// Reaction counting. Increment creates a count-1 entry for the first
	// reactor. Decrement removes the entry when the count reaches zero and
	// returns nil to signal "reaction now absent"; counts never go negative.
	IncrementReactionCount(msg *model.Message, emoji *model.Emoji) *model.Reaction
	DecrementReactionCount(msg *model.Message, emoji *model.Emoji) *model.Reaction
}
