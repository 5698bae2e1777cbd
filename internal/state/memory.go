package state

import (
	"fmt"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/Gopher0727/ChatState/internal/model"
)

// DefaultMessageLimit bounds the message cache when no limit is configured.
const DefaultMessageLimit = 100

// Option configures a MemoryRegistry.
type Option func(*MemoryRegistry)

// WithLogger sets the logger used for degraded-mode and eviction events.
func WithLogger(log *zap.Logger) Option {
	return func(r *MemoryRegistry) {
		r.log = log
	}
}

// WithObserver registers an observer notified after every committed
// mutation. The observer is called under the registry's write lock and must
// not block.
func WithObserver(obs Observer) Option {
	return func(r *MemoryRegistry) {
		r.obs = obs
	}
}

// WithMessageLimit overrides the message cache capacity. A non-positive
// limit disables eviction.
func WithMessageLimit(limit int) Option {
	return func(r *MemoryRegistry) {
		r.messageLimit = limit
	}
}

// MemoryRegistry is the in-memory Registry variant. All mutating operations
// run inside one exclusive critical section; lookups share a read lock.
// Nothing in this type performs I/O, so every operation is bounded.
type MemoryRegistry struct {
	mu sync.RWMutex

	store    *entityStore
	identity identitySlot

	log          *zap.Logger
	obs          Observer
	messageLimit int
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry builds an empty in-memory registry.
func NewMemoryRegistry(opts ...Option) *MemoryRegistry {
	r := &MemoryRegistry{
		log:          zap.NewNop(),
		messageLimit: DefaultMessageLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.store = newEntityStore(r.messageLimit)
	return r
}

// Me returns the self user, or nil before the handshake event arrived.
func (r *MemoryRegistry) Me() *model.SelfUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identity.get()
}

// Guild looks up a guild by ID.
func (r *MemoryRegistry) Guild(id snowflake.ID) (*model.Guild, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.guild(id)
}

// Channel looks up a channel by ID, whether guild-bound or DM.
func (r *MemoryRegistry) Channel(id snowflake.ID) (*model.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.channel(id)
}

// Message looks up a recently cached message by ID.
func (r *MemoryRegistry) Message(id snowflake.ID) (*model.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.message(id)
}

// User looks up a user by ID. The self user is found here too, so callers
// resolving message authors need no special case.
func (r *MemoryRegistry) User(id snowflake.ID) (*model.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupUser(id)
}

func (r *MemoryRegistry) lookupUser(id snowflake.ID) (*model.User, bool) {
	if r.identity.is(id) {
		return &r.identity.get().User, true
	}
	return r.store.user(id)
}

// Member looks up a member by its (guild, user) composite key.
func (r *MemoryRegistry) Member(guildID, userID snowflake.ID) (*model.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupMember(guildID, userID)
}

func (r *MemoryRegistry) lookupMember(guildID, userID snowflake.ID) (*model.Member, bool) {
	g, ok := r.store.guild(guildID)
	if !ok {
		return nil, false
	}
	m, ok := g.Members[userID]
	return m, ok
}

// Role looks up a role within a guild.
func (r *MemoryRegistry) Role(guildID, roleID snowflake.ID) (*model.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.store.guild(guildID)
	if !ok {
		return nil, false
	}
	role, ok := g.Roles[roleID]
	return role, ok
}

// GuildEmoji looks up an emoji by its cache ID.
func (r *MemoryRegistry) GuildEmoji(id snowflake.ID) (*model.Emoji, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.emoji(id)
}

// Webhook looks up a webhook by ID.
func (r *MemoryRegistry) Webhook(id snowflake.ID) (*model.Webhook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.webhook(id)
}

// VoiceState looks up the voice state of a user within a guild.
func (r *MemoryRegistry) VoiceState(guildID, userID snowflake.ID) (*model.VoiceState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.voiceState(guildID, userID)
}

// Guilds returns all cached guilds in unspecified order.
func (r *MemoryRegistry) Guilds() []*model.Guild {
	r.mu.RLock()
	defer r.mu.RUnlock()
	guilds := make([]*model.Guild, 0, len(r.store.guilds))
	for _, g := range r.store.guilds {
		guilds = append(guilds, g)
	}
	return guilds
}

// MessageCount returns the number of currently cached messages.
func (r *MemoryRegistry) MessageCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.messages)
}

// memberKey builds the observer key for a (guild, user) composite identity.
func memberKey(guildID, userID snowflake.ID) string {
	return fmt.Sprintf("%s/%s", guildID, userID)
}

// notifyUpsert hands a deep-copied entity to the observer, if any.
func (r *MemoryRegistry) notifyUpsert(kind EntityKind, key string, entity any) {
	if r.obs != nil {
		r.obs.OnUpsert(kind, key, entity)
	}
}

func (r *MemoryRegistry) notifyDelete(kind EntityKind, key string) {
	if r.obs != nil {
		r.obs.OnDelete(kind, key)
	}
}
