package state

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/Gopher0727/ChatState/internal/model"
)

// voiceKey identifies a voice state by its (guild, user) composite key.
type voiceKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

// entityStore owns the mapping tables for every cached entity type. It is a
// dumb index: idempotent upserts, explicit-absence lookups, no cascades and
// no locking of its own. Cascading consistency and mutual exclusion are the
// registry's responsibility.
type entityStore struct {
	guilds      map[snowflake.ID]*model.Guild
	channels    map[snowflake.ID]*model.Channel
	users       map[snowflake.ID]*model.User
	emojis      map[snowflake.ID]*model.Emoji
	webhooks    map[snowflake.ID]*model.Webhook
	voiceStates map[voiceKey]*model.VoiceState

	// Bounded message cache: most recent messageLimit messages, oldest
	// evicted first.
	messages     map[snowflake.ID]*model.Message
	messageOrder []snowflake.ID
	messageLimit int
}

func newEntityStore(messageLimit int) *entityStore {
	return &entityStore{
		guilds:       make(map[snowflake.ID]*model.Guild),
		channels:     make(map[snowflake.ID]*model.Channel),
		users:        make(map[snowflake.ID]*model.User),
		emojis:       make(map[snowflake.ID]*model.Emoji),
		webhooks:     make(map[snowflake.ID]*model.Webhook),
		voiceStates:  make(map[voiceKey]*model.VoiceState),
		messages:     make(map[snowflake.ID]*model.Message),
		messageLimit: messageLimit,
	}
}

func (s *entityStore) guild(id snowflake.ID) (*model.Guild, bool) {
	g, ok := s.guilds[id]
	return g, ok
}

func (s *entityStore) putGuild(g *model.Guild) {
	s.guilds[g.ID] = g
}

func (s *entityStore) removeGuild(id snowflake.ID) {
	delete(s.guilds, id)
}

func (s *entityStore) channel(id snowflake.ID) (*model.Channel, bool) {
	ch, ok := s.channels[id]
	return ch, ok
}

func (s *entityStore) putChannel(ch *model.Channel) {
	s.channels[ch.ID] = ch
}

func (s *entityStore) removeChannel(id snowflake.ID) {
	delete(s.channels, id)
}

func (s *entityStore) user(id snowflake.ID) (*model.User, bool) {
	u, ok := s.users[id]
	return u, ok
}

func (s *entityStore) putUser(u *model.User) {
	s.users[u.ID] = u
}

func (s *entityStore) emoji(id snowflake.ID) (*model.Emoji, bool) {
	e, ok := s.emojis[id]
	return e, ok
}

func (s *entityStore) putEmoji(e *model.Emoji) {
	s.emojis[e.ID] = e
}

func (s *entityStore) removeEmoji(id snowflake.ID) {
	delete(s.emojis, id)
}

func (s *entityStore) webhook(id snowflake.ID) (*model.Webhook, bool) {
	w, ok := s.webhooks[id]
	return w, ok
}

func (s *entityStore) putWebhook(w *model.Webhook) {
	s.webhooks[w.ID] = w
}

func (s *entityStore) voiceState(guildID, userID snowflake.ID) (*model.VoiceState, bool) {
	v, ok := s.voiceStates[voiceKey{guildID, userID}]
	return v, ok
}

func (s *entityStore) putVoiceState(v *model.VoiceState) {
	s.voiceStates[voiceKey{v.GuildID, v.UserID}] = v
}

func (s *entityStore) message(id snowflake.ID) (*model.Message, bool) {
	m, ok := s.messages[id]
	return m, ok
}

// putMessage inserts the message, evicting the oldest cached message when
// the configured capacity is exceeded. It returns the ID of the evicted
// message, or zero if nothing was evicted.
func (s *entityStore) putMessage(m *model.Message) snowflake.ID {
	if _, ok := s.messages[m.ID]; ok {
		s.messages[m.ID] = m
		return 0
	}
	s.messages[m.ID] = m
	s.messageOrder = append(s.messageOrder, m.ID)
	if s.messageLimit <= 0 || len(s.messageOrder) <= s.messageLimit {
		return 0
	}
	oldest := s.messageOrder[0]
	s.messageOrder = s.messageOrder[1:]
	delete(s.messages, oldest)
	return oldest
}

func (s *entityStore) removeMessage(id snowflake.ID) {
	if _, ok := s.messages[id]; !ok {
		return
	}
	delete(s.messages, id)
	for i, mid := range s.messageOrder {
		if mid == id {
			s.messageOrder = append(s.messageOrder[:i], s.messageOrder[i+1:]...)
			break
		}
	}
}
