package model

import (
	"slices"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Message is a single chat message. Reactions are kept in arrival order and
// keyed by the emoji's cache ID.
type Message struct {
	ID              snowflake.ID `mapstructure:"id" json:"id"`
	ChannelID       snowflake.ID `mapstructure:"-" json:"channel_id"`
	GuildID         snowflake.ID `mapstructure:"-" json:"guild_id"`
	AuthorID        snowflake.ID `mapstructure:"-" json:"author_id"`
	Content         string       `mapstructure:"content" json:"content"`
	Timestamp       time.Time    `mapstructure:"timestamp" json:"timestamp"`
	EditedTimestamp *time.Time   `mapstructure:"edited_timestamp" json:"edited_timestamp"`
	Pinned          bool         `mapstructure:"pinned" json:"pinned"`
	TTS             bool         `mapstructure:"tts" json:"tts"`
	Reactions       []*Reaction  `mapstructure:"-" json:"reactions"`
}

// Reaction counts how many users reacted with one emoji on one message.
// A reaction with count zero must not exist; the decrement path removes the
// entry instead.
type Reaction struct {
	MessageID snowflake.ID `mapstructure:"-" json:"message_id"`
	Emoji     *Emoji       `mapstructure:"-" json:"emoji"`
	Count     int          `mapstructure:"count" json:"count"`
	Me        bool         `mapstructure:"me" json:"me"`
}

// Clone returns a deep copy of the reaction.
func (r *Reaction) Clone() *Reaction {
	if r == nil {
		return nil
	}
	c := *r
	c.Emoji = r.Emoji.Clone()
	return &c
}

// ReactionByEmoji returns the reaction entry for the given emoji cache ID,
// or nil if nobody has reacted with it.
func (m *Message) ReactionByEmoji(emojiID snowflake.ID) *Reaction {
	for _, r := range m.Reactions {
		if r.Emoji != nil && r.Emoji.ID == emojiID {
			return r
		}
	}
	return nil
}

// RemoveReaction deletes the reaction entry for the given emoji cache ID,
// preserving the order of the remaining entries.
func (m *Message) RemoveReaction(emojiID snowflake.ID) {
	m.Reactions = slices.DeleteFunc(m.Reactions, func(r *Reaction) bool {
		return r.Emoji != nil && r.Emoji.ID == emojiID
	})
}

// Clone returns a deep copy of the message including its reactions.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if m.EditedTimestamp != nil {
		ts := *m.EditedTimestamp
		c.EditedTimestamp = &ts
	}
	if m.Reactions != nil {
		c.Reactions = make([]*Reaction, len(m.Reactions))
		for i, r := range m.Reactions {
			c.Reactions[i] = r.Clone()
		}
	}
	return &c
}
