package model

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/twmb/murmur3"
)

// Emoji is either a custom guild emoji (real snowflake ID, GuildID set) or a
// unicode emoji (synthetic ID derived from the name, GuildID zero).
type Emoji struct {
	ID        snowflake.ID   `mapstructure:"-" json:"id"`
	GuildID   snowflake.ID   `mapstructure:"-" json:"guild_id"`
	Name      string         `mapstructure:"name" json:"name"`
	Animated  bool           `mapstructure:"animated" json:"animated"`
	Managed   bool           `mapstructure:"managed" json:"managed"`
	Available bool           `mapstructure:"available" json:"available"`
	RoleIDs   []snowflake.ID `mapstructure:"roles" json:"roles"`
}

// Unicode reports whether this emoji is a plain unicode emoji rather than a
// guild-uploaded one.
func (e *Emoji) Unicode() bool {
	return e.GuildID == 0
}

// Clone returns a deep copy of the emoji.
func (e *Emoji) Clone() *Emoji {
	if e == nil {
		return nil
	}
	c := *e
	if e.RoleIDs != nil {
		c.RoleIDs = make([]snowflake.ID, len(e.RoleIDs))
		copy(c.RoleIDs, e.RoleIDs)
	}
	return &c
}

// SyntheticEmojiID derives a stable cache key for a unicode emoji, which has
// no snowflake of its own. The same name always hashes to the same key.
func SyntheticEmojiID(name string) snowflake.ID {
	return snowflake.ID(murmur3.SeedStringSum64(0x637374617465, name))
}
