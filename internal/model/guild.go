package model

import (
	"slices"

	"github.com/disgoorg/snowflake/v2"
)

// Guild is the top-level container of the cached graph. Channels, members,
// roles and emojis are owned by exactly one guild and are indexed here by ID.
type Guild struct {
	ID          snowflake.ID `mapstructure:"id" json:"id"`
	Name        string       `mapstructure:"name" json:"name"`
	OwnerID     snowflake.ID `mapstructure:"owner_id" json:"owner_id"`
	Unavailable bool         `mapstructure:"unavailable" json:"unavailable"`

	Roles    map[snowflake.ID]*Role    `mapstructure:"-" json:"-"`
	Members  map[snowflake.ID]*Member  `mapstructure:"-" json:"-"`
	Channels map[snowflake.ID]*Channel `mapstructure:"-" json:"-"`
	Emojis   map[snowflake.ID]*Emoji   `mapstructure:"-" json:"-"`
}

// NewGuild returns an empty guild with all containment tables allocated.
func NewGuild(id snowflake.ID) *Guild {
	return &Guild{
		ID:       id,
		Roles:    make(map[snowflake.ID]*Role),
		Members:  make(map[snowflake.ID]*Member),
		Channels: make(map[snowflake.ID]*Channel),
		Emojis:   make(map[snowflake.ID]*Emoji),
	}
}

// RolesByPosition returns the guild's roles ordered by position, lowest
// first, with the ID as a tie breaker so the order is deterministic.
func (g *Guild) RolesByPosition() []*Role {
	roles := make([]*Role, 0, len(g.Roles))
	for _, r := range g.Roles {
		roles = append(roles, r)
	}
	slices.SortFunc(roles, func(a, b *Role) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return roles
}

// Clone returns a deep copy of the guild and every entity it contains.
func (g *Guild) Clone() *Guild {
	if g == nil {
		return nil
	}
	c := *g
	c.Roles = make(map[snowflake.ID]*Role, len(g.Roles))
	for id, r := range g.Roles {
		c.Roles[id] = r.Clone()
	}
	c.Members = make(map[snowflake.ID]*Member, len(g.Members))
	for id, m := range g.Members {
		c.Members[id] = m.Clone()
	}
	c.Channels = make(map[snowflake.ID]*Channel, len(g.Channels))
	for id, ch := range g.Channels {
		c.Channels[id] = ch.Clone()
	}
	c.Emojis = make(map[snowflake.ID]*Emoji, len(g.Emojis))
	for id, e := range g.Emojis {
		c.Emojis[id] = e.Clone()
	}
	return &c
}
