package model

import (
	"github.com/disgoorg/snowflake/v2"
)

// Role is a guild-scoped permission set. Members reference roles by ID only;
// the role object itself lives in the owning guild's role table.
type Role struct {
	ID          snowflake.ID `mapstructure:"id" json:"id"`
	GuildID     snowflake.ID `mapstructure:"-" json:"guild_id"`
	Name        string       `mapstructure:"name" json:"name"`
	Color       int          `mapstructure:"color" json:"color"`
	Position    int          `mapstructure:"position" json:"position"`
	Permissions uint64       `mapstructure:"permissions" json:"permissions"`
	Hoist       bool         `mapstructure:"hoist" json:"hoist"`
	Managed     bool         `mapstructure:"managed" json:"managed"`
	Mentionable bool         `mapstructure:"mentionable" json:"mentionable"`
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
