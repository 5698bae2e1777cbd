package model

import (
	"slices"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Member is a user's membership in one guild, identified by the composite
// (GuildID, UserID) key. Roles are held by ID and resolved against the owning
// guild's role table on demand, so deleting a role never leaves a live
// object reference behind.
type Member struct {
	GuildID  snowflake.ID   `mapstructure:"-" json:"guild_id"`
	UserID   snowflake.ID   `mapstructure:"-" json:"user_id"`
	User     *User          `mapstructure:"-" json:"user"`
	Nick     string         `mapstructure:"nick" json:"nick"`
	JoinedAt time.Time      `mapstructure:"joined_at" json:"joined_at"`
	Deaf     bool           `mapstructure:"deaf" json:"deaf"`
	Mute     bool           `mapstructure:"mute" json:"mute"`
	RoleIDs  []snowflake.ID `mapstructure:"-" json:"roles"`
	Presence *Presence      `mapstructure:"-" json:"presence"`
}

// HasRole reports whether the member currently holds the given role.
func (m *Member) HasRole(roleID snowflake.ID) bool {
	return slices.Contains(m.RoleIDs, roleID)
}

// AddRole appends the role to the member's set if not already present.
func (m *Member) AddRole(roleID snowflake.ID) {
	if !m.HasRole(roleID) {
		m.RoleIDs = append(m.RoleIDs, roleID)
	}
}

// RemoveRole strips the role from the member's set. Order of the remaining
// roles is preserved.
func (m *Member) RemoveRole(roleID snowflake.ID) {
	m.RoleIDs = slices.DeleteFunc(m.RoleIDs, func(id snowflake.ID) bool {
		return id == roleID
	})
}

// Clone returns a deep copy of the member, including its user and presence.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	c.User = m.User.Clone()
	c.Presence = m.Presence.Clone()
	if m.RoleIDs != nil {
		c.RoleIDs = make([]snowflake.ID, len(m.RoleIDs))
		copy(c.RoleIDs, m.RoleIDs)
	}
	return &c
}
