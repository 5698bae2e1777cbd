package model

import (
	"github.com/disgoorg/snowflake/v2"
)

// User is the globally shared profile of an account. A single *User may be
// referenced by members across several guilds; per-guild state lives on Member.
type User struct {
	ID            snowflake.ID `mapstructure:"id" json:"id"`
	Username      string       `mapstructure:"username" json:"username"`
	Discriminator string       `mapstructure:"discriminator" json:"discriminator"`
	AvatarHash    string       `mapstructure:"avatar" json:"avatar"`
	Bot           bool         `mapstructure:"bot" json:"bot"`
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// SelfUser is the account the cache is maintained for. It carries the
// OAuth-scoped fields that are only ever sent for the connection's own user.
type SelfUser struct {
	User `mapstructure:",squash"`

	Verified   bool   `mapstructure:"verified" json:"verified"`
	Email      string `mapstructure:"email" json:"email"`
	MFAEnabled bool   `mapstructure:"mfa_enabled" json:"mfa_enabled"`
	Locale     string `mapstructure:"locale" json:"locale"`
}

// Clone returns a deep copy of the self user.
func (u *SelfUser) Clone() *SelfUser {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
