package model

import (
	"github.com/disgoorg/snowflake/v2"
)

// Webhook is a standalone entity scoped to a guild and channel.
type Webhook struct {
	ID         snowflake.ID `mapstructure:"id" json:"id"`
	GuildID    snowflake.ID `mapstructure:"-" json:"guild_id"`
	ChannelID  snowflake.ID `mapstructure:"-" json:"channel_id"`
	Name       string       `mapstructure:"name" json:"name"`
	Token      string       `mapstructure:"token" json:"-"`
	AvatarHash string       `mapstructure:"avatar" json:"avatar"`
}

// Clone returns a deep copy of the webhook.
func (w *Webhook) Clone() *Webhook {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}
