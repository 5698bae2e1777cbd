package model

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// ChannelType enumerates the channel kinds the cache distinguishes.
type ChannelType int

const (
	ChannelTypeText ChannelType = iota
	ChannelTypeDM
	ChannelTypeVoice
	ChannelTypeGroupDM
	ChannelTypeCategory
	ChannelTypeNews
)

// Channel is a message container. GuildID is zero for DM channels.
type Channel struct {
	ID               snowflake.ID `mapstructure:"id" json:"id"`
	Type             ChannelType  `mapstructure:"type" json:"type"`
	GuildID          snowflake.ID `mapstructure:"-" json:"guild_id"`
	Name             string       `mapstructure:"name" json:"name"`
	Topic            string       `mapstructure:"topic" json:"topic"`
	Position         int          `mapstructure:"position" json:"position"`
	NSFW             bool         `mapstructure:"nsfw" json:"nsfw"`
	LastMessageID    snowflake.ID `mapstructure:"last_message_id" json:"last_message_id"`
	LastPinTimestamp *time.Time   `mapstructure:"last_pin_timestamp" json:"last_pin_timestamp"`
}

// DM reports whether the channel lives outside any guild.
func (c *Channel) DM() bool {
	return c.GuildID == 0
}

// Clone returns a deep copy of the channel.
func (c *Channel) Clone() *Channel {
	if c == nil {
		return nil
	}
	cp := *c
	if c.LastPinTimestamp != nil {
		ts := *c.LastPinTimestamp
		cp.LastPinTimestamp = &ts
	}
	return &cp
}
