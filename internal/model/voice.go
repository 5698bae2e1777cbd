package model

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceState tracks which voice channel a user occupies within a guild.
type VoiceState struct {
	GuildID   snowflake.ID `mapstructure:"-" json:"guild_id"`
	ChannelID snowflake.ID `mapstructure:"-" json:"channel_id"`
	UserID    snowflake.ID `mapstructure:"-" json:"user_id"`
	SessionID string       `mapstructure:"session_id" json:"session_id"`
	Deaf      bool         `mapstructure:"deaf" json:"deaf"`
	Mute      bool         `mapstructure:"mute" json:"mute"`
	SelfDeaf  bool         `mapstructure:"self_deaf" json:"self_deaf"`
	SelfMute  bool         `mapstructure:"self_mute" json:"self_mute"`
	Suppress  bool         `mapstructure:"suppress" json:"suppress"`
}

// Clone returns a deep copy of the voice state.
func (v *VoiceState) Clone() *VoiceState {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
