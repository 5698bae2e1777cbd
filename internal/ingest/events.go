package ingest

// Gateway event kinds the dispatcher understands. The ordinal of each kind
// indexes the Filter's bitset.
const (
	EventReady                    = "READY"
	EventUserUpdate               = "USER_UPDATE"
	EventGuildCreate              = "GUILD_CREATE"
	EventGuildUpdate              = "GUILD_UPDATE"
	EventGuildDelete              = "GUILD_DELETE"
	EventGuildEmojisUpdate        = "GUILD_EMOJIS_UPDATE"
	EventChannelCreate            = "CHANNEL_CREATE"
	EventChannelUpdate            = "CHANNEL_UPDATE"
	EventChannelDelete            = "CHANNEL_DELETE"
	EventChannelPinsUpdate        = "CHANNEL_PINS_UPDATE"
	EventGuildMemberAdd           = "GUILD_MEMBER_ADD"
	EventGuildMemberUpdate        = "GUILD_MEMBER_UPDATE"
	EventGuildMemberRemove        = "GUILD_MEMBER_REMOVE"
	EventGuildRoleCreate          = "GUILD_ROLE_CREATE"
	EventGuildRoleUpdate          = "GUILD_ROLE_UPDATE"
	EventGuildRoleDelete          = "GUILD_ROLE_DELETE"
	EventMessageCreate            = "MESSAGE_CREATE"
	EventMessageUpdate            = "MESSAGE_UPDATE"
	EventMessageDelete            = "MESSAGE_DELETE"
	EventMessageReactionAdd       = "MESSAGE_REACTION_ADD"
	EventMessageReactionRemove    = "MESSAGE_REACTION_REMOVE"
	EventMessageReactionRemoveAll = "MESSAGE_REACTION_REMOVE_ALL"
	EventPresenceUpdate           = "PRESENCE_UPDATE"
	EventVoiceStateUpdate         = "VOICE_STATE_UPDATE"
	EventWebhookUpdate            = "WEBHOOK_UPDATE"
)

// eventOrdinals assigns every known kind a stable bit position.
var eventOrdinals = map[string]uint{
	EventReady:                    0,
	EventUserUpdate:               1,
	EventGuildCreate:              2,
	EventGuildUpdate:              3,
	EventGuildDelete:              4,
	EventGuildEmojisUpdate:        5,
	EventChannelCreate:            6,
	EventChannelUpdate:            7,
	EventChannelDelete:            8,
	EventChannelPinsUpdate:        9,
	EventGuildMemberAdd:           10,
	EventGuildMemberUpdate:        11,
	EventGuildMemberRemove:        12,
	EventGuildRoleCreate:          13,
	EventGuildRoleUpdate:          14,
	EventGuildRoleDelete:          15,
	EventMessageCreate:            16,
	EventMessageUpdate:            17,
	EventMessageDelete:            18,
	EventMessageReactionAdd:       19,
	EventMessageReactionRemove:    20,
	EventMessageReactionRemoveAll: 21,
	EventPresenceUpdate:           22,
	EventVoiceStateUpdate:         23,
	EventWebhookUpdate:            24,
}

// AllEvents returns every event kind the dispatcher understands.
func AllEvents() []string {
	events := make([]string, len(eventOrdinals))
	for name, ord := range eventOrdinals {
		events[ord] = name
	}
	return events
}
