package ingest

import (
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/Gopher0727/ChatState/internal/model"
	"github.com/Gopher0727/ChatState/internal/state"
)

// payloadID extracts an ID-valued attribute from an event payload.
func payloadID(p state.Payload, key string) (snowflake.ID, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	return coerceID(v)
}

func coerceID(v any) (snowflake.ID, bool) {
	switch id := v.(type) {
	case string:
		parsed, err := snowflake.Parse(id)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case snowflake.ID:
		return id, true
	case float64:
		return snowflake.ID(uint64(id)), true
	case int:
		return snowflake.ID(uint64(id)), true
	case int64:
		return snowflake.ID(uint64(id)), true
	case uint64:
		return snowflake.ID(id), true
	default:
		return 0, false
	}
}

// payloadIDList extracts a list of IDs from an event payload.
func payloadIDList(p state.Payload, key string) []snowflake.ID {
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(raw))
	for _, item := range raw {
		if id, ok := coerceID(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// childPayload extracts a nested attribute map.
func childPayload(p state.Payload, key string) (state.Payload, bool) {
	child, ok := p[key].(map[string]any)
	return child, ok
}

// childPayloads extracts a list of nested attribute maps.
func childPayloads(p state.Payload, key string) []state.Payload {
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	children := make([]state.Payload, 0, len(raw))
	for _, item := range raw {
		if child, ok := item.(map[string]any); ok {
			children = append(children, child)
		}
	}
	return children
}

// resolveGuild looks up the guild an event belongs to via its guild_id
// attribute. A missing or uncached guild yields nil; callers treat that as
// the degraded DM-or-unknown path.
func (d *Dispatcher) resolveGuild(p state.Payload) *model.Guild {
	guildID, ok := payloadID(p, "guild_id")
	if !ok {
		return nil
	}
	g, cached := d.reg.Guild(guildID)
	if !cached {
		d.log.Debug("event references uncached guild", zap.Stringer("guild_id", guildID))
		return nil
	}
	return g
}

// resolveRoles maps role IDs onto the cached role objects of a guild,
// dropping references that do not resolve.
func (d *Dispatcher) resolveRoles(guildID snowflake.ID, roleIDs []snowflake.ID) []*model.Role {
	roles := make([]*model.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		if role, cached := d.reg.Role(guildID, id); cached {
			roles = append(roles, role)
		}
	}
	return roles
}
