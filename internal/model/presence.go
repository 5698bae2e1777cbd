package model

import "time"

// PresenceStatus is the coarse online state of a member.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusIdle    PresenceStatus = "idle"
	StatusDND     PresenceStatus = "dnd"
	StatusOffline PresenceStatus = "offline"
)

// ActivityType enumerates what kind of activity a presence describes.
type ActivityType int

const (
	ActivityPlaying ActivityType = iota
	ActivityStreaming
	ActivityListening
	ActivityWatching
)

// Presence is the per-guild online state of exactly one member. It is a
// sub-object of Member, not independently addressable in the cache.
type Presence struct {
	Status       PresenceStatus `mapstructure:"status" json:"status"`
	ActivityName string         `mapstructure:"activity_name" json:"activity_name"`
	ActivityType ActivityType   `mapstructure:"activity_type" json:"activity_type"`
	Since        *time.Time     `mapstructure:"since" json:"since"`
}

// Clone returns a deep copy of the presence.
func (p *Presence) Clone() *Presence {
	if p == nil {
		return nil
	}
	c := *p
	if p.Since != nil {
		ts := *p.Since
		c.Since = &ts
	}
	return &c
}
