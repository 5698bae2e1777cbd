package state

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/Gopher0727/ChatState/internal/model"
)

// identitySlot is the single nullable cell holding the self user. It starts
// empty and is written only by the self-user parse path; every other
// component may read it. Access is guarded by the registry lock so a read
// during an update never races with self-identification.
type identitySlot struct {
	me *model.SelfUser
}

func (s *identitySlot) get() *model.SelfUser {
	return s.me
}

func (s *identitySlot) set(me *model.SelfUser) {
	s.me = me
}

// is reports whether the slot is populated and holds the given user ID.
func (s *identitySlot) is(id snowflake.ID) bool {
	return s.me != nil && s.me.ID == id
}
