package ingest

import (
	"github.com/bits-and-blooms/bitset"
)

// Filter gates which event kinds the dispatcher applies, in the spirit of
// gateway intents: a transport may subscribe to everything while the cache
// only tracks the kinds it cares about.
type Filter struct {
	bits *bitset.BitSet
}

// NewFilter builds a filter admitting exactly the given kinds. Unknown
// names are ignored.
func NewFilter(kinds ...string) *Filter {
	f := &Filter{bits: bitset.New(uint(len(eventOrdinals)))}
	for _, kind := range kinds {
		if ord, ok := eventOrdinals[kind]; ok {
			f.bits.Set(ord)
		}
	}
	return f
}

// AllowAll builds a filter admitting every known kind.
func AllowAll() *Filter {
	f := &Filter{bits: bitset.New(uint(len(eventOrdinals)))}
	for _, ord := range eventOrdinals {
		f.bits.Set(ord)
	}
	return f
}

// Allows reports whether the kind passes the filter. Unknown kinds never
// pass.
func (f *Filter) Allows(kind string) bool {
	ord, ok := eventOrdinals[kind]
	return ok && f.bits.Test(ord)
}

// Without returns a copy of the filter with the given kinds cleared.
func (f *Filter) Without(kinds ...string) *Filter {
	c := &Filter{bits: f.bits.Clone()}
	for _, kind := range kinds {
		if ord, ok := eventOrdinals[kind]; ok {
			c.bits.Clear(ord)
		}
	}
	return c
}
