// Package idgenerator hands out monotonically increasing session IDs.
package idgenerator

import "sync/atomic"

// IdGenerator generates monotonically increasing uint32 IDs and is safe for
// concurrent use. The first Id() returns startValue+1, so starting from 0
// leaves 0 free to mean "no session".
type IdGenerator struct {
	id atomic.Uint32
}

// NewIdGenerator creates an IdGenerator whose first Id() is startValue+1.
//
// Parameters:
//   - startValue: Initial counter value
//
// Returns:
//   - A new IdGenerator instance
func NewIdGenerator(startValue uint32) *IdGenerator {
	gen := &IdGenerator{}
	gen.id.Store(startValue)
	return gen
}

// Id returns the next ID.
func (g *IdGenerator) Id() uint32 {
	return g.id.Add(1)
}

// Last returns the most recently issued ID, or the start value if none has
// been issued yet.
func (g *IdGenerator) Last() uint32 {
	return g.id.Load()
}
