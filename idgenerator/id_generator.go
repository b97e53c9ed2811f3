// Package idgenerator provides a concurrency-safe source of monotonically
// increasing identifiers, used to number accepted sessions.
package idgenerator

import "sync/atomic"

// IdGenerator generates monotonically increasing uint64 IDs in a
// concurrency-safe manner. The zero value is ready to use and starts at 1.
type IdGenerator struct {
	id atomic.Uint64
}

// NewIdGenerator creates an IdGenerator whose first NextID returns
// startValue+1. The generator is safe for concurrent use.
//
// Parameters:
//   - startValue: The value to initialize the counter to
//
// Returns:
//   - A new IdGenerator instance
func NewIdGenerator(startValue uint64) *IdGenerator {
	gen := &IdGenerator{}
	gen.id.Store(startValue)
	return gen
}

// NextID returns the next unique ID by atomically incrementing the internal
// counter. It is safe for concurrent use by multiple goroutines.
//
// Returns:
//   - The next uint64 ID
func (g *IdGenerator) NextID() uint64 {
	return g.id.Add(1)
}
