// Package safemap provides a type-safe concurrent map built on sync.Map. It
// backs the per-session attribute store and the server's session registry.
package safemap

import "sync"

// SafeMap is a concurrent map that is safe for use by multiple goroutines.
// It wraps sync.Map and exposes a generic, type-safe API. Keys must be
// comparable; values may be any type.
//
// SafeMap must not be copied after first use.
type SafeMap[K comparable, V any] struct {
	m sync.Map
}

// NewSafeMap creates a new empty SafeMap.
//
// Returns:
//   - A new SafeMap instance ready for concurrent use
func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{}
}

// Store sets the value for key k, overwriting any existing value.
//
// Parameters:
//   - k: The key to store
//   - v: The value to associate with k
func (m *SafeMap[K, V]) Store(k K, v V) {
	m.m.Store(k, v)
}

// Load returns the value for key k and whether the key was present. If the
// key is absent, the zero value of V and false are returned.
//
// Parameters:
//   - k: The key to look up
//
// Returns:
//   - The value associated with k, or the zero value of V if not found
//   - true if the key was present, false otherwise
func (m *SafeMap[K, V]) Load(k K) (V, bool) {
	v, found := m.m.Load(k)
	if !found {
		var zero V
		return zero, false
	}

	return v.(V), true
}

// Delete removes the entry for key k. It is a no-op if the key is absent.
//
// Parameters:
//   - k: The key to remove
func (m *SafeMap[K, V]) Delete(k K) {
	m.m.Delete(k)
}

// Has reports whether the map contains key k.
//
// Parameters:
//   - k: The key to look up
//
// Returns:
//   - true if the key is present, false otherwise
func (m *SafeMap[K, V]) Has(k K) bool {
	_, found := m.m.Load(k)
	return found
}

// Range calls fn for each entry in the map. Iteration stops when fn returns
// false. The snapshot semantics are those of sync.Map.Range.
//
// Parameters:
//   - fn: Function invoked with each key and value; return false to stop
func (m *SafeMap[K, V]) Range(fn func(k K, v V) bool) {
	m.m.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}

// Len returns the number of entries in the map. It is O(n).
//
// Returns:
//   - The number of entries currently stored
func (m *SafeMap[K, V]) Len() int {
	n := 0
	m.m.Range(func(any, any) bool {
		n++
		return true
	})

	return n
}
