// Package dnscache caches host name resolution for connection-oriented
// clients, so repeated exchanges against the same endpoint do not pay a
// lookup per connection. Two backends are provided: an in-process cache and
// a Redis-backed cache for process groups that should share lookups.
package dnscache

import (
	"context"
	"time"
)

// LookupFunc resolves a host name to a single address when a cache miss
// occurs.
type LookupFunc func(ctx context.Context, host string) (string, error)

// Resolver resolves host names to addresses through a cache. Implementations
// are safe for concurrent use and suppress duplicate concurrent lookups for
// the same host.
type Resolver interface {
	// Lookup returns the cached address for host, resolving and caching it
	// on a miss.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - host: The host name to resolve
	//
	// Returns:
	//   - The resolved address
	//   - An error if resolution fails
	Lookup(ctx context.Context, host string) (string, error)

	// Forget removes a host from the cache, forcing the next Lookup to
	// resolve again.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - host: The host name to evict
	Forget(ctx context.Context, host string) error
}

// DefaultTTL is how long a resolved address stays cached unless the backend
// was configured otherwise.
const DefaultTTL = 5 * time.Minute
