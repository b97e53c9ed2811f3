package dnscache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// MemoryResolver is the in-process Resolver. It stores resolved addresses in
// go-cache and uses singleflight so concurrent misses for the same host run
// one lookup.
type MemoryResolver struct {
	cache  *cache.Cache
	group  singleflight.Group
	ttl    time.Duration
	lookup LookupFunc
}

// NewMemoryResolver creates an in-process resolver.
//
// Parameters:
//   - ttl: How long a resolved address stays cached; non-positive uses
//     DefaultTTL
//   - lookup: Resolution function for misses; nil uses the system resolver
//     and returns the first address
//
// Returns:
//   - A new MemoryResolver
func NewMemoryResolver(ttl time.Duration, lookup LookupFunc) *MemoryResolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if lookup == nil {
		lookup = systemLookup
	}

	return &MemoryResolver{
		cache:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
		lookup: lookup,
	}
}

// Lookup implements Resolver.
func (r *MemoryResolver) Lookup(ctx context.Context, host string) (string, error) {
	if addr, found := r.cache.Get(host); found {
		if s, ok := addr.(string); ok {
			return s, nil
		}
	}

	// Concurrent misses for the same host collapse into one lookup.
	val, err, _ := r.group.Do(host, func() (any, error) {
		if addr, found := r.cache.Get(host); found {
			if s, ok := addr.(string); ok {
				return s, nil
			}
		}

		addr, err := r.lookup(ctx, host)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", host, err)
		}

		r.cache.Set(host, addr, r.ttl)
		return addr, nil
	})
	if err != nil {
		return "", err
	}

	return val.(string), nil
}

// Forget implements Resolver.
func (r *MemoryResolver) Forget(_ context.Context, host string) error {
	r.cache.Delete(host)
	return nil
}

// systemLookup resolves through the net package and returns the first
// address.
func systemLookup(ctx context.Context, host string) (string, error) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses for %s", host)
	}

	return addrs[0], nil
}
