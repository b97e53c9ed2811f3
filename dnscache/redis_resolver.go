package dnscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisResolver is the Redis-backed Resolver, for process groups that should
// share resolved addresses. A short-lived lock key keeps concurrent misses
// across processes from stampeding the upstream resolver.
type redisResolver struct {
	client *redis.Client
	ttl    time.Duration
	lookup LookupFunc
}

const (
	redisKeyPrefix  = "dnscache:"
	redisLockSuffix = ":lock"
	redisLockTTL    = 5 * time.Second
	redisWaitStep   = 50 * time.Millisecond
)

// NewRedisResolver creates a Redis-backed resolver.
//
// Parameters:
//   - client: The Redis client to store resolved addresses with
//   - ttl: How long a resolved address stays cached; non-positive uses
//     DefaultTTL
//   - lookup: Resolution function for misses; nil uses the system resolver
//
// Returns:
//   - A Resolver backed by Redis
func NewRedisResolver(client *redis.Client, ttl time.Duration, lookup LookupFunc) Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if lookup == nil {
		lookup = systemLookup
	}

	return &redisResolver{client: client, ttl: ttl, lookup: lookup}
}

// Lookup implements Resolver.
func (r *redisResolver) Lookup(ctx context.Context, host string) (string, error) {
	key := redisKeyPrefix + host

	addr, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("dnscache get %s: %w", host, err)
	}

	lockKey := key + redisLockSuffix
	locked, err := r.client.SetNX(ctx, lockKey, 1, redisLockTTL).Result()
	if err != nil {
		return "", fmt.Errorf("dnscache lock %s: %w", host, err)
	}

	if !locked {
		// Another process is resolving; poll for its result until the lock
		// expires, then fall through to resolving ourselves.
		deadline := time.Now().Add(redisLockTTL)
		for time.Now().Before(deadline) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(redisWaitStep):
			}

			addr, err = r.client.Get(ctx, key).Result()
			if err == nil {
				return addr, nil
			}
			if !errors.Is(err, redis.Nil) {
				return "", fmt.Errorf("dnscache get %s: %w", host, err)
			}
		}
	}

	defer r.client.Del(ctx, lockKey)

	addr, err = r.lookup(ctx, host)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", host, err)
	}

	if err := r.client.Set(ctx, key, addr, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("dnscache set %s: %w", host, err)
	}

	return addr, nil
}

// Forget implements Resolver.
func (r *redisResolver) Forget(ctx context.Context, host string) error {
	return r.client.Del(ctx, redisKeyPrefix+host).Err()
}
