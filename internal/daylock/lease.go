package daylock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the lease only if it still carries our token, so an
// expired lease taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lease is a Redis-backed lock lease for multi-instance deployments. The TTL
// bounds how long a crashed holder can block a day.
type Lease struct {
	rdb        *redis.Client
	ttl        time.Duration
	retryEvery time.Duration
	logger     zerolog.Logger
}

// NewLease builds a lease manager. ttl should comfortably exceed the slowest
// snapshot-load-through-commit sequence.
func NewLease(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *Lease {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Lease{
		rdb:        rdb,
		ttl:        ttl,
		retryEvery: 50 * time.Millisecond,
		logger:     logger.With().Str("component", "daylock").Logger(),
	}
}

// Acquire blocks until the lease for key is held or ctx is done.
func (l *Lease) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lease %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-time.After(l.retryEvery):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *Lease) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
		l.logger.Error().Err(err).Str("key", key).Msg("lease release failed; will expire by TTL")
	}
}
