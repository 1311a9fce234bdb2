package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okian/gigmatch/pkg/logger"
)

const (
	defaultLeaseTTL      = 30 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
	maxRetryInterval     = time.Second
	keyPrefix            = "gigmatch:lock:"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds per-key leases in Redis so that several service
// instances serialize on the same gig. A lease expires after its TTL if the
// holder dies.
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
	log           logger.Logger
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithLeaseTTL sets the lease lifetime.
func WithLeaseTTL(ttl time.Duration) RedisOption {
	return func(r *RedisLocker) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithRetryInterval sets the initial wait between acquisition attempts.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *RedisLocker) {
		if d > 0 {
			r.retryInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) RedisOption {
	return func(r *RedisLocker) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRedisLocker creates a locker on an existing client.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	r := &RedisLocker{
		client:        client,
		ttl:           defaultLeaseTTL,
		retryInterval: defaultRetryInterval,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("lock")
	return r
}

// Lock acquires the lease for key, retrying with exponential backoff until
// ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInterval
	b.MaxInterval = maxRetryInterval

	_, err := backoff.Retry(ctx, func() (bool, error) {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return false, backoff.Permanent(fmt.Errorf("%w: %w", ErrLockBackend, err))
		}
		if !ok {
			return false, errHeld
		}
		return true, nil
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(0))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrLockTimeout, key, ctxErr)
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(ctx, key, redisKey, token) })
	}, nil
}

func (r *RedisLocker) release(ctx context.Context, key, redisKey, token string) {
	// the caller's ctx may already be done; release must still run
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(relCtx, r.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		r.log.Warn(relCtx, "failed to release lock", logger.String("key", key), logger.Error(err))
	}
}

var errHeld = errors.New("lock held")
