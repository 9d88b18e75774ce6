package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultTTL           = 10 * time.Second
	DefaultRetryInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an expired lock taken
// over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lock shared by every instance connected to the same redis server. A holder that
// dies keeps the key until TTL expires.
type Redis struct {
	Client        *redis.Client
	TTL           time.Duration
	RetryInterval time.Duration
}

func (r Redis) Lock(ctx context.Context, key string) (func() error, error) {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	interval := r.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	redisKey := "lock:" + key
	token := uuid.NewString()
	for {
		ok, err := r.Client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "error acquiring redis lock: %s", redisKey)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "error waiting for redis lock: %s", redisKey)
		case <-time.After(interval):
		}
	}

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := releaseScript.Run(ctx, r.Client, []string{redisKey}, token).Err()
		return errors.Wrapf(err, "error releasing redis lock: %s", redisKey)
	}, nil
}
