package monitor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Lease keeps two monitoring runs from working the same batch at once.
type Lease interface {
	Acquire(ctx context.Context, owner string) (bool, error)
	Release(ctx context.Context, owner string) error
}

type NopLease struct{}

func (NopLease) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NopLease) Release(context.Context, string) error         { return nil }

const DefaultLeaseKey = "pricetracker:monitor:lease"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is an advisory lock held in a single Redis key. It expires after TTL
// so a crashed run cannot block later ones forever.
type RedisLease struct {
	Redis *redis.Client
	Key   string
	TTL   time.Duration
}

func (l RedisLease) key() string {
	if l.Key == "" {
		return DefaultLeaseKey
	}
	return l.Key
}

func (l RedisLease) Acquire(ctx context.Context, owner string) (bool, error) {
	ok, err := l.Redis.SetNX(ctx, l.key(), owner, l.TTL).Result()
	if err != nil {
		return false, errors.Wrapf(err, "error acquiring lease %s for %s", l.key(), owner)
	}
	return ok, nil
}

// Release drops the lease only if owner still holds it.
func (l RedisLease) Release(ctx context.Context, owner string) error {
	err := releaseScript.Run(ctx, l.Redis, []string{l.key()}, owner).Err()
	return errors.Wrapf(err, "error releasing lease %s for %s", l.key(), owner)
}
