package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct{ C *redis.Client }

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

// Allow is a fixed-window counter shared across instances: INCR on the
// key, EXPIRE on first hit. Open on redis failure so a limiter outage
// never locks everyone out.
func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	k := fmt.Sprintf("rl:%s", key)
	n, err := r.C.Incr(ctx, k).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		r.C.Expire(ctx, k, window)
	}
	return n <= int64(limit)
}
