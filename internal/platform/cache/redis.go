package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the Redis client. Addr is either host:port or a
// redis:// URL carrying credentials and the database number.
type Options struct {
	Addr     string
	Password string
	DB       int
}

func (o Options) redisOptions() (*redis.Options, error) {
	if strings.HasPrefix(o.Addr, "redis://") || strings.HasPrefix(o.Addr, "rediss://") {
		parsed, err := redis.ParseURL(o.Addr)
		if err != nil {
			return nil, fmt.Errorf("platform/cache: parse url: %w", err)
		}
		return parsed, nil
	}
	return &redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB}, nil
}

// New creates a Redis client and verifies connectivity.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	ro, err := opts.redisOptions()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(ro)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", ro.Addr, err)
	}
	return client, nil
}
