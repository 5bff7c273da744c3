package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader produces the value to cache on a miss.
type Loader func(context.Context) (any, error)

// Keyed caches JSON values in Redis. Entries are grouped into scopes; every
// scope carries a version counter that is part of the entry key, so bumping
// the version with Invalidate makes all older entries of the scope
// unreachable. Stale entries expire through the TTL.
type Keyed struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewKeyed constructs a Keyed cache. A nil client disables caching and every
// Fetch calls the loader.
func NewKeyed(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Keyed {
	if prefix == "" {
		prefix = "cache"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Keyed{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Version returns the current version of scope. Unknown scopes are at 0.
func (c *Keyed) Version(ctx context.Context, scope string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("platform/cache: version %s: %w", scope, err)
	}
	return ver, nil
}

// Key composes the entry key for name inside scope at its current version.
func (c *Keyed) Key(ctx context.Context, scope, name string) (string, error) {
	ver, err := c.Version(ctx, scope)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{c.prefix, scope, "v" + strconv.FormatInt(ver, 10), name}, ":"), nil
}

// Fetch decodes the cached value for scope/name into dest, calling load and
// storing its result on a miss. Concurrent misses for the same key share one
// load. Redis failures fall back to calling load directly.
func (c *Keyed) Fetch(ctx context.Context, scope, name string, dest any, load Loader) error {
	if load == nil {
		return errors.New("platform/cache: loader required")
	}
	if c == nil || c.client == nil {
		return loadInto(ctx, dest, load)
	}

	key, err := c.Key(ctx, scope, name)
	if err != nil {
		c.logger.Warn("cache version lookup failed", slog.String("scope", scope), slog.Any("error", err))
		return loadInto(ctx, dest, load)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return json.Unmarshal(payload, dest)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		return loadInto(ctx, dest, load)
	}

	raw, err := c.fill(ctx, key, load)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *Keyed) fill(ctx context.Context, key string, load Loader) ([]byte, error) {
	// The load is shared by every waiter on key, so it must outlive the
	// request that started it.
	shared := context.WithoutCancel(ctx)
	resultChan := c.group.DoChan(key, func() (any, error) {
		value, err := load(shared)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("platform/cache: encode %s: %w", key, err)
		}
		if err := c.client.Set(shared, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate bumps the version of every given scope.
func (c *Keyed) Invalidate(ctx context.Context, scopes ...string) error {
	if c == nil || c.client == nil || len(scopes) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, scope := range scopes {
		pipe.Incr(ctx, c.versionKey(scope))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("platform/cache: invalidate %s: %w", strings.Join(scopes, ","), err)
	}
	return nil
}

func (c *Keyed) versionKey(scope string) string {
	return c.prefix + ":version:" + scope
}

func loadInto(ctx context.Context, dest any, load Loader) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
