package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on Redis with JSON encoded values.
type RedisCache struct {
	client *redis.Client
	opts   *Options
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithOptions sets cache options.
func WithOptions(opts *Options) RedisOption {
	return func(rc *RedisCache) {
		if opts != nil {
			rc.opts = opts
		}
	}
}

// ParseRedisURL converts redis://[:password@]host:port[/db] into client options.
func ParseRedisURL(addr string) (*redis.Options, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("can't parse url for redis: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("redis url %q has no host", addr)
	}
	var passwd string
	if u.User != nil {
		passwd, _ = u.User.Password()
	}
	db := 0
	if 1 < len(u.Path) {
		db, err = strconv.Atoi(u.Path[1:])
		if err != nil {
			return nil, fmt.Errorf("can't convert redis db %q: %w", u.Path[1:], err)
		}
	}
	network := "tcp"
	if u.Scheme == "unix" {
		network = "unix"
	}
	return &redis.Options{
		Network:  network,
		Addr:     u.Host,
		Password: passwd,
		DB:       db,
	}, nil
}

// NewRedisCache connects to the Redis server at addr and pings it.
func NewRedisCache(ctx context.Context, addr string, options ...RedisOption) (*RedisCache, error) {
	ro, err := ParseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	rc := &RedisCache{client: client, opts: DefaultOptions()}
	for _, option := range options {
		option(rc)
	}
	return rc, nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	data, err := rc.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return values, true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key string, values []float64) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return rc.client.Set(ctx, KeyPrefix+key, data, rc.opts.DefaultTTL).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
