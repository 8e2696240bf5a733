package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis directory.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Redis stores code handles as plain keys claimed with SETNX.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis directory and checks the server is reachable.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "auction:room:"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (d *Redis) key(handle string) string {
	return d.prefix + handle
}

func (d *Redis) Register(ctx context.Context, code, endpoint string) error {
	handle, err := handleFor(code)
	if err != nil {
		return err
	}
	ok, err := d.client.SetNX(ctx, d.key(handle), endpoint, d.ttl).Result()
	if err != nil {
		return fmt.Errorf("register %s: %w", handle, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCodeInUse, handle)
	}
	return nil
}

func (d *Redis) Lookup(ctx context.Context, code string) (string, error) {
	handle, err := handleFor(code)
	if err != nil {
		return "", err
	}
	endpoint, err := d.client.Get(ctx, d.key(handle)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrRoomNotFound, handle)
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", handle, err)
	}
	return endpoint, nil
}

func (d *Redis) Release(ctx context.Context, code string) error {
	handle, err := handleFor(code)
	if err != nil {
		return err
	}
	return d.client.Del(ctx, d.key(handle)).Err()
}

// Close closes the underlying client.
func (d *Redis) Close() error {
	return d.client.Close()
}
