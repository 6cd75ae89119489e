package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore maps namespaced keys onto plain redis string keys of the form
// "{namespace}:{key}".
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL parses a redis:// URL and checks the connection.
func NewRedisStoreFromURL(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStore(client), nil
}

func (s *RedisStore) Get(ctx context.Context, key string, namespace string) (string, bool, error) {
	v, err := s.client.Get(ctx, redisKey(key, namespace)).Result()
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case errors.Is(err, redis.ErrClosed):
		return "", false, ErrStoreClosed
	default:
		return "", false, errors.Wrapf(err, "redis store: get %s", key)
	}
}

func (s *RedisStore) Set(ctx context.Context, key string, value string, namespace string) error {
	err := s.client.Set(ctx, redisKey(key, namespace), value, 0).Err()
	if errors.Is(err, redis.ErrClosed) {
		return ErrStoreClosed
	}
	if err != nil {
		return errors.Wrapf(err, "redis store: set %s", key)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key string, namespace string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
