package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MSet(ctx context.Context, values ...interface{}) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	client  redisKV
	prefix  string
	timeout time.Duration
}

// NewRedisStore construye un Store sobre Redis con claves "fleetwatch:<origin>:<key>".
func NewRedisStore(client *redis.Client, origin string) Store {
	if client == nil {
		return nil
	}
	return newRedisStore(client, origin)
}

func newRedisStore(client redisKV, origin string) *redisStore {
	return &redisStore{
		client:  client,
		prefix:  "fleetwatch:" + strings.TrimRight(origin, "/") + ":",
		timeout: 500 * time.Millisecond,
	}
}

func (s *redisStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetAll usa MSET, que es atomico en Redis.
func (s *redisStore) SetAll(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, s.prefix+k, v)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.MSet(ctx, args...).Err()
}

func (s *redisStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.prefix + k
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Del(ctx, prefixed...).Err()
}
