package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps slots in three Redis keys under a common prefix.
type RedisBackend struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisBackend creates a [RedisBackend]. A zero ttl keeps keys until cleared.
func NewRedisBackend(client redis.UniversalClient, prefix string, ttl time.Duration) (*RedisBackend, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	if prefix == "" {
		prefix = "goconsole"
	}
	if ttl < 0 {
		return nil, errors.New("redis ttl must be >= 0")
	}
	return &RedisBackend{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (r *RedisBackend) key(slot string) string {
	return r.prefix + ":" + slot
}

func (r *RedisBackend) keys() []string {
	return []string{
		r.key(SlotAccessToken),
		r.key(SlotRefreshToken),
		r.key(SlotUser),
	}
}

func (r *RedisBackend) Put(ctx context.Context, slots Slots) error {
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(SlotAccessToken), slots.AccessToken, r.ttl)
		pipe.Set(ctx, r.key(SlotRefreshToken), slots.RefreshToken, r.ttl)
		pipe.Set(ctx, r.key(SlotUser), slots.User, r.ttl)
		return nil
	})
	return err
}

func (r *RedisBackend) Get(ctx context.Context) (Slots, error) {
	values, err := r.redis.MGet(ctx, r.keys()...).Result()
	if err != nil {
		return Slots{}, err
	}
	if len(values) != 3 {
		return Slots{}, fmt.Errorf("unexpected MGET reply length %d", len(values))
	}

	return Slots{
		AccessToken:  stringValue(values[0]),
		RefreshToken: stringValue(values[1]),
		User:         stringValue(values[2]),
	}, nil
}

func (r *RedisBackend) Delete(ctx context.Context) error {
	return r.redis.Del(ctx, r.keys()...).Err()
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
