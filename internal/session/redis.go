package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

func (s *RedisStore) sessionKey(sid, key string) string {
	return "session:" + sid + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) ([]byte, error) {
	val, err := s.Client.Get(ctx, s.sessionKey(sid, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key string, value []byte) error {
	return s.Client.Set(ctx, s.sessionKey(sid, key), value, s.TTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sid, key string) error {
	return s.Client.Del(ctx, s.sessionKey(sid, key)).Err()
}
