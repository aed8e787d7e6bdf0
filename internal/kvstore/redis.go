package kvstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"shophub-gateway/internal/domain"
)

type redisStore struct {
	client *redis.Client
}

// NewRedis returns a Store backed by a shared redis instance, for gateway
// deployments with more than one replica.
func NewRedis(ctx context.Context, addr string) (Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisStore{client: client}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
