package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type redisBlobStore struct {
	client *redis.Client
}

func NewRedisBlobStore(client *redis.Client) BlobStore {
	return &redisBlobStore{client: client}
}

func (s *redisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *redisBlobStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *redisBlobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
