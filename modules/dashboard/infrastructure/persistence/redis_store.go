package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/legaldesk/modules/dashboard/domain/layout"
)

const keyPrefix = "legaldesk:dashboard:layout:"

// RedisClient is the subset of the go-redis client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStore struct {
	client RedisClient
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, userID string) (layout.Layout, error) {
	raw, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return layout.Layout{}, layout.ErrNotFound
	}
	if err != nil {
		return layout.Layout{}, errors.Wrap(err, "redis get layout")
	}
	var l layout.Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return layout.Layout{}, errors.Wrap(err, "decode layout")
	}
	return l, nil
}

func (s *RedisStore) Save(ctx context.Context, l layout.Layout) error {
	data, err := json.Marshal(l)
	if err != nil {
		return errors.Wrap(err, "encode layout")
	}
	return errors.Wrap(s.client.Set(ctx, keyPrefix+l.UserID, data, 0).Err(), "redis set layout")
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return errors.Wrap(s.client.Del(ctx, keyPrefix+userID).Err(), "redis del layout")
}
