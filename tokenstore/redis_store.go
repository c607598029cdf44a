package tokenstore

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisStore)(nil)

// RedisStore keeps the token under a single redis key. A zero ttl stores it without expiry.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (rs *RedisStore) Read(ctx context.Context) (string, error) {
	token, err := rs.rdb.Get(ctx, rs.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.ErrTokenNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.Read]")
	}
	if token == "" {
		return "", apperrors.ErrTokenNotFound
	}
	return token, nil
}

func (rs *RedisStore) Write(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("[RedisStore.Write] token is required")
	}
	if err := rs.rdb.Set(ctx, rs.key, token, rs.ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Write]")
	}
	return nil
}

func (rs *RedisStore) Clear(ctx context.Context) error {
	if err := rs.rdb.Del(ctx, rs.key).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Clear]")
	}
	return nil
}
