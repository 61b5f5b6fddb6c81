package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gomodule/redigo/redis"
)

// keyPrefix matches the historical key layout so existing sessions survive
// a deployment.
const keyPrefix = "auth_"

// RedisStore implements Store on a Redis connection pool.
type RedisStore struct {
	pool *redis.Pool
}

// NewPool returns a Redis connection pool for the given URL. The pool is
// shared between the session store and the job queue client.
func NewPool(url string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, url)
		},
	}
}

func NewRedisStore(pool *redis.Pool) *RedisStore {
	return &RedisStore{pool: pool}
}

func (s *RedisStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	defer conn.Close()

	if _, err := conn.Do("SETEX", keyPrefix+token, int(ttl.Seconds()), userID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (string, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	defer conn.Close()

	userID, err := redis.String(conn.Do("GET", keyPrefix+token))
	if err != nil {
		if err == redis.ErrNil {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return userID, nil
}

func (s *RedisStore) Del(ctx context.Context, token string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	defer conn.Close()

	// DEL of an absent key is a no-op, which keeps logout idempotent
	if _, err := conn.Do("DEL", keyPrefix+token); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("PING")
	return err
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}
