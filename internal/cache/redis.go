package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"coursemart/internal/config"
	"coursemart/internal/logger"
)

type RedisService struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewRedisService(cfg config.Config, log *logger.Logger) (*RedisService, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisService{rdb: rdb, log: log.With("service", "RedisService")}, nil
}

func (s *RedisService) Client() *goredis.Client { return s.rdb }

func (s *RedisService) Close() error { return s.rdb.Close() }

// Set stores a string value with a TTL. A zero ttl means no expiry.
func (s *RedisService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisService) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisService) Del(ctx context.Context, keys ...string) error {
	return s.rdb.Del(ctx, keys...).Err()
}
