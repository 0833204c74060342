package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coursemart/internal/logger"
)

// CartStore keeps each user's cart as a redis set of course ids. Carts are
// session-class data: they expire after thirty days of inactivity and never
// touch postgres.
type CartStore struct {
	redis *RedisService
	log   *logger.Logger
	ttl   time.Duration
}

func NewCartStore(redis *RedisService, log *logger.Logger) *CartStore {
	return &CartStore{
		redis: redis,
		log:   log.With("service", "CartStore"),
		ttl:   30 * 24 * time.Hour,
	}
}

func cartKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

func (s *CartStore) Add(ctx context.Context, userID, courseID uuid.UUID) error {
	key := cartKey(userID)
	pipe := s.redis.rdb.TxPipeline()
	pipe.SAdd(ctx, key, courseID.String())
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *CartStore) Remove(ctx context.Context, userID, courseID uuid.UUID) error {
	return s.redis.rdb.SRem(ctx, cartKey(userID), courseID.String()).Err()
}

func (s *CartStore) List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.redis.rdb.SMembers(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			s.log.Warn("dropping malformed cart entry", "user_id", userID, "entry", m)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *CartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.redis.rdb.Del(ctx, cartKey(userID)).Err()
}
