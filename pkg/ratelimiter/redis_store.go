package ratelimiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis sorted sets: one set per
// (key, endpoint), member a random id, score the attempt's creation time
// in unix milliseconds. Window queries become score-range operations and
// expiry is a combination of score trimming and key TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix overrides the key namespace (default "ratelimit").
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a store on client. Construction performs no I/O.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) setKey(key, endpoint string) string {
	return s.prefix + ":" + endpoint + ":" + key
}

// Record adds one attempt and maintains expiry: members older than the
// record's own window are trimmed, and the whole set expires once no
// writes arrive for a full window. Members are random so two attempts
// in the same millisecond both count.
func (s *RedisStore) Record(ctx context.Context, rec Record) error {
	setKey := s.setKey(rec.Key, rec.Endpoint)
	window := rec.ExpiresAt.Sub(rec.CreatedAt)
	cutoff := rec.CreatedAt.Add(-window).UnixMilli()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, setKey, redis.Z{
		Score:  float64(rec.CreatedAt.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.ZRemRangeByScore(ctx, setKey, "0", strconv.FormatInt(cutoff, 10))
	pipe.PExpire(ctx, setKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate limit attempt: %w", err)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context, key, endpoint string, since time.Time) (int64, error) {
	n, err := s.client.ZCount(ctx, s.setKey(key, endpoint),
		strconv.FormatInt(since.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit attempts: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Oldest(ctx context.Context, key, endpoint string, since time.Time) (time.Time, bool, error) {
	members, err := s.client.ZRangeByScoreWithScores(ctx, s.setKey(key, endpoint), &redis.ZRangeBy{
		Min:   strconv.FormatInt(since.UnixMilli(), 10),
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("find oldest rate limit attempt: %w", err)
	}
	if len(members) == 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(int64(members[0].Score)), true, nil
}
