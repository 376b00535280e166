package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"webasset/utils"
)

const sessionCountTTL = 5 * time.Minute

// SessionCountCache keeps per-user active banking session counts in Redis so
// the quota check does not hit the database on every launch. Counts are
// invalidated on every status transition; a miss falls through to the
// database.
type SessionCountCache struct {
	client *redis.Client
}

// NewSessionCountCache connects to Redis and verifies the connection.
func NewSessionCountCache(redisURL string) (*SessionCountCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SessionCountCache{client: client}, nil
}

func countKey(userID string) string {
	return fmt.Sprintf("banking:active_count:%s", userID)
}

// GetActiveCount returns the cached count and whether it was present.
func (sc *SessionCountCache) GetActiveCount(ctx context.Context, userID string) (int, bool) {
	if userID == "" {
		return 0, false
	}

	val, err := sc.client.Get(ctx, countKey(userID)).Result()
	if err == redis.Nil {
		utils.TrackCacheOperation("session_count", false)
		return 0, false
	}
	if err != nil {
		utils.TrackError("cache", "session_count_get")
		return 0, false
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}

	utils.TrackCacheOperation("session_count", true)
	return count, true
}

// SetActiveCount caches the count for a user.
func (sc *SessionCountCache) SetActiveCount(ctx context.Context, userID string, count int) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	if err := sc.client.Set(ctx, countKey(userID), count, sessionCountTTL).Err(); err != nil {
		utils.TrackError("cache", "session_count_set")
		return fmt.Errorf("failed to cache session count: %w", err)
	}
	return nil
}

// Invalidate drops the cached count after a status transition.
func (sc *SessionCountCache) Invalidate(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	if err := sc.client.Del(ctx, countKey(userID)).Err(); err != nil {
		utils.TrackError("cache", "session_count_del")
		return fmt.Errorf("failed to invalidate session count: %w", err)
	}
	return nil
}
