package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger keys. The unmatched set deduplicates raw strings; the counts hash
// tracks how often each one was seen so noisy providers surface first.
const (
	unmatchedSetKey    = "oddsync:unmatched:names"
	unmatchedCountsKey = "oddsync:unmatched:counts"
	budgetKeyPrefix    = "oddsync:budget:"
)

// RedisCache handles the unmatched-name ledger and rate-budget reporting
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// RecordUnmatched adds a raw external name to the deduplicated unmatched
// ledger and bumps its occurrence count. Returns true the first time a
// name is seen.
func (rc *RedisCache) RecordUnmatched(ctx context.Context, provider, rawName string) (bool, error) {
	entry := provider + "|" + rawName

	added, err := rc.client.SAdd(ctx, unmatchedSetKey, entry).Result()
	if err != nil {
		return false, err
	}

	if err := rc.client.HIncrBy(ctx, unmatchedCountsKey, entry, 1).Err(); err != nil {
		return false, err
	}

	return added == 1, nil
}

// UnmatchedNames returns the ledger entries with their occurrence counts
func (rc *RedisCache) UnmatchedNames(ctx context.Context) (map[string]int64, error) {
	raw, err := rc.client.HGetAll(ctx, unmatchedCountsKey).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(raw))
	for entry, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		counts[entry] = n
	}
	return counts, nil
}

// SetBudgetRemaining stores the provider-reported rate-limit budget so the
// run summary and the status endpoint agree on what is left.
func (rc *RedisCache) SetBudgetRemaining(ctx context.Context, provider string, remaining int) error {
	return rc.client.Set(ctx, budgetKeyPrefix+provider, remaining, 0).Err()
}

// BudgetRemaining reads the last reported budget for a provider. Missing
// key means the provider has not been called yet this deployment.
func (rc *RedisCache) BudgetRemaining(ctx context.Context, provider string) (int, error) {
	n, err := rc.client.Get(ctx, budgetKeyPrefix+provider).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
