// Package cache keeps trending search counters in Redis.
package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

const dayLayout = "20060102"

// NewRedisClient parses redisURL and verifies connectivity
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// TrendingCounter counts searches per normalized query in one sorted set per
// UTC day, with a companion hash summing the result counts
type TrendingCounter struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewTrendingCounter creates a counter whose daily keys expire after retention
func NewTrendingCounter(client *redis.Client, prefix string, retention time.Duration) *TrendingCounter {
	return &TrendingCounter{
		client:    client,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
	}
}

func (t *TrendingCounter) countKey(day time.Time) string {
	return t.prefix + "trending:" + day.UTC().Format(dayLayout)
}

func (t *TrendingCounter) resultsKey(day time.Time) string {
	return t.prefix + "trending:results:" + day.UTC().Format(dayLayout)
}

// IncrementSearch records one search of query that returned resultCount products
func (t *TrendingCounter) IncrementSearch(ctx context.Context, query string, resultCount int, at time.Time) error {
	countKey, resultsKey := t.countKey(at), t.resultsKey(at)

	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, countKey, 1, query)
		pipe.HIncrBy(ctx, resultsKey, query, int64(resultCount))
		pipe.Expire(ctx, countKey, t.retention)
		pipe.Expire(ctx, resultsKey, t.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment trending counter: %w", err)
	}
	return nil
}

// TopSearches sums the daily counters covering window and returns the most
// searched queries with at least minCount searches
func (t *TrendingCounter) TopSearches(ctx context.Context, window time.Duration, minCount, limit int) ([]models.TrendingSearch, error) {
	days := int((window + 24*time.Hour - 1) / (24 * time.Hour))
	today := t.now().UTC()

	pipe := t.client.Pipeline()
	counts := make([]*redis.ZSliceCmd, days)
	results := make([]*redis.MapStringStringCmd, days)
	for d := 0; d < days; d++ {
		day := today.AddDate(0, 0, -d)
		counts[d] = pipe.ZRangeWithScores(ctx, t.countKey(day), 0, -1)
		results[d] = pipe.HGetAll(ctx, t.resultsKey(day))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read trending counters: %w", err)
	}

	searchCount := make(map[string]int)
	resultSum := make(map[string]int)
	for d := 0; d < days; d++ {
		for _, z := range counts[d].Val() {
			q, ok := z.Member.(string)
			if !ok {
				continue
			}
			searchCount[q] += int(z.Score)
		}
		for q, v := range results[d].Val() {
			n, err := strconv.Atoi(v)
			if err != nil {
				continue
			}
			resultSum[q] += n
		}
	}

	trending := make([]models.TrendingSearch, 0, len(searchCount))
	for q, n := range searchCount {
		if n < minCount {
			continue
		}
		avg := (resultSum[q]*2 + n) / (2 * n)
		trending = append(trending, models.TrendingSearch{Query: q, SearchCount: n, AvgResults: avg})
	}

	sort.Slice(trending, func(i, j int) bool {
		if trending[i].SearchCount != trending[j].SearchCount {
			return trending[i].SearchCount > trending[j].SearchCount
		}
		if trending[i].AvgResults != trending[j].AvgResults {
			return trending[i].AvgResults > trending[j].AvgResults
		}
		return trending[i].Query < trending[j].Query
	})
	if len(trending) > limit {
		trending = trending[:limit]
	}
	return trending, nil
}
