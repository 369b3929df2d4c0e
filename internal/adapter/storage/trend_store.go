// internal/adapter/storage/trend_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"yapper/internal/domain/trend"
)

// Key space: hashtag:<name> holds a hashtag's occurrence buckets,
// candidates:active the global last-seen set, candidates:<Category> the
// per-category affinity sets, and trending:global / trending:<Category>
// the ranked output lists.
const (
	activeKey         = "candidates:active"
	globalTrendingKey = "trending:global"
)

func hashtagKey(name string) string      { return "hashtag:" + name }
func categoryKey(category string) string { return "candidates:" + category }

func trendingKey(category string) string {
	if category == "" {
		return globalTrendingKey
	}
	return "trending:" + category
}

// TrendStore implements the engine's sorted-set state on Redis. All
// multi-key writes go through one pipelined round trip.
type TrendStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrendStore creates a trend store. ttl bounds how long candidate and
// occurrence state lives after its last write.
func NewTrendStore(client *redis.Client, ttl time.Duration) *TrendStore {
	return &TrendStore{
		client: client,
		ttl:    ttl,
	}
}

// UpsertActive overwrites each member's last-seen score in the global
// active set and refreshes the set's TTL.
func (s *TrendStore) UpsertActive(ctx context.Context, members map[string]float64) error {
	return s.upsertSet(ctx, activeKey, members)
}

// UpsertCategory overwrites each member's affinity score in a category's
// candidate set and refreshes that set's TTL.
func (s *TrendStore) UpsertCategory(ctx context.Context, category string, members map[string]float64) error {
	return s.upsertSet(ctx, categoryKey(category), members)
}

func (s *TrendStore) upsertSet(ctx context.Context, key string, members map[string]float64) error {
	if len(members) == 0 {
		return nil
	}

	zs := make([]redis.Z, 0, len(members))
	for member, score := range members {
		zs = append(zs, redis.Z{Score: score, Member: member})
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, zs...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error upserting %s: %w", key, err)
	}
	return nil
}

// IncrementBuckets atomically increments the given occurrence bucket for
// each hashtag and refreshes each series' TTL.
func (s *TrendStore) IncrementBuckets(ctx context.Context, buckets map[string]int64) error {
	if len(buckets) == 0 {
		return nil
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for hashtag, bucket := range buckets {
			key := hashtagKey(hashtag)
			pipe.ZIncrBy(ctx, key, 1, strconv.FormatInt(bucket, 10))
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error incrementing occurrence buckets: %w", err)
	}
	return nil
}

// ActiveSince returns all hashtags whose last-seen score is at or above
// min.
func (s *TrendStore) ActiveSince(ctx context.Context, min float64) ([]string, error) {
	members, err := s.client.ZRangeByScore(ctx, activeKey, &redis.ZRangeBy{
		Min: strconv.FormatFloat(min, 'f', -1, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("error querying active candidates: %w", err)
	}
	return members, nil
}

// Buckets returns a hashtag's full stored occurrence series in
// chronological order.
func (s *TrendStore) Buckets(ctx context.Context, hashtag string) ([]trend.Bucket, error) {
	zs, err := s.client.ZRangeWithScores(ctx, hashtagKey(hashtag), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error querying occurrence buckets: %w", err)
	}

	buckets := make([]trend.Bucket, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected bucket member type %T", z.Member)
		}
		ts, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing bucket timestamp %q: %w", member, err)
		}
		buckets = append(buckets, trend.Bucket{Timestamp: ts, Count: z.Score})
	}

	// Members sort by score (count), not by time; order chronologically.
	for i := 1; i < len(buckets); i++ {
		for j := i; j > 0 && buckets[j].Timestamp < buckets[j-1].Timestamp; j-- {
			buckets[j], buckets[j-1] = buckets[j-1], buckets[j]
		}
	}

	return buckets, nil
}

// LastSeen returns a hashtag's last-seen timestamp, or nil when the
// hashtag is not an active candidate.
func (s *TrendStore) LastSeen(ctx context.Context, hashtag string) (*float64, error) {
	score, err := s.client.ZScore(ctx, activeKey, hashtag).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying last-seen timestamp: %w", err)
	}
	return &score, nil
}

// CategoryMembers returns a category's full candidate set.
func (s *TrendStore) CategoryMembers(ctx context.Context, category string) (map[string]float64, error) {
	zs, err := s.client.ZRangeWithScores(ctx, categoryKey(category), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error querying %s candidates: %w", category, err)
	}

	members := make(map[string]float64, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected candidate member type %T", z.Member)
		}
		members[member] = z.Score
	}
	return members, nil
}

// CategoryScores reads every hashtag's affinity in every category in one
// pipelined round trip. Absent scores are nil.
func (s *TrendStore) CategoryScores(ctx context.Context, hashtags, categories []string) (map[string]map[string]*float64, error) {
	cmds := make(map[string]map[string]*redis.FloatCmd, len(hashtags))

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, hashtag := range hashtags {
			row := make(map[string]*redis.FloatCmd, len(categories))
			for _, category := range categories {
				row[category] = pipe.ZScore(ctx, categoryKey(category), hashtag)
			}
			cmds[hashtag] = row
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("error querying category scores: %w", err)
	}

	scores := make(map[string]map[string]*float64, len(hashtags))
	for hashtag, row := range cmds {
		out := make(map[string]*float64, len(row))
		for category, cmd := range row {
			switch {
			case errors.Is(cmd.Err(), redis.Nil):
				out[category] = nil
			case cmd.Err() != nil:
				return nil, fmt.Errorf("error reading %s score: %w", category, cmd.Err())
			default:
				v := cmd.Val()
				out[category] = &v
			}
		}
		scores[hashtag] = out
	}

	return scores, nil
}

// ReplaceTrending atomically replaces a ranked list ("" means global):
// the existing members are deleted and the survivors bulk-inserted in
// one pipeline.
func (s *TrendStore) ReplaceTrending(ctx context.Context, category string, entries []trend.RankedEntry) error {
	key := trendingKey(category)

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(entries) > 0 {
			zs := make([]redis.Z, len(entries))
			for i, e := range entries {
				zs[i] = redis.Z{Score: e.Score, Member: e.Hashtag}
			}
			pipe.ZAdd(ctx, key, zs...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error replacing %s: %w", key, err)
	}
	return nil
}

// Trending returns up to limit entries of a ranked list in descending
// score order.
func (s *TrendStore) Trending(ctx context.Context, category string, limit int) ([]trend.RankedEntry, error) {
	if limit < 1 {
		return []trend.RankedEntry{}, nil
	}

	zs, err := s.client.ZRevRangeWithScores(ctx, trendingKey(category), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("error querying trending list: %w", err)
	}

	entries := make([]trend.RankedEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected trending member type %T", z.Member)
		}
		entries = append(entries, trend.RankedEntry{Hashtag: member, Score: z.Score})
	}
	return entries, nil
}
