// internal/adapter/storage/trend_store_test.go

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapper/internal/domain/trend"
)

func newTestTrendStore(t *testing.T) (*TrendStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewTrendStore(client, time.Hour), mr, client
}

func TestUpsertActiveOverwritesAndExpires(t *testing.T) {
	store, mr, client := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertActive(ctx, map[string]float64{"launch": 1000}))
	require.NoError(t, store.UpsertActive(ctx, map[string]float64{"launch": 2000, "derby": 1500}))

	score, err := client.ZScore(ctx, "candidates:active", "launch").Result()
	require.NoError(t, err)
	assert.Equal(t, 2000.0, score)

	assert.Equal(t, time.Hour, mr.TTL("candidates:active"))
}

func TestBucketsChronologicalOrder(t *testing.T) {
	store, _, client := newTestTrendStore(t)
	ctx := context.Background()

	// Counts deliberately disorder the sorted set relative to time: the
	// oldest bucket carries the highest count.
	require.NoError(t, client.ZAdd(ctx, "hashtag:launch",
		redis.Z{Score: 9, Member: "300000"},
		redis.Z{Score: 1, Member: "600000"},
		redis.Z{Score: 5, Member: "900000"},
	).Err())

	buckets, err := store.Buckets(ctx, "launch")
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.Equal(t, trend.Bucket{Timestamp: 300000, Count: 9}, buckets[0])
	assert.Equal(t, trend.Bucket{Timestamp: 600000, Count: 1}, buckets[1])
	assert.Equal(t, trend.Bucket{Timestamp: 900000, Count: 5}, buckets[2])
}

func TestBucketsEmptySeries(t *testing.T) {
	store, _, _ := newTestTrendStore(t)

	buckets, err := store.Buckets(context.Background(), "unseen")
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestIncrementBucketsAccumulates(t *testing.T) {
	store, mr, client := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.IncrementBuckets(ctx, map[string]int64{"launch": 300000}))
	require.NoError(t, store.IncrementBuckets(ctx, map[string]int64{"launch": 300000}))
	require.NoError(t, store.IncrementBuckets(ctx, map[string]int64{"launch": 600000}))

	first, err := client.ZScore(ctx, "hashtag:launch", "300000").Result()
	require.NoError(t, err)
	assert.Equal(t, 2.0, first)

	second, err := client.ZScore(ctx, "hashtag:launch", "600000").Result()
	require.NoError(t, err)
	assert.Equal(t, 1.0, second)

	assert.Equal(t, time.Hour, mr.TTL("hashtag:launch"))
}

func TestActiveSinceInclusiveBoundary(t *testing.T) {
	store, _, _ := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertActive(ctx, map[string]float64{
		"stale":    999,
		"boundary": 1000,
		"fresh":    2000,
	}))

	members, err := store.ActiveSince(ctx, 1000)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"boundary", "fresh"}, members)
}

func TestLastSeenMissingMember(t *testing.T) {
	store, _, _ := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertActive(ctx, map[string]float64{"launch": 1234}))

	seen, err := store.LastSeen(ctx, "launch")
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, 1234.0, *seen)

	missing, err := store.LastSeen(ctx, "unseen")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCategoryScoresAbsentAreNil(t *testing.T) {
	store, _, _ := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCategory(ctx, "Sports", map[string]float64{"derby": 80}))
	require.NoError(t, store.UpsertCategory(ctx, "News", map[string]float64{"launch": 45}))

	grid, err := store.CategoryScores(ctx, []string{"derby", "launch"}, []string{"Sports", "News"})
	require.NoError(t, err)

	require.NotNil(t, grid["derby"]["Sports"])
	assert.Equal(t, 80.0, *grid["derby"]["Sports"])
	assert.Nil(t, grid["derby"]["News"])

	assert.Nil(t, grid["launch"]["Sports"])
	require.NotNil(t, grid["launch"]["News"])
	assert.Equal(t, 45.0, *grid["launch"]["News"])
}

func TestReplaceTrendingDropsOldMembers(t *testing.T) {
	store, _, client := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceTrending(ctx, "", []trend.RankedEntry{
		{Hashtag: "old", Score: 90},
		{Hashtag: "kept", Score: 80},
	}))
	require.NoError(t, store.ReplaceTrending(ctx, "", []trend.RankedEntry{
		{Hashtag: "kept", Score: 85},
		{Hashtag: "new", Score: 70},
	}))

	_, err := client.ZScore(ctx, "trending:global", "old").Result()
	assert.ErrorIs(t, err, redis.Nil)

	entries, err := store.Trending(ctx, "", 30)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, trend.RankedEntry{Hashtag: "kept", Score: 85}, entries[0])
	assert.Equal(t, trend.RankedEntry{Hashtag: "new", Score: 70}, entries[1])
}

func TestReplaceTrendingEmptyClearsList(t *testing.T) {
	store, _, _ := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceTrending(ctx, "Sports", []trend.RankedEntry{{Hashtag: "derby", Score: 50}}))
	require.NoError(t, store.ReplaceTrending(ctx, "Sports", nil))

	entries, err := store.Trending(ctx, "Sports", 30)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTrendingHonorsLimit(t *testing.T) {
	store, _, _ := newTestTrendStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceTrending(ctx, "", []trend.RankedEntry{
		{Hashtag: "a", Score: 30},
		{Hashtag: "b", Score: 20},
		{Hashtag: "c", Score: 10},
	}))

	entries, err := store.Trending(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Hashtag)
	assert.Equal(t, "b", entries[1].Hashtag)
}
