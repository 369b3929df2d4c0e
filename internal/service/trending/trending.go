// internal/service/trending/trending.go

// Package trending implements the trend detection and scoring engine:
// candidate tracking for inbound hashtag signals, the periodic ranked-list
// calculation, and the read path that serves trending lists.
package trending

import (
	"context"
	"time"

	"yapper/internal/domain/trend"
)

// Store defines the sorted-set state the engine keeps in the time-series
// store. All mutation is via atomic single-key or pipelined multi-key
// operations; the engine never does read-modify-write on a shared key.
type Store interface {
	// UpsertActive overwrites each member's score in the global
	// active-candidate set and refreshes the set's TTL.
	UpsertActive(ctx context.Context, members map[string]float64) error

	// UpsertCategory overwrites each member's affinity score in a
	// category's candidate set and refreshes that set's TTL.
	UpsertCategory(ctx context.Context, category string, members map[string]float64) error

	// IncrementBuckets increments the given occurrence bucket by one for
	// each hashtag and refreshes each series' TTL.
	IncrementBuckets(ctx context.Context, buckets map[string]int64) error

	// ActiveSince returns all hashtags whose last-seen score is at or
	// above min (epoch milliseconds).
	ActiveSince(ctx context.Context, min float64) ([]string, error)

	// Buckets returns a hashtag's full stored occurrence series in
	// chronological order.
	Buckets(ctx context.Context, hashtag string) ([]trend.Bucket, error)

	// LastSeen returns a hashtag's last-seen timestamp from the active
	// set, or nil when the hashtag is not a candidate.
	LastSeen(ctx context.Context, hashtag string) (*float64, error)

	// CategoryMembers returns a category's full candidate set as
	// hashtag -> affinity percent.
	CategoryMembers(ctx context.Context, category string) (map[string]float64, error)

	// CategoryScores reads the affinity score of every hashtag in every
	// category in one pipelined round trip. Absent scores are nil.
	CategoryScores(ctx context.Context, hashtags, categories []string) (map[string]map[string]*float64, error)

	// ReplaceTrending atomically replaces the ranked list for a category
	// ("" means global) with the given entries.
	ReplaceTrending(ctx context.Context, category string, entries []trend.RankedEntry) error

	// Trending returns up to limit entries of a ranked list in
	// descending score order.
	Trending(ctx context.Context, category string, limit int) ([]trend.RankedEntry, error)
}

// UsageLookup resolves persisted usage counts for normalized hashtag
// names. Hashtags without a persisted count are simply absent from the
// result.
type UsageLookup interface {
	UsageCounts(ctx context.Context, names []string) (map[string]int64, error)
}

// Config carries the engine's tunable weights and thresholds. It is
// immutable after construction; tests and environments override it via
// the constructor rather than package state.
type Config struct {
	// Categories is the ordered list of category identifiers. Order
	// matters: affinity ties resolve to the earliest category.
	Categories []string

	// FallbackCategory labels hashtags with no recorded affinity.
	FallbackCategory string

	// TopN caps every trending list.
	TopN int

	// CategoryThreshold is the minimum affinity percent (inclusive) for
	// a category candidate write.
	CategoryThreshold float64

	// CandidateTTL bounds how long candidate and occurrence state lives
	// after its last write.
	CandidateTTL time.Duration

	// ActiveWindow is how far back the calculator looks for active
	// candidates.
	ActiveWindow time.Duration

	// CalculationInterval is the wall-clock period between calculation
	// runs.
	CalculationInterval time.Duration

	// ScoreConcurrency bounds the per-hashtag scoring worker pool.
	// 1 reproduces a fully sequential pass.
	ScoreConcurrency int

	// VolumeWeight, AccelerationWeight and RecencyWeight combine the
	// sub-scores into the final hashtag score.
	VolumeWeight       float64
	AccelerationWeight float64
	RecencyWeight      float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Categories:          []string{"Sports", "News", "Entertainment"},
		FallbackCategory:    "Only on Yapper",
		TopN:                30,
		CategoryThreshold:   30,
		CandidateTTL:        time.Hour,
		ActiveWindow:        time.Hour,
		CalculationInterval: time.Hour,
		ScoreConcurrency:    8,
		VolumeWeight:        0.35,
		AccelerationWeight:  0.40,
		RecencyWeight:       0.25,
	}
}
