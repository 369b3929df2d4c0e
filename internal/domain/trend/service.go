// internal/domain/trend/service.go

package trend

import (
	"context"
	"errors"
)

// ErrCalculationInProgress is returned by Calculator.Run when a previous
// calculation pass has not finished yet.
var ErrCalculationInProgress = errors.New("trend calculation already in progress")

// Tracker records per-tweet hashtag signals into the candidate state.
type Tracker interface {
	// RecordActive upserts each hashtag's last-seen timestamp in the
	// global active-candidate set.
	RecordActive(ctx context.Context, hashtags []string, timestampMs int64) error

	// RecordCategories upserts category-affinity scores for every
	// (hashtag, category, percent) triple at or above the configured
	// threshold. Triples below threshold are skipped silently.
	RecordCategories(ctx context.Context, signals map[string]map[string]float64) error

	// RecordOccurrences increments each hashtag's current 5-minute
	// occurrence bucket by one.
	RecordOccurrences(ctx context.Context, hashtags []string, timestampMs int64) error

	// Track applies all three record operations for one inbound signal.
	Track(ctx context.Context, sig Signal) error
}

// Calculator runs the periodic trend recomputation pass.
type Calculator interface {
	// Start begins the scheduled calculation loop.
	Start(ctx context.Context) error

	// Stop gracefully stops the calculation loop.
	Stop(ctx context.Context) error

	// Run executes a single calculation pass. It returns
	// ErrCalculationInProgress when a previous pass is still active.
	Run(ctx context.Context) error
}

// Query serves ranked trending lists.
type Query interface {
	// GetTrending resolves the ranked list for a category ("" means
	// global) into a bounded, ordered, enriched result set. An empty
	// list is a valid zero-length result.
	GetTrending(ctx context.Context, category string, limit int) ([]Item, error)

	// HashtagCategories resolves the best-matching category label per
	// hashtag. Hashtags with no recorded affinity anywhere map to the
	// configured fallback label, as does every hashtag when the batch
	// read fails.
	HashtagCategories(ctx context.Context, hashtags []string) map[string]string
}
