// internal/service/trending/tracker.go

package trending

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"yapper/internal/domain/trend"
	"yapper/internal/metrics"
)

// Tracker records per-tweet hashtag signals into the candidate state.
// Its operations are safe under arbitrary interleaving across different
// hashtags; same-hashtag interleaving relies on the store's atomic
// upsert/increment primitives. Store errors propagate to the caller,
// which owns retry policy.
type Tracker struct {
	store  Store
	cfg    Config
	logger zerolog.Logger
}

// NewTracker creates a candidate tracker.
func NewTracker(store Store, cfg Config, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "tracker").Logger(),
	}
}

// RecordActive upserts each hashtag's last-seen timestamp in the global
// active-candidate set. Re-recording overwrites the score; it is not
// additive.
func (t *Tracker) RecordActive(ctx context.Context, hashtags []string, timestampMs int64) error {
	if len(hashtags) == 0 {
		return nil
	}

	members := make(map[string]float64, len(hashtags))
	for _, h := range hashtags {
		members[h] = float64(timestampMs)
	}

	if err := t.store.UpsertActive(ctx, members); err != nil {
		return fmt.Errorf("recording active candidates: %w", err)
	}
	return nil
}

// RecordCategories upserts category-affinity scores for every triple at
// or above the configured threshold. Triples below threshold are skipped
// silently. Writes are grouped into one batch per category.
func (t *Tracker) RecordCategories(ctx context.Context, signals map[string]map[string]float64) error {
	perCategory := make(map[string]map[string]float64)
	for hashtag, categories := range signals {
		for category, percent := range categories {
			if percent < t.cfg.CategoryThreshold {
				continue
			}
			members := perCategory[category]
			if members == nil {
				members = make(map[string]float64)
				perCategory[category] = members
			}
			members[hashtag] = percent
		}
	}

	for category, members := range perCategory {
		if err := t.store.UpsertCategory(ctx, category, members); err != nil {
			return fmt.Errorf("recording %s candidates: %w", category, err)
		}
	}
	return nil
}

// RecordOccurrences increments each hashtag's current occurrence bucket
// by one.
func (t *Tracker) RecordOccurrences(ctx context.Context, hashtags []string, timestampMs int64) error {
	if len(hashtags) == 0 {
		return nil
	}

	bucket := trend.BucketFor(timestampMs)
	buckets := make(map[string]int64, len(hashtags))
	for _, h := range hashtags {
		buckets[h] = bucket
	}

	if err := t.store.IncrementBuckets(ctx, buckets); err != nil {
		return fmt.Errorf("incrementing occurrence buckets: %w", err)
	}
	return nil
}

// Track applies all three record operations for one inbound signal.
func (t *Tracker) Track(ctx context.Context, sig trend.Signal) error {
	if len(sig.Hashtags) == 0 {
		return nil
	}

	hashtags := make([]string, 0, len(sig.Hashtags))
	for h := range sig.Hashtags {
		hashtags = append(hashtags, h)
	}

	if err := t.RecordActive(ctx, hashtags, sig.Timestamp); err != nil {
		metrics.SignalsTracked.WithLabelValues("error").Inc()
		return err
	}
	if err := t.RecordCategories(ctx, sig.Hashtags); err != nil {
		metrics.SignalsTracked.WithLabelValues("error").Inc()
		return err
	}
	if err := t.RecordOccurrences(ctx, hashtags, sig.Timestamp); err != nil {
		metrics.SignalsTracked.WithLabelValues("error").Inc()
		return err
	}

	metrics.SignalsTracked.WithLabelValues("ok").Inc()
	t.logger.Debug().Int("hashtags", len(hashtags)).Int64("timestamp", sig.Timestamp).Msg("signal tracked")
	return nil
}
