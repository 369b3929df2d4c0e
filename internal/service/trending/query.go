// internal/service/trending/query.go

package trending

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"yapper/internal/domain/trend"
)

// Query is the read path for trending lists. It never fails for normal
// "no data" conditions; an empty list is a valid zero-length result.
type Query struct {
	store  Store
	usage  UsageLookup
	cfg    Config
	logger zerolog.Logger
}

// NewQuery creates a trend query service.
func NewQuery(store Store, usage UsageLookup, cfg Config, logger zerolog.Logger) *Query {
	return &Query{
		store:  store,
		usage:  usage,
		cfg:    cfg,
		logger: logger.With().Str("component", "trend_query").Logger(),
	}
}

// GetTrending resolves the ranked list for a category ("" means global)
// into an ordered result set enriched with usage counts and category
// labels. The sorted set's descending order is preserved exactly; limit
// is clamped to [1, TopN] with TopN as the default.
func (q *Query) GetTrending(ctx context.Context, category string, limit int) ([]trend.Item, error) {
	if limit < 1 || limit > q.cfg.TopN {
		limit = q.cfg.TopN
	}

	entries, err := q.store.Trending(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching trending list: %w", err)
	}

	items := make([]trend.Item, 0, len(entries))
	if len(entries) == 0 {
		return items, nil
	}

	hashtags := make([]string, len(entries))
	names := make([]string, len(entries))
	for i, e := range entries {
		hashtags[i] = e.Hashtag
		names[i] = strings.ToLower(e.Hashtag)
	}

	counts, err := q.usage.UsageCounts(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("fetching usage counts: %w", err)
	}

	labels := q.HashtagCategories(ctx, hashtags)

	for i, e := range entries {
		items = append(items, trend.Item{
			Text:        "#" + e.Hashtag,
			PostsCount:  counts[names[i]],
			TrendRank:   i + 1,
			Category:    labels[e.Hashtag],
			ReferenceID: names[i],
		})
	}

	return items, nil
}

// HashtagCategories resolves the best-matching category label per
// hashtag: the configured category with the highest recorded affinity,
// ties going to the earliest category. Absent scores never win. When the
// batch read fails entirely every hashtag maps to the fallback label.
func (q *Query) HashtagCategories(ctx context.Context, hashtags []string) map[string]string {
	labels := make(map[string]string, len(hashtags))
	for _, h := range hashtags {
		labels[h] = q.cfg.FallbackCategory
	}

	grid, err := q.store.CategoryScores(ctx, hashtags, q.cfg.Categories)
	if err != nil {
		q.logger.Error().Err(err).Msg("category score lookup failed, using fallback label")
		return labels
	}

	for _, hashtag := range hashtags {
		scores := grid[hashtag]
		var best *float64
		for _, category := range q.cfg.Categories {
			score := scores[category]
			if score == nil {
				continue
			}
			if best == nil || *score > *best {
				best = score
				labels[hashtag] = category
			}
		}
	}

	return labels
}
