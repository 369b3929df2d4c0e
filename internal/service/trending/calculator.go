// internal/service/trending/calculator.go

package trending

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yapper/internal/domain/trend"
	"yapper/internal/metrics"
)

// Calculator is the scheduled job that recomputes the ranked trending
// lists. One pass reads all active candidates, scores each hashtag once,
// ranks globally, then re-ranks per category with the affinity boost and
// atomically replaces each list.
type Calculator struct {
	store    Store
	detector *MomentumDetector
	cfg      Config
	logger   zerolog.Logger

	// runGuard serializes calculation passes; an overlapping tick is
	// skipped rather than queued.
	runGuard sync.Mutex

	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCalculator creates a trend calculator.
func NewCalculator(store Store, detector *MomentumDetector, cfg Config, logger zerolog.Logger) *Calculator {
	return &Calculator{
		store:    store,
		detector: detector,
		cfg:      cfg,
		logger:   logger.With().Str("component", "calculator").Logger(),
		now:      time.Now,
	}
}

// Start begins the periodic calculation loop.
func (c *Calculator) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(c.cfg.CalculationInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Run(ctx); err != nil {
					if err == trend.ErrCalculationInProgress {
						c.logger.Warn().Msg("previous calculation still running, skipping tick")
						continue
					}
					c.logger.Error().Err(err).Msg("calculation run failed")
				}
			}
		}
	}()

	return nil
}

// Stop gracefully stops the calculation loop. A pass already in flight
// runs to completion or until the shutdown context expires.
func (c *Calculator) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes a single calculation pass. It returns
// trend.ErrCalculationInProgress when a previous pass is still active.
// A failure fetching the active candidates aborts the pass before any
// list is touched; later failures are scoped to a single hashtag or a
// single category.
func (c *Calculator) Run(ctx context.Context) error {
	if !c.runGuard.TryLock() {
		return trend.ErrCalculationInProgress
	}
	defer c.runGuard.Unlock()

	started := c.now()
	nowMs := started.UnixMilli()
	logger := c.logger.With().Str("run_id", uuid.New().String()).Logger()

	windowStart := nowMs - c.cfg.ActiveWindow.Milliseconds()
	candidates, err := c.store.ActiveSince(ctx, float64(windowStart))
	if err != nil {
		metrics.CalculationRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("fetching active candidates: %w", err)
	}

	base := c.scoreAll(ctx, logger, candidates, nowMs)

	entries := make([]trend.RankedEntry, 0, len(base))
	for hashtag, score := range base {
		entries = append(entries, trend.RankedEntry{Hashtag: hashtag, Score: score.Score})
	}
	entries = rankTop(entries, c.cfg.TopN)

	if err := c.store.ReplaceTrending(ctx, "", entries); err != nil {
		metrics.CalculationRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("replacing global trending list: %w", err)
	}
	metrics.TrendingListSize.WithLabelValues("global").Set(float64(len(entries)))

	for _, category := range c.cfg.Categories {
		if err := c.rankCategory(ctx, category, base); err != nil {
			// A failed category keeps its previous list for this cycle;
			// the remaining categories still execute.
			logger.Error().Err(err).Str("category", category).Msg("category ranking failed")
		}
	}

	elapsed := time.Since(started)
	metrics.CalculationRuns.WithLabelValues("ok").Inc()
	metrics.CalculationDuration.Observe(elapsed.Seconds())
	logger.Info().
		Int("candidates", len(candidates)).
		Int("scored", len(base)).
		Int("ranked", len(entries)).
		Dur("elapsed", elapsed).
		Msg("trend calculation complete")

	return nil
}

// scoreAll computes the base score for every candidate with a bounded
// worker pool. A failed or empty hashtag is excluded from the result;
// it never aborts the batch.
func (c *Calculator) scoreAll(ctx context.Context, logger zerolog.Logger, hashtags []string, nowMs int64) map[string]trend.HashtagScore {
	workers := c.cfg.ScoreConcurrency
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, workers)
		results = make(map[string]trend.HashtagScore, len(hashtags))
	)

	for _, hashtag := range hashtags {
		sem <- struct{}{}
		wg.Add(1)
		go func(hashtag string) {
			defer wg.Done()
			defer func() { <-sem }()

			score, err := c.scoreHashtag(ctx, hashtag, nowMs)
			if err != nil {
				logger.Error().Err(err).Str("hashtag", hashtag).Msg("scoring failed, excluding hashtag")
				return
			}
			if score == nil {
				return // no occurrence data this run
			}

			mu.Lock()
			results[hashtag] = *score
			mu.Unlock()
		}(hashtag)
	}
	wg.Wait()

	return results
}

// scoreHashtag computes one hashtag's composite score from its occurrence
// series, momentum and recency. A hashtag with zero stored buckets
// contributes nothing and returns (nil, nil).
func (c *Calculator) scoreHashtag(ctx context.Context, hashtag string, nowMs int64) (*trend.HashtagScore, error) {
	buckets, err := c.store.Buckets(ctx, hashtag)
	if err != nil {
		return nil, fmt.Errorf("reading occurrence buckets: %w", err)
	}
	if len(buckets) == 0 {
		return nil, nil
	}

	var total float64
	for _, b := range buckets {
		total += b.Count
	}
	volume := math.Min(100, math.Log10(total+1)*20)

	acceleration := c.detector.Score(buckets)

	lastSeen, err := c.store.LastSeen(ctx, hashtag)
	if err != nil {
		return nil, fmt.Errorf("reading last-seen timestamp: %w", err)
	}

	var recency float64
	var lastSeenMs int64
	if lastSeen != nil {
		lastSeenMs = int64(*lastSeen)
		minutesAgo := float64(nowMs-lastSeenMs) / 60_000
		if minutesAgo <= 1 {
			recency = 100
		} else {
			recency = math.Max(0, 100-minutesAgo/60*100)
		}
	}

	final := c.cfg.VolumeWeight*volume + c.cfg.AccelerationWeight*acceleration + c.cfg.RecencyWeight*recency

	return &trend.HashtagScore{
		Hashtag:      hashtag,
		Score:        final,
		Volume:       volume,
		Acceleration: acceleration,
		Recency:      recency,
		LastSeen:     lastSeenMs,
	}, nil
}

// rankCategory boosts the base scores of a category's candidates by
// their affinity and replaces that category's trending list. Hashtags
// without a base score this run are excluded.
func (c *Calculator) rankCategory(ctx context.Context, category string, base map[string]trend.HashtagScore) error {
	members, err := c.store.CategoryMembers(ctx, category)
	if err != nil {
		return fmt.Errorf("fetching %s candidates: %w", category, err)
	}

	entries := make([]trend.RankedEntry, 0, len(members))
	for hashtag, percent := range members {
		score, ok := base[hashtag]
		if !ok {
			continue
		}
		entries = append(entries, trend.RankedEntry{
			Hashtag: hashtag,
			Score:   score.Score * (1 + percent/100),
		})
	}
	entries = rankTop(entries, c.cfg.TopN)

	if err := c.store.ReplaceTrending(ctx, category, entries); err != nil {
		return fmt.Errorf("replacing %s trending list: %w", category, err)
	}
	metrics.TrendingListSize.WithLabelValues(category).Set(float64(len(entries)))

	return nil
}

// rankTop sorts entries by score descending, hashtag ascending on equal
// scores, and truncates to n.
func rankTop(entries []trend.RankedEntry, n int) []trend.RankedEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Hashtag < entries[j].Hashtag
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
