package trend

import "math"

// BucketWidthMs is the width of one occurrence bucket in milliseconds.
// Occurrence counts are aggregated into 5-minute windows keyed by the
// bucket's start timestamp.
const BucketWidthMs int64 = 5 * 60 * 1000

// BucketFor returns the bucket start timestamp for an event timestamp
// (epoch milliseconds). The result is always a multiple of BucketWidthMs
// and never exceeds the input.
func BucketFor(timestampMs int64) int64 {
	return timestampMs / BucketWidthMs * BucketWidthMs
}

// Bucket is one aggregated occurrence count for a hashtag within a
// 5-minute window.
type Bucket struct {
	Timestamp int64   // bucket start, epoch milliseconds
	Count     float64 // cumulative occurrences within the bucket
}

// Confidence labels how much the momentum fit can be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// MomentumResult is the full output of one momentum computation.
// Score is the raw 0-100 scalar consumed by ranking; the diagnostic
// fields (GrowthRate, RSquared, DoubleTime, PredictedNext) are rounded
// for display.
type MomentumResult struct {
	Score           float64
	Confidence      Confidence
	CurrentVelocity float64
	AverageVelocity float64
	Acceleration    float64
	IsAccelerating  bool
	GrowthRate      float64
	RSquared        float64
	DoubleTime      float64
	IsExponential   bool
	PredictedNext   float64
	DataPoints      int
}

// EmptyMomentumResult is the well-defined result for series with fewer
// than two buckets.
func EmptyMomentumResult(dataPoints int) MomentumResult {
	return MomentumResult{
		Confidence: ConfidenceLow,
		DoubleTime: math.Inf(1),
		DataPoints: dataPoints,
	}
}

// HashtagScore holds the composite score for one hashtag within a single
// calculation run. It is never persisted; the calculator keeps it in
// memory so category passes can reuse the base score without repeating
// the curve fit.
type HashtagScore struct {
	Hashtag      string
	Score        float64
	Volume       float64
	Acceleration float64
	Recency      float64
	LastSeen     int64
}

// RankedEntry is one member of a trending list.
type RankedEntry struct {
	Hashtag string
	Score   float64
}

// Item is one row of a resolved trending list as served to callers.
type Item struct {
	Text        string `json:"text"`
	PostsCount  int64  `json:"posts_count"`
	TrendRank   int    `json:"trend_rank"`
	Category    string `json:"category"`
	ReferenceID string `json:"reference_id"`
}

// Signal is the per-tweet payload delivered by the upstream hashtag
// extraction pipeline: hashtag -> category -> affinity percent, plus the
// event timestamp in epoch milliseconds.
type Signal struct {
	Hashtags  map[string]map[string]float64 `json:"hashtags"`
	Timestamp int64                         `json:"timestamp"`
}
