// internal/service/trending/momentum.go

package trending

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"yapper/internal/domain/trend"
)

// MomentumConfig tunes the momentum detector.
type MomentumConfig struct {
	// VelocityNorm is the velocity (counts/minute) at which the velocity
	// sub-score saturates at 100.
	VelocityNorm float64

	// GrowthNorm is the exponential growth rate at which the growth
	// sub-score saturates at 100.
	GrowthNorm float64

	// VelocityWeight, GrowthWeight and FitWeight combine the sub-scores.
	VelocityWeight float64
	GrowthWeight   float64
	FitWeight      float64

	// AccelerationBonus is the flat score bonus applied while the
	// velocity series is accelerating.
	AccelerationBonus float64

	// MinExponentialGrowth and MinExponentialR2 gate the is-exponential
	// label.
	MinExponentialGrowth float64
	MinExponentialR2     float64

	// HighConfidenceR2 and MediumConfidenceR2 are the fit-quality floors
	// for the HIGH and MEDIUM confidence labels.
	HighConfidenceR2   float64
	MediumConfidenceR2 float64
}

// DefaultMomentumConfig returns the production defaults.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		VelocityNorm:         30,
		GrowthNorm:           0.2,
		VelocityWeight:       0.4,
		GrowthWeight:         0.4,
		FitWeight:            0.2,
		AccelerationBonus:    10,
		MinExponentialGrowth: 0.1,
		MinExponentialR2:     0.7,
		HighConfidenceR2:     0.85,
		MediumConfidenceR2:   0.7,
	}
}

// MomentumDetector reduces a hashtag's occurrence-bucket series to a
// 0-100 momentum score with a confidence label. It is stateless and safe
// for concurrent use.
type MomentumDetector struct {
	cfg MomentumConfig
}

// NewMomentumDetector creates a momentum detector.
func NewMomentumDetector(cfg MomentumConfig) *MomentumDetector {
	return &MomentumDetector{cfg: cfg}
}

// Score returns just the 0-100 momentum scalar for a bucket series.
func (d *MomentumDetector) Score(buckets []trend.Bucket) float64 {
	return d.Compute(buckets).Score
}

// Compute derives velocity, acceleration and exponential-fit signals from
// an unordered bucket series and combines them into a momentum result.
// It never panics for well-formed numeric input; series with fewer than
// two buckets yield the empty result.
func (d *MomentumDetector) Compute(buckets []trend.Bucket) trend.MomentumResult {
	if len(buckets) < 2 {
		return trend.EmptyMomentumResult(len(buckets))
	}

	series := make([]trend.Bucket, len(buckets))
	copy(series, buckets)
	sort.Slice(series, func(i, j int) bool { return series[i].Timestamp < series[j].Timestamp })

	velocities := velocitySeries(series)
	current := velocities[len(velocities)-1]
	average := mean(velocities)
	acceleration := recentAcceleration(velocities)
	isAccelerating := acceleration > 0 && current > average

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, b := range series {
		xs[i] = float64(b.Timestamp-series[0].Timestamp) / 60_000 // minutes since first bucket
		ys[i] = b.Count
	}

	fit := fitExponential(xs, ys)
	if !fit.ok {
		fit = fitLinear(xs, ys)
	}

	doubleTime := math.Inf(1)
	if fit.growth > 0 {
		doubleTime = math.Ln2 / fit.growth
	}
	isExponential := fit.growth >= d.cfg.MinExponentialGrowth && fit.r2 >= d.cfg.MinExponentialR2

	velocityScore := math.Min(100, current/d.cfg.VelocityNorm*100)
	growthScore := 0.0
	if fit.growth > 0 {
		growthScore = math.Min(100, fit.growth/d.cfg.GrowthNorm*100)
	}
	fitScore := fit.r2 * 100

	score := d.cfg.VelocityWeight*velocityScore + d.cfg.GrowthWeight*growthScore + d.cfg.FitWeight*fitScore
	if isAccelerating {
		score += d.cfg.AccelerationBonus
	}
	score = clamp(score, 0, 100)

	confidence := trend.ConfidenceLow
	switch {
	case len(series) < 3:
		confidence = trend.ConfidenceLow
	case fit.r2 >= d.cfg.HighConfidenceR2:
		confidence = trend.ConfidenceHigh
	case fit.r2 >= d.cfg.MediumConfidenceR2:
		confidence = trend.ConfidenceMedium
	}

	predicted := fit.predict(xs[len(xs)-1] + float64(trend.BucketWidthMs)/60_000)

	return trend.MomentumResult{
		Score:           score,
		Confidence:      confidence,
		CurrentVelocity: current,
		AverageVelocity: average,
		Acceleration:    acceleration,
		IsAccelerating:  isAccelerating,
		GrowthRate:      round(fit.growth, 4),
		RSquared:        round(fit.r2, 4),
		DoubleTime:      round(doubleTime, 2),
		IsExponential:   isExponential,
		PredictedNext:   math.Round(predicted),
		DataPoints:      len(series),
	}
}

// velocitySeries computes per-minute count deltas between consecutive
// buckets. A zero time delta yields velocity 0.
func velocitySeries(series []trend.Bucket) []float64 {
	velocities := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		dtMinutes := float64(series[i].Timestamp-series[i-1].Timestamp) / 60_000
		if dtMinutes == 0 {
			velocities = append(velocities, 0)
			continue
		}
		velocities = append(velocities, (series[i].Count-series[i-1].Count)/dtMinutes)
	}
	return velocities
}

// recentAcceleration is the mean delta between the last up-to-3
// velocities; fewer than two velocities yield 0.
func recentAcceleration(velocities []float64) float64 {
	tail := velocities
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	if len(tail) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(tail); i++ {
		sum += tail[i] - tail[i-1]
	}
	return sum / float64(len(tail)-1)
}

// curveFit is the outcome of one regression pass. predict evaluates the
// fitted curve at x (minutes since the first bucket).
type curveFit struct {
	growth  float64
	r2      float64
	predict func(x float64) float64
	ok      bool
}

// fitExponential fits y = a*e^(b*x) by least squares over the
// log-linearized series. It requires strictly positive counts; any other
// input reports ok=false so the caller can fall back to a linear fit.
// R-squared is computed in the original space; a zero-variance series
// reports 0.
func fitExponential(xs, ys []float64) curveFit {
	logs := make([]float64, len(ys))
	for i, y := range ys {
		if y <= 0 {
			return curveFit{}
		}
		logs[i] = math.Log(y)
	}

	alpha, beta := stat.LinearRegression(xs, logs, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return curveFit{}
	}

	a := math.Exp(alpha)
	predict := func(x float64) float64 { return a * math.Exp(beta*x) }

	return curveFit{
		growth:  beta,
		r2:      rSquared(xs, ys, predict),
		predict: predict,
		ok:      true,
	}
}

// fitLinear fits y = alpha + beta*x and uses the slope as the growth-rate
// proxy.
func fitLinear(xs, ys []float64) curveFit {
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return curveFit{predict: func(float64) float64 { return 0 }}
	}

	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if math.IsNaN(r2) || r2 < 0 {
		r2 = 0
	}

	return curveFit{
		growth:  beta,
		r2:      r2,
		predict: func(x float64) float64 { return alpha + beta*x },
		ok:      true,
	}
}

func rSquared(xs, ys []float64, predict func(float64) float64) float64 {
	m := mean(ys)
	var ssRes, ssTot float64
	for i, x := range xs {
		d := ys[i] - predict(x)
		ssRes += d * d
		t := ys[i] - m
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if math.IsNaN(r2) || r2 < 0 {
		return 0
	}
	return r2
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round(x float64, places int) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
