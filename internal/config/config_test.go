// internal/config/config_test.go

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)

	assert.Equal(t, []string{"Sports", "News", "Entertainment"}, cfg.Trend.Categories)
	assert.Equal(t, "Only on Yapper", cfg.Trend.FallbackCategory)
	assert.Equal(t, 30, cfg.Trend.TopN)
	assert.Equal(t, 30.0, cfg.Trend.CategoryThreshold)
	assert.Equal(t, time.Hour, cfg.Trend.CandidateTTL)
	assert.Equal(t, time.Hour, cfg.Trend.CalculationInterval)
	assert.Equal(t, 0.35, cfg.Trend.VolumeWeight)
	assert.Equal(t, 0.40, cfg.Trend.AccelerationWeight)
	assert.Equal(t, 0.25, cfg.Trend.RecencyWeight)
	assert.Equal(t, "tweets.hashtags", cfg.Trend.SignalSubject)
	assert.Equal(t, "trend-engine", cfg.Trend.SignalQueueGroup)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TREND_CATEGORIES", "Tech,Music")
	t.Setenv("TREND_TOP_N", "10")
	t.Setenv("TREND_CALCULATION_INTERVAL", "15m")
	t.Setenv("TREND_VOLUME_WEIGHT", "0.5")
	t.Setenv("REDIS_ADDR", "cache:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"Tech", "Music"}, cfg.Trend.Categories)
	assert.Equal(t, 10, cfg.Trend.TopN)
	assert.Equal(t, 15*time.Minute, cfg.Trend.CalculationInterval)
	assert.Equal(t, 0.5, cfg.Trend.VolumeWeight)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("TREND_CALCULATION_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Trend.CalculationInterval)
}

func TestValidateTopN(t *testing.T) {
	t.Setenv("TREND_TOP_N", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "TREND_TOP_N")
}

func TestValidateCalculationInterval(t *testing.T) {
	t.Setenv("TREND_CALCULATION_INTERVAL", "-1h")

	_, err := Load()
	assert.ErrorContains(t, err, "TREND_CALCULATION_INTERVAL")
}
