// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Trend       TrendConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// RedisConfig holds time-series store configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// TrendConfig holds trend engine configuration
type TrendConfig struct {
	Categories          []string
	FallbackCategory    string
	TopN                int
	CategoryThreshold   float64
	CandidateTTL        time.Duration
	ActiveWindow        time.Duration
	CalculationInterval time.Duration
	ScoreConcurrency    int
	VolumeWeight        float64
	AccelerationWeight  float64
	RecencyWeight       float64
	SignalSubject       string
	SignalQueueGroup    string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "yapper"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Trend: TrendConfig{
			Categories:          getEnvAsSlice("TREND_CATEGORIES", []string{"Sports", "News", "Entertainment"}),
			FallbackCategory:    getEnv("TREND_FALLBACK_CATEGORY", "Only on Yapper"),
			TopN:                getEnvAsInt("TREND_TOP_N", 30),
			CategoryThreshold:   getEnvAsFloat("TREND_CATEGORY_THRESHOLD", 30.0),
			CandidateTTL:        getEnvAsDuration("TREND_CANDIDATE_TTL", 1*time.Hour),
			ActiveWindow:        getEnvAsDuration("TREND_ACTIVE_WINDOW", 1*time.Hour),
			CalculationInterval: getEnvAsDuration("TREND_CALCULATION_INTERVAL", 1*time.Hour),
			ScoreConcurrency:    getEnvAsInt("TREND_SCORE_CONCURRENCY", 8),
			VolumeWeight:        getEnvAsFloat("TREND_VOLUME_WEIGHT", 0.35),
			AccelerationWeight:  getEnvAsFloat("TREND_ACCELERATION_WEIGHT", 0.40),
			RecencyWeight:       getEnvAsFloat("TREND_RECENCY_WEIGHT", 0.25),
			SignalSubject:       getEnv("TREND_SIGNAL_SUBJECT", "tweets.hashtags"),
			SignalQueueGroup:    getEnv("TREND_SIGNAL_QUEUE_GROUP", "trend-engine"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Trend.TopN < 1 {
		return fmt.Errorf("TREND_TOP_N must be at least 1")
	}
	if len(config.Trend.Categories) == 0 {
		return fmt.Errorf("TREND_CATEGORIES must name at least one category")
	}
	if config.Trend.CalculationInterval <= 0 {
		return fmt.Errorf("TREND_CALCULATION_INTERVAL must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
