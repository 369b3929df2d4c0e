// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"yapper/internal/adapter/storage"
	"yapper/internal/config"
	"yapper/internal/server"
	"yapper/internal/service/ingest"
	"yapper/internal/service/trending"
)

func main() {
	// Load .env if present, then configuration from the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	natsConn, err := initNATS(cfg.NATS, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer natsConn.Close()

	// Initialize storage adapters
	trendStore := storage.NewTrendStore(redisClient, cfg.Trend.CandidateTTL)
	usageStore := storage.NewUsageStore(db)

	// Initialize the trend engine
	engineCfg := trendingConfig(cfg.Trend)
	detector := trending.NewMomentumDetector(trending.DefaultMomentumConfig())
	tracker := trending.NewTracker(trendStore, engineCfg, logger)
	calculator := trending.NewCalculator(trendStore, detector, engineCfg, logger)
	query := trending.NewQuery(trendStore, usageStore, engineCfg, logger)

	// Initialize the signal consumer
	consumer := ingest.NewConsumer(natsConn, tracker, ingest.ConsumerConfig{
		Subject:    cfg.Trend.SignalSubject,
		QueueGroup: cfg.Trend.SignalQueueGroup,
	}, logger)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start signal consumer")
	}

	// Start the scheduled calculation loop
	if err := calculator.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start trend calculator")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, query, calculator, logger)

	// Start HTTP server
	go func() {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info().Msg("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := consumer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Signal consumer shutdown error")
	}

	if err := calculator.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Trend calculator shutdown error")
	}

	logger.Info().Msg("Shutdown complete")
}

// Initialize the process logger
func initLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger()
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize the time-series store client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	return client, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger zerolog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

// Map the config section onto the engine's immutable config
func trendingConfig(cfg config.TrendConfig) trending.Config {
	return trending.Config{
		Categories:          cfg.Categories,
		FallbackCategory:    cfg.FallbackCategory,
		TopN:                cfg.TopN,
		CategoryThreshold:   cfg.CategoryThreshold,
		CandidateTTL:        cfg.CandidateTTL,
		ActiveWindow:        cfg.ActiveWindow,
		CalculationInterval: cfg.CalculationInterval,
		ScoreConcurrency:    cfg.ScoreConcurrency,
		VolumeWeight:        cfg.VolumeWeight,
		AccelerationWeight:  cfg.AccelerationWeight,
		RecencyWeight:       cfg.RecencyWeight,
	}
}
