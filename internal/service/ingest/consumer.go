// internal/service/ingest/consumer.go

// Package ingest consumes per-tweet hashtag signals from the event bus
// and feeds them to the candidate tracker.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"yapper/internal/domain/trend"
)

// ConsumerConfig contains configuration for the signal consumer.
type ConsumerConfig struct {
	Subject     string
	QueueGroup  string
	HandlerWait time.Duration
}

// Consumer subscribes to the hashtag-signal subject and records each
// payload through the tracker. Malformed payloads are dropped; store
// failures are logged and the message is not retried here, redelivery
// policy belongs to the producing pipeline.
type Consumer struct {
	conn    *nats.Conn
	tracker trend.Tracker
	cfg     ConsumerConfig
	logger  zerolog.Logger
	sub     *nats.Subscription
}

// NewConsumer creates a signal consumer.
func NewConsumer(conn *nats.Conn, tracker trend.Tracker, cfg ConsumerConfig, logger zerolog.Logger) *Consumer {
	if cfg.HandlerWait <= 0 {
		cfg.HandlerWait = 5 * time.Second
	}
	return &Consumer{
		conn:    conn,
		tracker: tracker,
		cfg:     cfg,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// Start subscribes to the signal subject. Instances sharing a queue
// group split the stream between them.
func (c *Consumer) Start(ctx context.Context) error {
	sub, err := c.conn.QueueSubscribe(c.cfg.Subject, c.cfg.QueueGroup, c.handle)
	if err != nil {
		return err
	}
	c.sub = sub
	c.logger.Info().Str("subject", c.cfg.Subject).Msg("signal consumer started")
	return nil
}

// Stop drains the subscription, letting in-flight handlers finish.
func (c *Consumer) Stop() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Drain()
}

func (c *Consumer) handle(msg *nats.Msg) {
	var sig trend.Signal
	if err := json.Unmarshal(msg.Data, &sig); err != nil {
		c.logger.Error().Err(err).Msg("dropping malformed signal payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandlerWait)
	defer cancel()

	if err := c.tracker.Track(ctx, sig); err != nil {
		c.logger.Error().Err(err).Int64("timestamp", sig.Timestamp).Msg("tracking signal failed")
	}
}
