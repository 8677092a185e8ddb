package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"eazybet-backend/internal/config"
)

// Publisher writes domain events to Kafka. A nil Publisher is valid and
// drops everything, so callers never need to branch on configuration.
type Publisher struct {
	placed      *kafka.Writer
	settled     *kafka.Writer
	conversions *kafka.Writer
}

func newWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// NewPublisher creates a Publisher from config. Returns nil when
// publishing is not configured.
func NewPublisher(cfg *config.KafkaConfig) *Publisher {
	if !cfg.Enabled() {
		return nil
	}
	return &Publisher{
		placed:      newWriter(cfg.Brokers, cfg.TopicBetPlaced),
		settled:     newWriter(cfg.Brokers, cfg.TopicBetSettled),
		conversions: newWriter(cfg.Brokers, cfg.TopicConversions),
	}
}

// Close flushes and closes the underlying writers.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	for _, w := range []*kafka.Writer{p.placed, p.settled, p.conversions} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) write(ctx context.Context, w *kafka.Writer, key string, payload any) {
	if p == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal event payload")
		return
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		log.Warn().Err(err).Str("topic", w.Topic).Msg("Failed to publish event")
	}
}

// PublishBetPlaced emits a BetPlaced event keyed by account.
func (p *Publisher) PublishBetPlaced(ctx context.Context, e BetPlaced) {
	if p == nil {
		return
	}
	e.TsUnixMs = nowMs()
	p.write(ctx, p.placed, e.AccountID, e)
}

// PublishBetSettled emits a BetSettled event keyed by account.
func (p *Publisher) PublishBetSettled(ctx context.Context, e BetSettled) {
	if p == nil {
		return
	}
	e.TsUnixMs = nowMs()
	p.write(ctx, p.settled, e.AccountID, e)
}

// PublishConversion emits a Conversion event keyed by account.
func (p *Publisher) PublishConversion(ctx context.Context, e Conversion) {
	if p == nil {
		return
	}
	e.TsUnixMs = nowMs()
	p.write(ctx, p.conversions, e.AccountID, e)
}
