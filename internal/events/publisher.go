// Package events publishes transcript events to Kafka so a streaming
// session can feed downstream consumers. Publishing is optional: when
// disabled the publisher degrades to debug logging only.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"transcribe-cli/internal/observability/metrics"
)

// Config holds Kafka publisher settings.
type Config struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Principal    string
}

// Publisher writes partial and final transcript events to separate
// topics, keyed by session ID so one session stays on one partition.
type Publisher struct {
	writers   map[string]*kafka.Writer // keyed by topic
	principal string
	partial   string
	final     string
	enabled   bool
	metrics   *metrics.Metrics
}

// New creates a publisher. A nil or disabled config, or an empty broker
// list, yields a log-only publisher.
func New(cfg *Config) *Publisher {
	p := &Publisher{
		writers: make(map[string]*kafka.Writer),
		metrics: metrics.Default,
	}
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Debug().Msg("Kafka publishing disabled")
		if cfg != nil {
			p.principal = cfg.Principal
			p.partial = cfg.TopicPartial
			p.final = cfg.TopicFinal
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{Dial: dialer.DialFunc}

	for _, topic := range []string{cfg.TopicPartial, cfg.TopicFinal} {
		p.writers[topic] = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	p.principal = cfg.Principal
	p.partial = cfg.TopicPartial
	p.final = cfg.TopicFinal
	p.enabled = true

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPartial", cfg.TopicPartial).
		Str("topicFinal", cfg.TopicFinal).
		Msg("Kafka publisher initialized")
	return p
}

// PublishPartial publishes a partial transcript event.
func (p *Publisher) PublishPartial(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.partial, key, event)
}

// PublishFinal publishes a final transcript event.
func (p *Publisher) PublishFinal(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.final, key, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	writer := p.writers[topic]
	if !p.enabled || writer == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	err = writer.WriteMessages(ctx, msg)
	p.metrics.RecordKafkaPublish(topic, err, time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Str("key", key).Msg("Failed to write to Kafka")
		return err
	}
	return nil
}

// Close closes all writers.
func (p *Publisher) Close() error {
	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Error closing Kafka writer")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
