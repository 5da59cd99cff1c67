// Package claimsink publishes labelled claims to a Kafka topic so downstream
// consumers can pick up the structured record without polling the API.
// Publishing is optional; with no brokers configured a Nop publisher is used.
package claimsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/fd-guo/ChatGeoPT/internal/ai"
	"github.com/fd-guo/ChatGeoPT/internal/observability"
)

// LabelledClaim is the message body written for every labelled claim.
type LabelledClaim struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Record      ai.ClaimRecord `json:"record"`
	Located     bool           `json:"located"`
	Lat         float64        `json:"lat,omitempty"`
	Lon         float64        `json:"lon,omitempty"`
	LabelledAt  time.Time      `json:"labelled_at"`
}

// Publisher sends labelled claims somewhere.
type Publisher interface {
	Publish(ctx context.Context, claim LabelledClaim) error
	Close() error
}

// Nop discards every claim.
type Nop struct{}

func (Nop) Publish(context.Context, LabelledClaim) error { return nil }
func (Nop) Close() error                                 { return nil }

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher produces LabelledClaim messages to one topic.
type KafkaPublisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// publishBatchTimeout bounds how long a write waits for a batch to fill.
// Claims are published one per request, so the writer flushes each message
// on its own rather than waiting out kafka-go's one-second default.
const publishBatchTimeout = 10 * time.Millisecond

// NewKafkaPublisher creates a Kafka producer for topic.
func NewKafkaPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    1,
		BatchTimeout: publishBatchTimeout,
	}
	return &KafkaPublisher{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes claim and writes it keyed by its ID.
func (p *KafkaPublisher) Publish(ctx context.Context, claim LabelledClaim) error {
	msg, err := serializeToMessage(claim)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, msg)
	if p.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		p.metrics.ClaimsPublished.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return fmt.Errorf("claimsink: write message: %w", err)
	}
	p.logger.Debug("claimsink: claim published", "id", claim.ID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a LabelledClaim into a Kafka message.
func serializeToMessage(claim LabelledClaim) (kafkago.Message, error) {
	data, err := json.Marshal(claim)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize labelled claim: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(claim.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity_level", Value: []byte(claim.Record.SeverityLevel)},
			{Key: "labelled_at", Value: []byte(claim.LabelledAt.Format(time.RFC3339))},
		},
	}, nil
}
