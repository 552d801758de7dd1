package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"produce-auction/utils"

	"github.com/segmentio/kafka-go"
)

// Notifier delivers auction events to bidders
type Notifier interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// LogNotifier writes events to the structured log. Used when no broker is configured.
type LogNotifier struct{}

// Publish logs evt
func (LogNotifier) Publish(_ context.Context, evt Event) error {
	if err := evt.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	utils.Info("auction event", map[string]any{
		"type":       evt.Type,
		"auction_id": evt.AuctionID,
		"status":     evt.Status,
		"recipients": evt.Recipients,
		"amount":     evt.Amount,
	})
	return nil
}

// Close is a no-op
func (LogNotifier) Close() error { return nil }

// messageWriter is the part of *kafka.Writer the notifier uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes events to a kafka topic
type KafkaNotifier struct {
	w messageWriter
}

// NewKafkaNotifier creates a producer. Messages are keyed by auction id so one
// auction's events stay on one partition, in order.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish synchronously writes one event
func (n *KafkaNotifier) Publish(ctx context.Context, evt Event) error {
	if err := evt.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	if err := n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.AuctionID),
		Value: b,
	}); err != nil {
		return fmt.Errorf("notify: publish %s for auction %s: %w", evt.Type, evt.AuctionID, err)
	}
	return nil
}

// Close releases the writer
func (n *KafkaNotifier) Close() error { return n.w.Close() }
