package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderConfirmed is the event emitted after an order commits to processing.
// The notification service consumes it to send the confirmation email.
type OrderConfirmed struct {
	OrderID    int64     `json:"order_id"`
	UserID     int64     `json:"user_id"`
	TotalPrice float64   `json:"total_price"`
	Method     string    `json:"payment_method"`
	PlacedAt   time.Time `json:"placed_at"`
}

// Publisher delivers order confirmation events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event OrderConfirmed) error
	Close() error
}

// messageWriter is the subset of kafka.Writer the publisher relies on.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes confirmation events to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher writing to the given brokers/topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish sends a single confirmation event keyed by order id.
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderConfirmed) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	p.logger.Info("order confirmation published",
		slog.Int64("order_id", event.OrderID),
		slog.String("method", event.Method),
	)
	return nil
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
