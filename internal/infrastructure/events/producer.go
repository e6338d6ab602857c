// internal/infrastructure/events/producer.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Producer publishes order lifecycle events to Kafka. It implements
// order.Publisher; delivery is best effort and failures stay with the
// caller's logs.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer for the order topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// OrderEvent is the wire shape of an order lifecycle event
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uint      `json:"user_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PublishOrderEvent emits one event keyed by order number so all events
// for an order land on the same partition, in order.
func (p *Producer) PublishOrderEvent(ctx context.Context, eventType string, o *order.Order) error {
	event := OrderEvent{
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
		OccurredAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.OrderNumber),
		Value: data,
		Time:  time.Now(),
	})
}

// Close flushes and closes the underlying writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
