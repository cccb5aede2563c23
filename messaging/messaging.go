// Package messaging publishes domain events to a broker.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topics.
const (
	TopicOrderPlaced   = "orders.placed"
	TopicPaymentStatus = "payments.status"
)

// Publisher publishes events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// OrderPlaced is emitted once an order is stored.
type OrderPlaced struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId,omitempty"`
	Email         string    `json:"email"`
	ProductIDs    []string  `json:"productIds"`
	Total         float64   `json:"total"`
	PaymentMethod string    `json:"paymentMethod"`
	PlacedAt      time.Time `json:"placedAt"`
}

// PaymentStatusChanged is emitted when a payment attempt settles.
type PaymentStatusChanged struct {
	AttemptID string    `json:"attemptId"`
	OrderID   string    `json:"orderId"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	At        time.Time `json:"at"`
}

type logPublisher struct {
	log *zap.Logger
}

// NewLogPublisher logs events instead of sending them. Used when no broker
// is configured.
func NewLogPublisher(log *zap.Logger) Publisher {
	return &logPublisher{log: log}
}

func (p *logPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	p.log.Info("📨 event", zap.String("topic", topic), zap.String("key", key), zap.ByteString("payload", payload))
	return nil
}

// Message is an event captured by a Recorder.
type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Topic: topic, Key: key, Payload: payload})
	return nil
}

// Messages returns the recorded events for topic, or all events when topic
// is empty.
func (r *Recorder) Messages(topic string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if topic == "" || m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
