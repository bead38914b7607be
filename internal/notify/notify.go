// Package notify publishes per-thread analysis updates to a RabbitMQ topic
// exchange so front ends can follow a run as it progresses.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/types"
)

// DefaultExchange is the topic exchange updates are published to
const DefaultExchange = "session_updates"

// Terminal and lifecycle statuses published by the worker
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Update is one message on the exchange.
type Update struct {
	ThreadID  string    `json:"thread_id"`
	Status    string    `json:"status"`
	Step      string    `json:"step,omitempty"`
	Index     int       `json:"index,omitempty"`
	Total     int       `json:"total,omitempty"`
	Message   string    `json:"message"`
	Content   any       `json:"content,omitempty"`
	// Error is set when a completed run has no score summary
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoutingKey is the topic a thread's updates are published under
func RoutingKey(threadID string) string {
	return fmt.Sprintf("session.%s", threadID)
}

// Publisher sends updates.
type Publisher interface {
	Publish(update Update) error
	Close() error
}

// channel is the part of *amqp.Channel the publisher needs
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON updates on one channel. Publishing is
// serialized because amqp channels are not safe for concurrent use.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// Dial connects to the broker and declares the topic exchange
func Dial(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends update to session.<thread id>
func (p *AMQPPublisher) Publish(update Update) error {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(p.exchange, RoutingKey(update.ThreadID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   update.Timestamp,
		Body:        body,
	})
}

// Close closes the channel and connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Nop discards updates
type Nop struct{}

func (Nop) Publish(Update) error { return nil }

func (Nop) Close() error { return nil }

// FromProgress converts a pipeline progress event
func FromProgress(ev types.ProgressEvent) Update {
	return Update{
		ThreadID: ev.ThreadID,
		Status:   ev.Status,
		Step:     ev.Step,
		Index:    ev.Index,
		Total:    ev.Total,
		Message:  ev.Message,
		Content:  ev.Content,
	}
}

// ProgressFunc returns a progress callback that publishes every event.
// Publish failures are logged and never stop the run.
func ProgressFunc(p Publisher, logger *zap.Logger) func(types.ProgressEvent) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ev types.ProgressEvent) {
		if err := p.Publish(FromProgress(ev)); err != nil {
			logger.Warn("failed to publish update",
				zap.String("thread_id", ev.ThreadID),
				zap.String("step", ev.Step),
				zap.Error(err))
		}
	}
}
