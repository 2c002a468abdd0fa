package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/models"
)

const (
	EventCandidateScreened = "candidate.screened"
	EventCandidateFailed   = "candidate.failed"
)

type ScreeningEvent struct {
	Type        string           `json:"type"`
	CandidateID string           `json:"candidate_id"`
	JobID       string           `json:"job_id"`
	Status      string           `json:"status"`
	Score       *float64         `json:"score,omitempty"`
	Decision    *models.Decision `json:"decision,omitempty"`
	Error       string           `json:"error,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// EventPublisher announces finished screenings to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event ScreeningEvent) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher drops every event.
func NewNopPublisher() EventPublisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, ScreeningEvent) error { return nil }
func (nopPublisher) Close() error                                  { return nil }

type amqpPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewAMQPPublisher declares a durable topic exchange and publishes events
// to it with the event type as routing key.
func NewAMQPPublisher(url, exchange string, log *zap.Logger) (EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, event ScreeningEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp.Channel is not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		MessageId:    event.CandidateID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.log.Warn("failed to close amqp channel", zap.Error(err))
	}
	return p.conn.Close()
}
