package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects emitted by the grading engine. Delivery to end users is
// handled by external consumers.
const (
	EventHomeworkPublished   = "homework.published"
	EventSubmissionCompleted = "submission.completed"
	EventAnswerReviewed      = "answer.reviewed"
)

// EventPublisher emits domain events for out-of-process consumers.
type EventPublisher interface {
	Publish(subject string, payload interface{})
}

type natsEventPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewNATSEventPublisher builds a publisher over an existing NATS connection.
// A nil connection yields a publisher that drops events.
func NewNATSEventPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) EventPublisher {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	return &natsEventPublisher{
		conn:   conn,
		prefix: prefix,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(subject string, payload interface{}) {
	if p.conn == nil {
		return
	}

	if p.prefix != "" {
		subject = p.prefix + "." + subject
	}

	envelope := struct {
		Subject string      `json:"subject"`
		SentAt  time.Time   `json:"sent_at"`
		Data    interface{} `json:"data"`
	}{Subject: subject, SentAt: time.Now().UTC(), Data: payload}

	raw, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, raw); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
