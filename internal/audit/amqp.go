package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/models"
)

// AMQPSink publishes audit envelopes to a durable topic exchange.
type AMQPSink struct {
	conn     *amqp091.Connection
	exchange string
	log      *logrus.Logger
}

// NewAMQPSink dials url and declares the exchange.
func NewAMQPSink(url, exchange string, log *logrus.Logger) (*AMQPSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() //nolint:errcheck // best-effort cleanup on setup failure
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck // setup channel only

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close() //nolint:errcheck // best-effort cleanup on setup failure
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &AMQPSink{conn: conn, exchange: exchange, log: log}, nil
}

// Name implements Sink.
func (s *AMQPSink) Name() string { return "amqp" }

// RecordAudit publishes entry and waits for the broker to confirm it.
func (s *AMQPSink) RecordAudit(ctx context.Context, entry models.AuditEntry) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening amqp channel: %w", err)
	}
	defer ch.Close() //nolint:errcheck // per-publish channel

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enabling publisher confirms: %w", err)
	}

	msg, err := publishing(entry)
	if err != nil {
		return err
	}

	key := RoutingKey(entry)

	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, s.exchange, key, false, false, msg)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", key, err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for confirm: %w", err)
	}

	if !acked {
		return fmt.Errorf("broker nacked %s", msg.MessageId)
	}

	s.log.WithFields(logrus.Fields{
		"exchange": s.exchange,
		"key":      key,
		"event_id": msg.MessageId,
	}).Debug("audit event published")

	return nil
}

// Close closes the connection.
func (s *AMQPSink) Close() error {
	return s.conn.Close()
}

func publishing(entry models.AuditEntry) (amqp091.Publishing, error) {
	env := NewEnvelope(entry)
	if env.Meta.ID == "" {
		env.Meta.ID = uuid.NewString()
	}

	body, err := json.Marshal(env)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshaling envelope: %w", err)
	}

	cid := env.Meta.ID
	if env.Meta.CorrelationID != nil {
		cid = *env.Meta.CorrelationID
	}

	return amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: cid,
		Type:          env.Meta.Type,
		Timestamp:     time.Now(),
		Body:          body,
	}, nil
}
