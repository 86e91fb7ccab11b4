package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/dbpool"
	"github.com/adminkit/toggle/internal/models"
)

// validChannel matches safe PostgreSQL LISTEN channel names.
var validChannel = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	// ToggleChannel carries toggle events between service instances.
	ToggleChannel = "toggle_events"

	initialBackoff    = 1 * time.Second
	maxBackoff        = 30 * time.Second
	backoffMultiplier = 2
	notifyTimeout     = 5 * time.Second
)

// Broadcaster delivers toggle events to locally connected subscribers.
type Broadcaster interface {
	BroadcastToggle(ev models.ToggleEvent)
}

// Notifier publishes toggle events on ToggleChannel so every instance's
// bridge sees them, including this one.
type Notifier struct {
	log  *logrus.Logger
	pool *dbpool.Pool
}

// NewNotifier creates a Notifier.
func NewNotifier(log *logrus.Logger, pool *dbpool.Pool) *Notifier {
	return &Notifier{log: log, pool: pool}
}

// BroadcastToggle sends ev with pg_notify. Failures are logged and dropped.
func (n *Notifier) BroadcastToggle(ev models.ToggleEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	payload, err := json.Marshal(ev)
	if err != nil {
		n.log.WithError(err).Warn("failed to encode toggle event")
		return
	}

	if _, err := n.pool.Exec(ctx, "SELECT pg_notify($1, $2)", ToggleChannel, string(payload)); err != nil {
		n.log.WithError(err).WithField("resource", ev.Resource).Warn("failed to send toggle notification")
	}
}

// NotifyBridge subscribes to ToggleChannel and forwards each event to the
// local websocket hub.
type NotifyBridge struct {
	log  *logrus.Logger
	pool *dbpool.Pool
	hub  Broadcaster
}

// NewNotifyBridge creates a NotifyBridge wired to the given pool and hub.
func NewNotifyBridge(log *logrus.Logger, pool *dbpool.Pool, hub Broadcaster) *NotifyBridge {
	return &NotifyBridge{
		log:  log,
		pool: pool,
		hub:  hub,
	}
}

// Start verifies the database is reachable and launches the LISTEN loop in
// a background goroutine that reconnects on failure until ctx is cancelled.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if !validChannel.MatchString(ToggleChannel) {
		return fmt.Errorf("notify bridge: invalid channel name %q", ToggleChannel)
	}

	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.listen(ctx)

	return nil
}

func (b *NotifyBridge) listen(ctx context.Context) {
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		err := b.subscribeAndForward(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		b.log.WithError(err).WithField("retry_in", backoff).
			Warn("notify bridge connection lost, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

func (b *NotifyBridge) subscribeAndForward(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	// LISTEN takes the channel inline, not as a parameter.
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ToggleChannel}.Sanitize()); err != nil {
		return fmt.Errorf("executing LISTEN: %w", err)
	}

	b.log.WithField("channel", ToggleChannel).Info("notify bridge listening")

	for {
		// Periodic deadline so ctx cancellation is noticed.
		if err := conn.Conn().PgConn().Conn().SetReadDeadline(time.Now().Add(2 * time.Minute)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			return fmt.Errorf("waiting for notification: %w", err)
		}

		b.handleNotification(notification)
	}
}

// handleNotification decodes one payload and forwards it to the hub.
func (b *NotifyBridge) handleNotification(n *pgconn.Notification) {
	ev, err := DecodeToggleEvent(n.Payload)
	if err != nil {
		b.log.WithError(err).WithField("pid", n.PID).Warn("dropping malformed toggle notification")
		return
	}

	b.hub.BroadcastToggle(ev)
}

// DecodeToggleEvent parses a notification payload.
func DecodeToggleEvent(payload string) (models.ToggleEvent, error) {
	var ev models.ToggleEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("decoding toggle event: %w", err)
	}

	if ev.Resource == "" || ev.ResourceID == "" || ev.Attribute == "" {
		return ev, fmt.Errorf("toggle event missing resource, id or attribute")
	}

	return ev, nil
}

// nextBackoff doubles the current backoff with ±25% jitter, capped at maxBackoff.
func nextBackoff(current time.Duration) time.Duration {
	next := current * backoffMultiplier
	if next > maxBackoff {
		next = maxBackoff
	}

	jitter := float64(next) * (0.75 + rand.Float64()*0.5) //nolint:gosec // jitter doesn't need crypto rand.

	return time.Duration(jitter)
}
