package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Revalidator re-checks the credential a client connected with. A non-nil
// error closes the connection.
type Revalidator func(ctx context.Context) error

// connPolicy holds the timing rules applied to every subscriber connection.
type connPolicy struct {
	readLimit       int64
	sendBuffer      int
	writeTimeout    time.Duration
	pingEvery       time.Duration
	pingTimeout     time.Duration
	maxMissedPings  int
	revalidateEvery time.Duration
	revalidateLimit time.Duration
	maxLifetime     time.Duration
}

var defaultPolicy = connPolicy{
	readLimit:       4096,
	sendBuffer:      256,
	writeTimeout:    10 * time.Second,
	pingEvery:       30 * time.Second,
	pingTimeout:     10 * time.Second,
	maxMissedPings:  2,
	revalidateEvery: 15 * time.Minute,
	revalidateLimit: 10 * time.Second,
	maxLifetime:     4 * time.Hour,
}

// Client is one websocket subscriber to the toggle events of a resource.
type Client struct {
	Resource string
	ActorID  string

	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	log        *logrus.Entry
	policy     connPolicy
	revalidate Revalidator
	sendClosed sync.Once
	opened     time.Time
}

// NewClient creates a subscriber for resource. revalidate may be nil, in
// which case the connection is only bounded by its maximum lifetime.
func NewClient(hub *Hub, conn *websocket.Conn, resource, actorID string, revalidate Revalidator) *Client {
	return &Client{
		Resource:   resource,
		ActorID:    actorID,
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, defaultPolicy.sendBuffer),
		log:        hub.log.WithFields(logrus.Fields{"resource": resource, "actor_id": actorID}),
		policy:     defaultPolicy,
		revalidate: revalidate,
		opened:     time.Now(),
	}
}

func (c *Client) closeSend() {
	c.sendClosed.Do(func() { close(c.send) })
}

// enqueue offers msg to the client without blocking. It reports false when
// the client's buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ReadPump handles control messages from the client until the connection
// closes, then unregisters it from the hub.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	c.conn.SetReadLimit(c.policy.readLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("subscriber disconnected")
			}
			return
		}

		c.dispatch(data)
	}
}

// dispatch routes one client message. Only subscribe is understood; anything
// else is ignored.
func (c *Client) dispatch(data []byte) {
	var msg SubscribeMsg
	if json.Unmarshal(data, &msg) != nil || msg.Type != MsgSubscribe {
		return
	}

	if c.hub.ReplayEvents(c, msg.LastEventID) {
		return
	}

	reset, err := json.Marshal(ResetMsg{
		Type:   MsgReset,
		Reason: "toggle events since last_event_id are no longer buffered, reload the resource",
	})
	if err == nil {
		c.enqueue(reset)
	}
}

// WritePump delivers queued events and keeps the connection healthy: it pings
// the peer, revalidates the credential and enforces the maximum lifetime.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	lifetime := time.NewTimer(time.Until(c.opened.Add(c.policy.maxLifetime)))
	defer lifetime.Stop()

	pings := time.NewTicker(c.policy.pingEvery)
	defer pings.Stop()

	checks := time.NewTicker(c.policy.revalidateEvery)
	defer checks.Stop()

	missed := 0

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, msg); err != nil {
				c.log.WithError(err).Debug("write to subscriber failed")
				return
			}

		case <-pings.C:
			if c.ping(ctx) {
				missed = 0
				continue
			}
			missed++
			if missed >= c.policy.maxMissedPings {
				c.log.WithField("missed", missed).Debug("subscriber stopped answering pings")
				return
			}

		case <-checks.C:
			if !c.credentialStillValid(ctx) {
				c.conn.Close(websocket.StatusPolicyViolation, "authentication expired") //nolint:errcheck // best-effort
				return
			}

		case <-lifetime.C:
			c.log.Info("closing subscriber: maximum connection lifetime reached")
			c.conn.Close(websocket.StatusNormalClosure, "max connection lifetime exceeded") //nolint:errcheck // best-effort
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.policy.writeTimeout)
	defer cancel()

	return c.conn.Write(ctx, websocket.MessageText, msg)
}

// ping reports whether the peer answered within the ping timeout.
func (c *Client) ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.policy.pingTimeout)
	defer cancel()

	return c.conn.Ping(ctx) == nil
}

// credentialStillValid re-runs the admitting guard. Clients without a
// revalidator are always valid.
func (c *Client) credentialStillValid(ctx context.Context) bool {
	if c.revalidate == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, c.policy.revalidateLimit)
	defer cancel()

	if err := c.revalidate(ctx); err != nil {
		c.log.WithError(err).Info("closing subscriber: credential no longer accepted")
		return false
	}

	return true
}
