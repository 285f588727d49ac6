// Package client implements the browser-equivalent side of the sync
// protocol: a failover connector that walks an ordered server list, a
// latency probe, and the stream batcher that throttles in-progress
// stroke updates.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SriramKomma/collaborative-canvas/internal/protocol"
)

// State is the connector's lifecycle position.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// DefaultPingInterval matches the reference client's latency probe
// cadence.
const DefaultPingInterval = 2 * time.Second

var ErrNoServers = errors.New("no candidate servers configured")

// Options configures a Connector.
type Options struct {
	// Servers is the ordered candidate list, e.g.
	// []string{"ws://localhost:3001", "ws://localhost:3002"}.
	Servers []string
	// Identity is the durable participant token; required by the
	// server handshake.
	Identity string
	// Username is the display name sent with the handshake.
	Username string
	// PingInterval overrides the latency probe cadence.
	PingInterval time.Duration
	// Dialer overrides the websocket dialer (timeouts, TLS).
	Dialer *websocket.Dialer
}

// Connector dials candidate servers in order, advancing to the next on
// connection failure. Once connected it probes latency on a fixed
// interval until the transport drops. There is no automatic re-dial
// after an established connection is lost; callers observe the closed
// Events channel and decide whether to Connect again and re-join.
type Connector struct {
	opts Options

	state   atomic.Int32
	latency atomic.Int64 // milliseconds

	mu          sync.Mutex
	conn        *websocket.Conn
	writeMu     sync.Mutex
	serverIndex int

	events chan protocol.Envelope
	done   chan struct{}
}

func New(opts Options) *Connector {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	}
	return &Connector{
		opts:   opts,
		events: make(chan protocol.Envelope, 64),
		done:   make(chan struct{}),
	}
}

// Connect tries each candidate server in order, starting from index 0,
// and returns once one accepts or all have failed.
func (c *Connector) Connect(ctx context.Context) error {
	if len(c.opts.Servers) == 0 {
		return ErrNoServers
	}
	if c.opts.Identity == "" {
		return errors.New("identity is required")
	}

	c.state.Store(int32(StateConnecting))

	var lastErr error
	for i, server := range c.opts.Servers {
		target, err := c.handshakeURL(server)
		if err != nil {
			lastErr = err
			continue
		}

		conn, _, err := c.opts.Dialer.DialContext(ctx, target, nil)
		if err != nil {
			slog.Debug("Server unreachable, trying next candidate", "server", server, "error", err)
			lastErr = err
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.serverIndex = i
		select {
		case <-c.done:
			// The previous transport dropped and closed both channels;
			// this connection needs fresh ones.
			c.events = make(chan protocol.Envelope, 64)
			c.done = make(chan struct{})
		default:
		}
		c.mu.Unlock()
		c.state.Store(int32(StateConnected))

		go c.readLoop(conn)
		go c.pingLoop(conn)
		return nil
	}

	c.state.Store(int32(StateDisconnected))
	return fmt.Errorf("all candidate servers failed: %w", lastErr)
}

func (c *Connector) handshakeURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", server, err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("identity", c.opts.Identity)
	if c.opts.Username != "" {
		q.Set("username", c.opts.Username)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Connector) readLoop(conn *websocket.Conn) {
	defer func() {
		c.state.Store(int32(StateDisconnected))
		close(c.done)
		close(c.events)
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			slog.Warn("Dropping malformed server frame", "error", err)
			continue
		}

		// Pongs feed the latency gauge and are not surfaced.
		if env.Type == protocol.EventPong {
			var p protocol.Ping
			if err := json.Unmarshal(env.Data, &p); err == nil && p.Sent > 0 {
				c.latency.Store(time.Now().UnixMilli() - p.Sent)
			}
			continue
		}

		select {
		case c.events <- env:
		default:
			slog.Warn("Event buffer full, dropping frame", "type", env.Type)
		}
	}
}

func (c *Connector) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	probe := func() bool {
		return c.Send(protocol.EventPing, protocol.Ping{Sent: time.Now().UnixMilli()}) == nil
	}

	if !probe() {
		return
	}
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if !probe() {
				return
			}
		}
	}
}

// Send emits one event to the server.
func (c *Connector) Send(t protocol.EventType, v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || c.State() != StateConnected {
		return errors.New("not connected")
	}

	data, err := protocol.Encode(t, v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Events delivers server frames in arrival order. The channel is
// usable from construction and closes when the transport drops; after
// reconnecting, call Events again for the fresh channel.
func (c *Connector) Events() <-chan protocol.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// State reports the connector's current lifecycle position.
func (c *Connector) State() State {
	return State(c.state.Load())
}

// ServerIndex reports which candidate the connector settled on.
func (c *Connector) ServerIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverIndex
}

// Latency returns the last measured round-trip time, or zero before
// the first pong.
func (c *Connector) Latency() time.Duration {
	return time.Duration(c.latency.Load()) * time.Millisecond
}

// Close tears the connection down.
func (c *Connector) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
