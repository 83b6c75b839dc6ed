// Package connection implements the client-side connection lifecycle
// described in spec.md §4.6: a small state machine (Disconnected ->
// Connecting -> Connected) wrapping one TCP socket, with exponential
// backoff on dial and no multiplexing.
//
// Grounded on BX-D-mini-RPC/transport/client_transport.go's connection
// lifecycle (dial, recvLoop, heartbeat), narrowed from the teacher's
// multiplexed design (sequence-numbered pending map, shared across many
// concurrent callers) down to one outstanding request at a time per
// connection, since spec.md §4.6/§9 requires connection-per-call with no
// demultiplexing layer in the core.
package connection

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mvishiu11/WIND/codec"
	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/protocol"
)

// State is the connection's lifecycle stage.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

const (
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	defaultMaxTry  = 10
)

// Connection wraps one TCP socket to targetEndpoint, dialed lazily and
// reconnected with exponential backoff. It is not safe for concurrent
// Send/Receive from multiple goroutines — the façade in client/ opens one
// Connection per call or per subscription, matching spec.md §4.7.
type Connection struct {
	mu       sync.Mutex
	target   string
	state    State
	conn     net.Conn
	maxTries int
	log      *zap.Logger
}

// New constructs a Connection to target. maxTries <= 0 uses the spec
// default of 10 dial attempts.
func New(target string, maxTries int, log *zap.Logger) *Connection {
	if maxTries <= 0 {
		maxTries = defaultMaxTry
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Connection{target: target, maxTries: maxTries, log: log}
}

// State returns the connection's current lifecycle stage.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials target with exponential backoff: 100ms, 200ms, 400ms, ...
// capped at 5s, for up to maxTries attempts. Between attempts the caller's
// goroutine suspends on a timer that also respects ctx cancellation. On
// exhaustion it returns a werr.Transport-wrapped ConnectExhausted error.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Connected {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.mu.Unlock()

	delay := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxTries; attempt++ {
		dialer := net.Dialer{}
		conn, err := dialer.DialContext(ctx, "tcp", c.target)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.state = Connected
			c.mu.Unlock()
			return nil
		}
		lastErr = err
		c.log.Debug("dial attempt failed", zap.String("target", c.target), zap.Int("attempt", attempt), zap.Error(err))

		if attempt == c.maxTries {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.mu.Lock()
			c.state = Disconnected
			c.mu.Unlock()
			return werr.Transport("connect cancelled", ctx.Err())
		case <-timer.C:
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}

	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()
	return &werr.Error{
		Category: werr.CategoryTransport,
		Code:     werr.CodeConnectExhausted,
		Message:  "exhausted connect attempts to " + c.target,
		Cause:    lastErr,
	}
}

// Send connects (if necessary) and writes one framed envelope. A write
// failure drops the connection back to Disconnected so the next call
// redials.
func (c *Connection) Send(ctx context.Context, env message.Envelope) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}
	out, err := codec.EncodeEnvelope(env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if err := protocol.EncodeFrame(conn, out); err != nil {
		c.drop()
		return err
	}
	return nil
}

// Receive reads and decodes one framed envelope. A deadline on ctx bounds
// the read. A read failure drops the connection back to Disconnected.
func (c *Connection) Receive(ctx context.Context) (message.Envelope, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return message.Envelope{}, err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	} else {
		conn.SetReadDeadline(time.Time{})
	}
	payload, err := protocol.DecodeFrame(conn)
	if err != nil {
		c.drop()
		return message.Envelope{}, err
	}
	env, err := codec.DecodeEnvelope(payload)
	if err != nil {
		c.drop()
		return message.Envelope{}, err
	}
	return env, nil
}

func (c *Connection) ensureConnected(ctx context.Context) error {
	if c.State() == Connected {
		return nil
	}
	return c.Connect(ctx)
}

func (c *Connection) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.state = Disconnected
}

// Close releases the underlying socket, if any.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Disconnected
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
