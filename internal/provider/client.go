package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"bbprovider/internal/logging"
	"bbprovider/internal/protocol"
)

// Reference registration values and loop timings.
const (
	DefaultName              = "provider-template"
	DefaultKind              = "custom"
	DefaultPriority          = 20
	DefaultHeartbeatInterval = 2 * time.Second
	DefaultReadTimeout       = 500 * time.Millisecond
	DefaultDialTimeout       = 2 * time.Second

	readBufferSize = 4096
)

// Options configures a Client. Only an exact zero duration or an empty identity
// field takes the defaults above; negative durations are rejected. Priority is
// used as given.
type Options struct {
	Name     string
	Kind     string
	Priority int

	HeartbeatInterval time.Duration
	ReadTimeout       time.Duration
	DialTimeout       time.Duration

	// Handler receives inbound lines. Nil discards them.
	Handler Handler
	Logger  *slog.Logger

	// Now drives the heartbeat clock. Read deadlines always use wall time.
	Now func() time.Time
}

// DefaultOptions returns the reference registration with default timings.
func DefaultOptions() Options {
	return Options{Name: DefaultName, Kind: DefaultKind, Priority: DefaultPriority}
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Kind == "" {
		o.Kind = DefaultKind
	}
	if o.HeartbeatInterval == 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.Handler == nil {
		o.Handler = Discard
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) validate() error {
	if o.HeartbeatInterval < 0 || o.ReadTimeout < 0 || o.DialTimeout < 0 {
		return fmt.Errorf("invalid provider options: durations must be positive (interval %s, read timeout %s, dial timeout %s)",
			o.HeartbeatInterval, o.ReadTimeout, o.DialTimeout)
	}
	if o.ReadTimeout >= o.HeartbeatInterval {
		return fmt.Errorf("invalid provider options: read timeout %s must be shorter than heartbeat interval %s", o.ReadTimeout, o.HeartbeatInterval)
	}
	return nil
}

// Identifier is implemented by handlers that learn the daemon-assigned provider
// id. When the client's handler implements it, heartbeats carry that id.
type Identifier interface {
	ProviderID() string
}

// Reason names why a session ended.
type Reason string

const (
	ReasonPeerClosed Reason = "peer_closed"
	ReasonReadFailed Reason = "read_failed"
	ReasonSendFailed Reason = "send_failed"
	ReasonShutdown   Reason = "shutdown"
)

// Outcome summarizes a finished session. Err is nil for peer_closed and for a
// shutdown requested through the context.
type Outcome struct {
	Reason           Reason
	Err              error
	HeartbeatsSent   int
	MessagesReceived int
	FramesDropped    int
	Duration         time.Duration
}

// Client is a single provider session on one connection. It is driven by Run
// from one goroutine and is never reconnected.
type Client struct {
	conn     net.Conn
	endpoint string
	opts     Options
	logger   *slog.Logger

	clock    *heartbeatClock
	frames   protocol.LineBuffer
	state    stateBox
	received int
	beats    int

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the daemon socket at endpoint. Any failure to reach it is
// returned as a *ConnectError.
func Dial(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", endpoint)
	if err != nil {
		return nil, &ConnectError{Endpoint: endpoint, Err: err}
	}
	client, err := NewClient(conn, opts)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	client.endpoint = endpoint
	client.logger = client.logger.With(logging.String(logging.FieldSocket, endpoint))
	client.logger.Debug("connected to daemon",
		logging.String(logging.FieldEventType, "connected"),
	)
	return client, nil
}

// NewClient wraps an established connection. The client takes ownership of
// conn and closes it when the session ends.
func NewClient(conn net.Conn, opts Options) (*Client, error) {
	if conn == nil {
		return nil, errors.New("new provider client: nil connection")
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c := &Client{
		conn:   conn,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "provider"),
		clock:  newHeartbeatClock(opts.HeartbeatInterval),
	}
	c.state.store(StateActive)
	return c, nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return c.state.load()
}

// Send writes one framed message. A failed or short write is a *SendError and
// the caller must end the session.
func (c *Client) Send(msg protocol.Outbound) error {
	msgType := "unknown"
	if msg != nil {
		msgType = msg.MessageType()
	}
	if c.state.load() == StateClosed {
		return &SendError{MessageType: msgType, Err: net.ErrClosed}
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		return &SendError{MessageType: msgType, Err: err}
	}
	n, err := c.conn.Write(frame)
	if err == nil && n < len(frame) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &SendError{MessageType: msgType, Err: err}
	}
	return nil
}

// Run registers, subscribes, and then services the connection until the peer
// closes it, an I/O error occurs, or ctx is cancelled. The connection is closed
// before Run returns. Run must be called at most once.
func (c *Client) Run(ctx context.Context) Outcome {
	start := time.Now()
	out := c.run(ctx)
	if err := c.Close(); err != nil {
		c.logger.Debug("close connection", logging.Error(err))
	}
	out.HeartbeatsSent = c.beats
	out.MessagesReceived = c.received
	out.FramesDropped = c.frames.Dropped()
	out.Duration = time.Since(start)
	c.logOutcome(out)
	return out
}

func (c *Client) run(ctx context.Context) Outcome {
	if c.state.load() == StateClosed {
		return Outcome{Reason: ReasonSendFailed, Err: &SendError{MessageType: protocol.TypeRegister, Err: net.ErrClosed}}
	}

	register := protocol.NewRegister(c.opts.Name, c.opts.Kind, c.opts.Priority)
	for _, msg := range []protocol.Outbound{register, protocol.NewSubscribe()} {
		if err := c.Send(msg); err != nil {
			return Outcome{Reason: ReasonSendFailed, Err: err}
		}
	}
	c.logger.Info("registered with daemon",
		logging.String(logging.FieldEventType, "register_sent"),
		logging.String("name", c.opts.Name),
		logging.String("kind", c.opts.Kind),
		logging.Int("priority", c.opts.Priority),
	)

	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			return Outcome{Reason: ReasonShutdown}
		}

		now := c.opts.Now()
		if c.clock.due(now) {
			if err := c.Send(protocol.NewHeartbeat(c.providerID())); err != nil {
				return Outcome{Reason: ReasonSendFailed, Err: err}
			}
			c.clock.mark(now)
			c.beats++
			c.logger.Debug("heartbeat sent",
				logging.String(logging.FieldEventType, "heartbeat_sent"),
				logging.Int("count", c.beats),
			)
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
			return Outcome{Reason: ReasonReadFailed, Err: fmt.Errorf("set read deadline: %w", err)}
		}
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.dispatch(ctx, buf[:n])
		}
		switch {
		case err == nil && n == 0:
			return Outcome{Reason: ReasonPeerClosed}
		case err == nil:
		case errors.Is(err, io.EOF):
			return Outcome{Reason: ReasonPeerClosed}
		case isTimeout(err):
		default:
			return Outcome{Reason: ReasonReadFailed, Err: err}
		}
	}
}

func (c *Client) dispatch(ctx context.Context, chunk []byte) {
	dropped := c.frames.Dropped()
	for _, line := range c.frames.Write(chunk) {
		c.received++
		c.opts.Handler.HandleMessage(ctx, protocol.NewInbound(line))
	}
	if c.frames.Dropped() > dropped {
		logging.WarnWithContext(c.logger, "dropped oversized daemon message", "message_dropped",
			logging.Int("limit_bytes", protocol.MaxMessageSize),
			logging.String(logging.FieldImpact, "one inbound message was ignored"),
			logging.String(logging.FieldErrorHint, "check the daemon for malformed output"),
		)
	}
}

func (c *Client) providerID() string {
	if id, ok := c.opts.Handler.(Identifier); ok {
		return id.ProviderID()
	}
	return ""
}

// Close releases the connection. It is safe to call more than once; only the
// first call closes the socket.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.state.store(StateClosed)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Client) logOutcome(out Outcome) {
	attrs := []logging.Attr{
		logging.String("reason", string(out.Reason)),
		logging.Int("heartbeats", out.HeartbeatsSent),
		logging.Int("messages", out.MessagesReceived),
		logging.Duration("duration", out.Duration),
	}
	switch out.Reason {
	case ReasonSendFailed, ReasonReadFailed:
		attrs = append(attrs,
			logging.Error(out.Err),
			logging.String(logging.FieldImpact, "provider registration ended"),
			logging.String(logging.FieldErrorHint, "check that the bb-auth daemon is running"),
		)
		logging.WarnWithContext(c.logger, "provider session ended", "session_ended", attrs...)
	default:
		attrs = append(attrs, logging.String(logging.FieldEventType, "session_ended"))
		c.logger.Info("provider session ended", logging.Args(attrs...)...)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
