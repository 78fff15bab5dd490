package opc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelgenie/internal/pixel"
)

// DialFunc opens the transport to the OPC server.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client sends frames to an OPC server such as fcserver.
//
// In long connection mode a single socket is kept and re-dialed whenever a
// send finds it missing. In short connection mode a socket is opened for
// each send and closed right after, which leaves the server free for other
// clients. All transport errors stay inside the client; callers only see a
// boolean.
type Client struct {
	addr         string
	long         bool
	dialTimeout  time.Duration
	writeTimeout time.Duration
	dial         DialFunc
	log          zerolog.Logger

	mu       sync.Mutex
	conn     net.Conn
	firmware byte
}

type Option func(*Client)

// WithLongConnection selects persistent (true) or per-call (false) sockets.
func WithLongConnection(long bool) Option { return func(c *Client) { c.long = long } }

func WithDialTimeout(d time.Duration) Option { return func(c *Client) { c.dialTimeout = d } }

// WithWriteTimeout sets a deadline on every frame write. Zero leaves the
// OS defaults in place.
func WithWriteTimeout(d time.Duration) Option { return func(c *Client) { c.writeTimeout = d } }

func WithDialer(d DialFunc) Option { return func(c *Client) { c.dial = d } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient returns a disconnected client for addr ("host:port").
func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr: addr,
		long: true,
		log:  log.Logger,
	}
	for _, o := range opts {
		o(c)
	}
	if c.dial == nil {
		d := &net.Dialer{Timeout: c.dialTimeout}
		c.dial = d.DialContext
	}
	c.log = c.log.With().Str("component", "opc").Str("addr", addr).Logger()
	return c
}

func (c *Client) Addr() string { return c.addr }

// Connected reports whether a socket is currently held.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Connect dials the server unless a socket is already held.
func (c *Client) Connect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureConnected()
}

// Disconnect drops the socket, if there is one.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeConn()
}

// CanConnect tries to reach the server. In long connection mode the socket
// is kept for later sends.
func (c *Client) CanConnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.ensureConnected()
	if !c.long {
		c.closeConn()
	}
	return ok
}

// SendPixels writes one set-pixels frame. Values are clamped to 0..255 and
// truncated. Channel 0 addresses every strand.
func (c *Client) SendPixels(channel uint8, pixels []pixel.RGB) bool {
	frame, err := PixelFrame(channel, pixels)
	if err != nil {
		c.log.Warn().Err(err).Int("pixels", len(pixels)).Msg("dropping frame")
		return false
	}
	return c.send(frame, "put pixels")
}

// SendFirmwareConfig writes the firmware configuration SysEx. Interpolation
// is on when bit 0x02 of the config byte is clear.
func (c *Client) SendFirmwareConfig(interpolate bool) bool {
	c.mu.Lock()
	c.firmware = firmwareConfig(c.firmware, interpolate)
	cfg := c.firmware
	c.mu.Unlock()
	return c.send(FirmwareConfigFrame(cfg), "firmware config")
}

// SetInterpolation is an alias kept for callers that think in terms of the
// controller setting rather than the packet.
func (c *Client) SetInterpolation(enabled bool) bool { return c.SendFirmwareConfig(enabled) }

func (c *Client) send(frame []byte, what string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ensureConnected() {
		c.log.Debug().Str("op", what).Msg("not connected, ignoring frame")
		return false
	}
	if !c.long {
		defer c.closeConn()
	}

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.log.Debug().Err(err).Str("op", what).Msg("connection lost")
		c.closeConn()
		return false
	}
	return true
}

// ensureConnected must be called with mu held.
func (c *Client) ensureConnected() bool {
	if c.conn != nil {
		return true
	}
	ctx := context.Background()
	if c.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.dialTimeout)
		defer cancel()
	}
	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		c.log.Debug().Err(err).Msg("connect failed")
		c.conn = nil
		return false
	}
	c.log.Debug().Msg("connected")
	c.conn = conn
	return true
}

// closeConn must be called with mu held.
func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close")
	}
	c.conn = nil
}

// Close satisfies io.Closer for shutdown paths.
func (c *Client) Close() error {
	c.Disconnect()
	return nil
}
