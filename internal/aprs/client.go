package aprs

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding/charmap"

	"aprstoot/internal/config"
	"aprstoot/internal/logger"
	"aprstoot/pkg/metrics"
)

// State is the feed connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateResolving
	StateConnected
	StateAuthenticating
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// Client manages one duplex APRS-IS connection: resolve, connect, log in,
// then a continuous read loop, with the write side shared for
// acknowledgments. A Client is good for a single connection; the bridge
// supervisor builds a fresh one per attempt.
type Client struct {
	cfg config.FeedConfig
	log logger.Logger

	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
	state   atomic.Int32
}

func NewClient(cfg config.FeedConfig, log logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log,
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
	metrics.ConnectionState.Set(float64(s))
}

// Connect walks the connection state machine up to Streaming: hostname
// resolution, TCP connect with timeout, then the login line. The login is
// fire-and-forget, APRS-IS does not confirm it synchronously.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateResolving)
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, c.cfg.Host)
	if err != nil || len(addrs) == 0 {
		c.setState(StateDisconnected)
		if err == nil {
			err = fmt.Errorf("no addresses")
		}
		return &ResolutionError{Host: c.cfg.Host, Err: err}
	}

	addr := net.JoinHostPort(addrs[0].IP.String(), fmt.Sprintf("%d", c.cfg.Port))
	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.setState(StateDisconnected)
		return &ConnectError{Addr: addr, Err: err}
	}
	c.setState(StateConnected)

	c.conn = conn
	c.reader = bufio.NewReader(conn)

	c.setState(StateAuthenticating)
	login := BuildLogin(c.cfg.Station(), c.cfg.Passcode, c.cfg.Filter)
	if err := c.writeRaw(login); err != nil {
		c.Close()
		return err
	}

	c.log.Infow("Connected to APRS-IS server",
		"server", c.cfg.Host,
		"addr", addr,
		"station", c.cfg.Station(),
		"filter", c.cfg.Filter,
	)
	c.setState(StateStreaming)
	return nil
}

// ReadLine blocks for the next CR-LF terminated feed line, decoded from the
// protocol's Latin-1 to UTF-8. The idle timeout bounds the wait so a
// silently dead connection is noticed and retried instead of hanging
// forever.
func (c *Client) ReadLine() (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("not connected")
	}

	if c.cfg.IdleTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout)); err != nil {
			return "", err
		}
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().String(line)
	if err != nil {
		// Latin-1 decoding is total; this cannot happen in practice.
		return line, nil
	}
	return decoded, nil
}

// WriteLine sends one protocol line, used for acknowledgments. Writes are
// serialized so an ack never interleaves with another write.
func (c *Client) WriteLine(line string) error {
	return c.writeRaw(line)
}

// writeRaw encodes to the protocol's Latin-1, mirroring ReadLine. Ack lines
// echo sender callsigns that were decoded from the same charmap, so the
// encode cannot fail for protocol traffic.
func (c *Client) writeRaw(line string) error {
	if c.conn == nil {
		return &WriteError{Err: fmt.Errorf("not connected")}
	}

	encoded, err := charmap.ISO8859_1.NewEncoder().String(line)
	if err != nil {
		encoded = line
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.Write([]byte(encoded)); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// Close is safe to call from another goroutine: a blocked ReadLine returns
// with an error once the socket is closed. The conn field is left in place,
// repeated Close calls just error on the already closed socket.
func (c *Client) Close() error {
	c.setState(StateDisconnected)
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
