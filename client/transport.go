package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one open connection to the hub.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// Transport opens connections to the hub. The default implementation
// dials a websocket; tests substitute a mock.
type Transport interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// WebSocketTransport dials the hub over gorilla/websocket.
type WebSocketTransport struct {
	Dialer  *websocket.Dialer
	Version string
}

// NewWebSocketTransport returns a transport with default dialer
// settings. version is sent as the _v cache-busting parameter.
func NewWebSocketTransport(version string) *WebSocketTransport {
	return &WebSocketTransport{
		Dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		Version: version,
	}
}

// Dial opens a websocket connection. The _t and _v query parameters
// defeat intermediary caching of the handshake request; some deployment
// paths proxy this traffic through caching layers.
func (t *WebSocketTransport) Dial(ctx context.Context, endpoint string) (Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	q := u.Query()
	q.Set("_t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	if t.Version != "" {
		q.Set("_v", t.Version)
	}
	u.RawQuery = q.Encode()

	conn, resp, err := t.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.Host, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, message, err := c.conn.ReadMessage()
	return message, err
}

func (c *wsConn) WriteJSON(v interface{}) error {
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// validateEndpoint rejects empty or malformed endpoints up front so the
// manager fails fast instead of retrying against broken configuration.
func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is not configured")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return nil
}
