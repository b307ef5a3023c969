// Package client provides the connection manager used by dashboard
// frontends and tooling to hold one logical connection to the realtime
// hub. It runs an explicit reconnection state machine, a connect
// watchdog and a liveness probe, and keeps a read-only cached copy of
// the last dashboard snapshot it received.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultConnectTimeout is the connect watchdog interval. If no
	// connect acknowledgment arrives in time, the transport is
	// force-closed and reopened.
	DefaultConnectTimeout = 3 * time.Second

	// DefaultReconnectDelay is the fixed pause before reconnecting
	// after a disconnect. Fixed rather than exponential to keep
	// dashboard staleness bounded.
	DefaultReconnectDelay = 2 * time.Second

	// DefaultMaxConnectRetries bounds consecutive watchdog-triggered
	// retries before the manager gives up with a terminal error.
	DefaultMaxConnectRetries = 2
)

// errTimeoutMessage is the terminal error recorded when the watchdog
// retry budget is exhausted.
const errTimeoutMessage = "timeout after retries"

var (
	errClosed            = errors.New("manager closed")
	errWatchdogExhausted = errors.New(errTimeoutMessage)
)

// Options configures a Manager. Only Endpoint is required.
type Options struct {
	// Endpoint is the hub URL. Empty or malformed values put the
	// manager straight into StatusError with no connection attempts.
	Endpoint string

	// Transport defaults to NewWebSocketTransport("").
	Transport Transport

	// Clock defaults to the real clock. Tests inject a fake.
	Clock clockwork.Clock

	Logger *slog.Logger

	ConnectTimeout    time.Duration
	ReconnectDelay    time.Duration
	MaxConnectRetries int

	// Callbacks are invoked from the manager's run goroutine and must
	// not block.
	OnSnapshot     func(Snapshot)
	OnAlert        func(Alert)
	OnEvent        func(eventType string, payload json.RawMessage)
	OnStatusChange func(Status)
}

// Manager owns one logical connection to the hub. All state transitions
// happen inside its run loop; callers observe them through the
// accessors and the OnStatusChange callback.
type Manager struct {
	transport      Transport
	clock          clockwork.Clock
	logger         *slog.Logger
	endpoint       string
	connectTimeout time.Duration
	reconnectDelay time.Duration
	maxRetries     int

	onSnapshot     func(Snapshot)
	onAlert        func(Alert)
	onEvent        func(string, json.RawMessage)
	onStatusChange func(Status)

	// writeMu serializes writes to the active connection. EmitEvent
	// runs on the caller's goroutine while pong replies come from the
	// run loop, and the transport permits one writer at a time.
	writeMu sync.Mutex

	mu         sync.Mutex
	status     Status
	retryCount int
	lastError  string
	socketID   string
	conn       Conn
	data       *Snapshot
	started    bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a manager. It does not connect until Start is called.
func New(opts Options) *Manager {
	if opts.Transport == nil {
		opts.Transport = NewWebSocketTransport("")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxConnectRetries <= 0 {
		opts.MaxConnectRetries = DefaultMaxConnectRetries
	}

	return &Manager{
		transport:      opts.Transport,
		clock:          opts.Clock,
		logger:         opts.Logger.With("component", "realtime_client"),
		endpoint:       opts.Endpoint,
		connectTimeout: opts.ConnectTimeout,
		reconnectDelay: opts.ReconnectDelay,
		maxRetries:     opts.MaxConnectRetries,
		onSnapshot:     opts.OnSnapshot,
		onAlert:        opts.OnAlert,
		onEvent:        opts.OnEvent,
		onStatusChange: opts.OnStatusChange,
		status:         StatusDisconnected,
		done:           make(chan struct{}),
	}
}

// Start validates the endpoint and launches the connection loop. A bad
// endpoint yields StatusError immediately with zero connect attempts,
// never a retry storm against broken configuration.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	if err := validateEndpoint(m.endpoint); err != nil {
		m.transition(StatusError, err.Error())
		m.logger.Error("endpoint rejected", "error", err)
		return err
	}

	m.wg.Add(1)
	go m.run()
	return nil
}

// Close tears the manager down: all timers are cancelled and the
// transport is closed. Every path that opened a connection registered
// its teardown here, so nothing outlives the manager.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		if m.conn != nil {
			_ = m.conn.Close()
		}
		m.mu.Unlock()
	})
	m.wg.Wait()
}

// EmitEvent sends a business event to the hub. It is a no-op returning
// false unless the manager is currently connected; there is no outbound
// queue, the caller retries business-meaningful actions itself.
func (m *Manager) EmitEvent(kind string, payload interface{}) bool {
	m.mu.Lock()
	conn := m.conn
	connected := m.status == StatusConnected && conn != nil
	m.mu.Unlock()

	if !connected {
		return false
	}

	if err := m.write(conn, clientMessage{Type: kind, Payload: payload}); err != nil {
		m.logger.Warn("emit failed", "kind", kind, "error", err)
		return false
	}
	return true
}

// write sends one message on the connection under the write lock.
func (m *Manager) write(conn Conn, msg clientMessage) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IsConnected reports whether the manager is currently connected.
func (m *Manager) IsConnected() bool {
	return m.Status() == StatusConnected
}

// LastError returns the most recent error reason, if any.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// RetryCount returns the consecutive watchdog retry count.
func (m *Manager) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryCount
}

// SocketID returns the connection identifier. Present only while
// connected.
func (m *Manager) SocketID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.socketID
}

// Data returns the last snapshot received, if any. On failures the
// cached snapshot stays authoritative; the UI degrades to stale data,
// never to fabricated zeros.
func (m *Manager) Data() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return Snapshot{}, false
	}
	return *m.data, true
}

// run is the connection loop: connect (with watchdog), read until
// disconnect, pause, repeat. It exits on Close or on a terminal error.
func (m *Manager) run() {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		default:
		}

		conn, err := m.connect()
		switch {
		case errors.Is(err, errClosed):
			return
		case errors.Is(err, errWatchdogExhausted):
			m.transition(StatusError, errTimeoutMessage)
			m.logger.Error("giving up on connection", "error", err)
			return
		case err != nil:
			// Recoverable network/path error: reconnect after the
			// fixed delay.
			m.transition(StatusDisconnected, err.Error())
			m.logger.Warn("connect failed", "error", err)
			if !m.pause() {
				return
			}
			continue
		}

		reason := m.readLoop(conn)

		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()

		select {
		case <-m.done:
			return
		default:
		}

		m.transition(StatusDisconnected, reason)
		m.logger.Warn("disconnected", "reason", reason)
		if !m.pause() {
			return
		}
	}
}

// connect dials under the watchdog. Each watchdog expiry force-closes
// the pending attempt and reopens the transport; after maxRetries
// consecutive expiries it reports errWatchdogExhausted.
func (m *Manager) connect() (Conn, error) {
	m.transition(StatusConnecting, "")

	for {
		ctx, cancel := context.WithCancel(context.Background())
		results := make(chan dialResult, 1)
		go func() {
			conn, err := m.transport.Dial(ctx, m.endpoint)
			results <- dialResult{conn: conn, err: err}
		}()

		select {
		case <-m.done:
			cancel()
			go discardLateDial(results)
			return nil, errClosed

		case r := <-results:
			cancel()
			if r.err != nil {
				return nil, r.err
			}
			m.mu.Lock()
			m.conn = r.conn
			m.socketID = uuid.NewString()
			m.mu.Unlock()
			m.transition(StatusConnected, "")
			m.logger.Info("connected", "endpoint", m.endpoint)
			return r.conn, nil

		case <-m.clock.After(m.connectTimeout):
			cancel()
			go discardLateDial(results)

			m.mu.Lock()
			m.retryCount++
			retries := m.retryCount
			m.mu.Unlock()

			if retries >= m.maxRetries {
				return nil, errWatchdogExhausted
			}
			m.logger.Warn("connect watchdog fired, retrying", "retry", retries)
		}
	}
}

type dialResult struct {
	conn Conn
	err  error
}

// discardLateDial closes a connection that completed after its watchdog
// already gave up on it.
func discardLateDial(results <-chan dialResult) {
	r := <-results
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// readLoop consumes server messages until the connection drops and
// returns the disconnect reason.
func (m *Manager) readLoop(conn Conn) string {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return err.Error()
		}
		m.handleMessage(conn, raw)
	}
}

func (m *Manager) handleMessage(conn Conn, raw []byte) {
	var msg serverMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.logger.Warn("failed to unmarshal server message", "error", err)
		return
	}

	switch msg.Type {
	case eventPing:
		if err := m.write(conn, clientMessage{Type: msgPong}); err != nil {
			m.logger.Warn("failed to answer ping", "error", err)
			return
		}
		m.heal()

	case eventDashboardUpdate:
		var snapshot Snapshot
		if err := json.Unmarshal(msg.Payload, &snapshot); err != nil {
			m.logger.Warn("failed to unmarshal snapshot", "error", err)
			return
		}
		m.mu.Lock()
		m.data = &snapshot
		m.mu.Unlock()
		if m.onSnapshot != nil {
			m.onSnapshot(snapshot)
		}

	case eventAlert:
		if m.onAlert == nil {
			return
		}
		var alert Alert
		if err := json.Unmarshal(msg.Payload, &alert); err != nil {
			m.logger.Warn("failed to unmarshal alert", "error", err)
			return
		}
		m.onAlert(alert)

	default:
		if m.onEvent != nil {
			m.onEvent(msg.Type, msg.Payload)
		}
	}
}

// heal re-asserts Connected after a successful ping/pong round trip.
// It guards against the manager's status drifting from the actual
// transport state when a status event was missed, and clears the
// watchdog retry counter.
func (m *Manager) heal() {
	m.mu.Lock()
	m.retryCount = 0
	changed := m.status != StatusConnected
	if changed {
		m.status = StatusConnected
		m.lastError = ""
	}
	m.mu.Unlock()

	if changed {
		m.logger.Info("liveness probe re-asserted connection")
		m.notifyStatus(StatusConnected)
	}
}

// pause waits the reconnect delay. Returns false if the manager was
// closed while waiting.
func (m *Manager) pause() bool {
	select {
	case <-m.done:
		return false
	case <-m.clock.After(m.reconnectDelay):
		return true
	}
}

func (m *Manager) transition(status Status, reason string) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	if status == StatusConnected {
		m.lastError = ""
	} else {
		m.socketID = ""
		if reason != "" {
			m.lastError = reason
		}
	}
	m.mu.Unlock()

	if changed {
		m.notifyStatus(status)
	}
}

func (m *Manager) notifyStatus(status Status) {
	if m.onStatusChange != nil {
		m.onStatusChange(status)
	}
}
