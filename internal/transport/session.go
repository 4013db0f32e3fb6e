package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"projectchat/internal/models"
	"projectchat/pkg/logger"

	"github.com/gorilla/websocket"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler receives inbound events in the order the transport delivers
// them. Delivery order is not chronological across rooms; callers that
// need chronological order must sort on their side.
type Handler func(models.Event)

type Options struct {
	// URL of the chat endpoint, e.g. ws://host:port/ws.
	URL string
	// HandshakeTimeout bounds the websocket handshake; a connect that
	// exceeds it fails with a NetworkError.
	HandshakeTimeout time.Duration
	// BackoffMin and BackoffMax bound the reconnect delay. The delay
	// starts at BackoffMin and doubles per failed attempt up to BackoffMax.
	BackoffMin time.Duration
	BackoffMax time.Duration
	// MaxReconnectAttempts caps reconnection tries before the session
	// gives up and goes to disconnected. Zero means retry forever.
	MaxReconnectAttempts int
}

func (o *Options) applyDefaults() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 30 * time.Second
	}
}

// Session owns one persistent websocket connection, authenticated once at
// connect time via the token query parameter. It reconnects on unexpected
// drops with capped exponential backoff and re-attaches the same token on
// every attempt.
//
// OnMessage, OnReconnect and OnStateChange must be set before Connect.
// Callbacks must not call back into the Session synchronously.
type Session struct {
	opts Options

	handler     Handler
	onReconnect func()
	onState     func(State)

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	token    string
	lastErr  error
	lifetime context.Context
	cancel   context.CancelFunc

	// writeMu serializes frame writes; gorilla allows one writer at a time.
	writeMu sync.Mutex

	// notifyMu guards the state-change queue. Notifications are drained
	// by a single goroutine so observers see transitions in order.
	notifyMu  sync.Mutex
	notifyQ   []State
	notifying bool
}

func NewSession(opts Options) *Session {
	opts.applyDefaults()
	return &Session{
		opts:  opts,
		state: StateDisconnected,
	}
}

func (s *Session) OnMessage(h Handler) {
	s.handler = h
}

// OnReconnect registers a callback fired after every successful
// re-establishment of a dropped connection. The multiplexer uses it to
// re-issue joins for the current room set.
func (s *Session) OnReconnect(fn func()) {
	s.onReconnect = fn
}

func (s *Session) OnStateChange(fn func(State)) {
	s.onState = fn
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError reports the error that moved the session to its current
// state, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Connect establishes the connection. It returns an *AuthError if the
// server rejects the token and a *NetworkError if the endpoint is
// unreachable or the handshake times out.
func (s *Session) Connect(ctx context.Context, token string) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return errors.New("transport: already connected")
	}
	s.token = token
	s.lastErr = nil
	s.lifetime, s.cancel = context.WithCancel(context.Background())
	lifetime := s.lifetime
	s.setState(StateConnecting)
	s.mu.Unlock()

	conn, err := s.dial(ctx, token)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.cancel()
		s.setState(StateDisconnected)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	select {
	case <-lifetime.Done():
		// Disconnect landed while the handshake was in flight; it already
		// settled the state, so the fresh connection must not come up.
		s.mu.Unlock()
		conn.Close()
		return nil
	default:
	}
	s.conn = conn
	s.setState(StateConnected)
	s.mu.Unlock()

	go s.readLoop(conn)
	go s.pingLoop(conn, lifetime)
	return nil
}

// Disconnect releases the connection and deterministically stops any
// in-flight reconnect backoff. It is idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		deadline := time.Now().Add(writeWait)
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.conn.Close()
		s.conn = nil
	}
	s.setState(StateDisconnected)
}

// Send fires an outbound event. It fails with ErrNotConnected while the
// session is connecting, reconnecting or disconnected; events are never
// queued for later delivery.
func (s *Session) Send(ev models.Event) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		return &NetworkError{Op: "send", Err: err}
	}
	return nil
}

func (s *Session) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.opts.HandshakeTimeout}
	endpoint := s.opts.URL + "?token=" + url.QueryEscape(token)
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, &AuthError{Reason: resp.Status}
		}
		return nil, &NetworkError{Op: "dial", Err: err}
	}
	return conn, nil
}

func (s *Session) readLoop(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev models.Event
		if err := conn.ReadJSON(&ev); err != nil {
			s.handleReadError(conn, err)
			return
		}

		if ev.Type == models.EventTypeAuthError {
			// The server revoked the session; fatal, no retry.
			s.fail(&AuthError{Reason: ev.Reason})
			if s.handler != nil {
				s.handler(ev)
			}
			return
		}

		if s.handler != nil {
			s.handler(ev)
		}
	}
}

func (s *Session) handleReadError(conn *websocket.Conn, err error) {
	conn.Close()

	s.mu.Lock()
	if s.conn != conn {
		// A newer connection superseded this one.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	select {
	case <-s.lifetime.Done():
		// Deliberate disconnect; state already settled.
		s.mu.Unlock()
		return
	default:
	}
	s.lastErr = &NetworkError{Op: "read", Err: err}
	s.setState(StateReconnecting)
	lifetime := s.lifetime
	token := s.token
	s.mu.Unlock()

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		logger.Error("Connection lost: %v", err)
	}
	go s.reconnectLoop(lifetime, token)
}

func (s *Session) reconnectLoop(lifetime context.Context, token string) {
	delay := s.opts.BackoffMin
	for attempt := 1; s.opts.MaxReconnectAttempts == 0 || attempt <= s.opts.MaxReconnectAttempts; attempt++ {
		timer := time.NewTimer(delay)
		select {
		case <-lifetime.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		conn, err := s.dial(lifetime, token)
		if err == nil {
			s.mu.Lock()
			select {
			case <-lifetime.Done():
				s.mu.Unlock()
				conn.Close()
				return
			default:
			}
			s.conn = conn
			s.lastErr = nil
			s.setState(StateConnected)
			s.mu.Unlock()

			logger.Info("Reconnected after %d attempt(s)", attempt)
			go s.readLoop(conn)
			go s.pingLoop(conn, lifetime)
			if s.onReconnect != nil {
				s.onReconnect()
			}
			return
		}

		var authErr *AuthError
		if errors.As(err, &authErr) {
			s.fail(err)
			return
		}

		logger.Debug("Reconnect attempt %d failed: %v", attempt, err)
		delay *= 2
		if delay > s.opts.BackoffMax {
			delay = s.opts.BackoffMax
		}
	}
	s.fail(&NetworkError{Op: "reconnect", Err: errors.New("retry attempts exhausted")})
}

// fail moves the session to disconnected with a terminal error.
func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return
	}
	s.lastErr = err
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.setState(StateDisconnected)
}

func (s *Session) pingLoop(conn *websocket.Conn, lifetime context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-lifetime.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// setState must be called with mu held.
func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	s.state = st
	if s.onState == nil {
		return
	}
	s.notifyMu.Lock()
	s.notifyQ = append(s.notifyQ, st)
	if !s.notifying {
		s.notifying = true
		go s.notifyLoop()
	}
	s.notifyMu.Unlock()
}

// notifyLoop delivers queued state changes one at a time, in the order
// the transitions happened, and exits once the queue drains.
func (s *Session) notifyLoop() {
	for {
		s.notifyMu.Lock()
		if len(s.notifyQ) == 0 {
			s.notifying = false
			s.notifyMu.Unlock()
			return
		}
		st := s.notifyQ[0]
		s.notifyQ = s.notifyQ[1:]
		s.notifyMu.Unlock()
		s.onState(st)
	}
}
