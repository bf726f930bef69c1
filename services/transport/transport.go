package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"webchat/apperrors"
	"webchat/pkg/logger"
	"webchat/pkg/metrics"
	"webchat/services/chat"

	"github.com/fasthttp/websocket"
)

// State is the connection state of a Transport
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateExhausted
	// StateClosed is terminal: Close was called and nothing reconnects
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type Config struct {
	URL            string
	UserID         chat.ID
	ReconnectDelay time.Duration
	MaxAttempts    int
	WriteTimeout   time.Duration
}

// Handlers are invoked from the transport's goroutines
type Handlers struct {
	// OnEvent receives every decoded inbound frame
	OnEvent func(chat.Event)

	// OnExhausted receives the blocking notice once the retry budget is spent
	OnExhausted func(*apperrors.AppError)
}

// Transport keeps one socket to the chat backend open, reconnecting after a
// closure up to MaxAttempts consecutive times.
type Transport struct {
	cfg      Config
	dialer   Dialer
	handlers Handlers
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	conn     Conn
	attempts int
	timer    *time.Timer

	writeMu sync.Mutex
}

func New(cfg Config, dialer Dialer, h Handlers) *Transport {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		cfg:      cfg,
		dialer:   dialer,
		handlers: h,
		log:      logger.WithComponent("transport").WithUserID(int64(cfg.UserID)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Attempts is the number of consecutive reconnect attempts since the last successful open
func (t *Transport) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// Connect starts the first dial. It is a no-op unless the transport is disconnected.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.state != StateDisconnected {
		t.mu.Unlock()
		return
	}
	t.state = StateConnecting
	t.mu.Unlock()

	go t.dial()
}

func (t *Transport) dial() {
	conn, err := t.dialer.Dial(t.ctx, t.cfg.URL)

	t.mu.Lock()
	if t.state != StateConnecting {
		t.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		t.log.WithError(err).Warn("socket dial failed")
		t.state = StateDisconnected
		t.scheduleLocked()
		t.mu.Unlock()
		return
	}
	t.conn = conn
	t.state = StateConnected
	t.mu.Unlock()

	metrics.IncrementSocketConnects()
	t.log.WithField("url", t.cfg.URL).Info("socket open")

	t.Send(chat.LoginFrame(t.cfg.UserID))
	t.Send(chat.WebOnlineFrame(t.cfg.UserID))

	t.mu.Lock()
	t.attempts = 0
	t.mu.Unlock()

	go t.readLoop(conn)
}

// scheduleLocked arms exactly one reconnect; t.mu must be held
func (t *Transport) scheduleLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.cfg.ReconnectDelay, t.reconnect)
}

func (t *Transport) reconnect() {
	t.mu.Lock()
	if t.state != StateDisconnected {
		t.mu.Unlock()
		return
	}
	if t.attempts >= t.cfg.MaxAttempts {
		t.state = StateExhausted
		attempts := t.attempts
		t.mu.Unlock()

		notice := apperrors.NewSocketExhaustedError(t.cfg.URL, attempts)
		metrics.IncrementSocketExhausted()
		logger.LogAppError(notice, logger.ERROR)
		if t.handlers.OnExhausted != nil {
			t.handlers.OnExhausted(notice)
		}
		return
	}
	t.attempts++
	attempt := t.attempts
	t.state = StateConnecting
	t.mu.Unlock()

	metrics.IncrementReconnectAttempts()
	t.log.WithField("attempt", attempt).Info("reconnecting")
	t.dial()
}

// closed handles the end of conn's read loop. Only the current connection
// may trigger a reconnect.
func (t *Transport) closed(conn Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != conn || t.state != StateConnected {
		return
	}
	t.conn = nil
	t.state = StateDisconnected
	t.scheduleLocked()
}

func (t *Transport) readLoop(conn Conn) {
	defer conn.Close()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.log.WithError(err).Warn("socket closed unexpectedly")
			} else {
				t.log.WithError(err).Debug("socket closed")
			}
			t.closed(conn)
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		metrics.IncrementFramesReceived()
		ev, err := chat.DecodeEvent(data)
		if err != nil {
			metrics.IncrementFramesMalformed()
			logger.LogAppErrorWithContext(apperrors.NewFrameMalformedError(len(data), err), logger.WARN,
				map[string]any{"user_id": int64(t.cfg.UserID)})
			continue
		}
		if t.handlers.OnEvent != nil {
			t.handlers.OnEvent(ev)
		}
	}
}

// Send writes payload as a JSON text frame if the socket is open. It never
// queues: false means the frame was not written.
func (t *Transport) Send(payload any) bool {
	t.mu.Lock()
	conn, open := t.conn, t.state == StateConnected
	t.mu.Unlock()

	if !open || conn == nil {
		metrics.RecordFrameSent(false)
		return false
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.log.WithError(err).Error("encode outbound frame")
		metrics.RecordFrameSent(false)
		return false
	}

	if err := t.write(conn, websocket.TextMessage, data, time.Now().Add(t.cfg.WriteTimeout)); err != nil {
		t.log.WithError(err).Warn("socket write failed")
		metrics.RecordFrameSent(false)
		return false
	}
	metrics.RecordFrameSent(true)
	return true
}

func (t *Transport) write(conn Conn, mt int, data []byte, deadline time.Time) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return conn.WriteMessage(mt, data)
}

// Close announces logout when the socket is open and a session exists, then
// closes the socket and stops reconnecting. The logout write is best effort
// and bounded by ctx and the write timeout.
func (t *Transport) Close(ctx context.Context) {
	t.mu.Lock()
	prev, conn := t.state, t.conn
	t.state = StateClosed
	t.conn = nil
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()

	t.cancel()

	if prev != StateConnected || conn == nil {
		return
	}

	deadline := time.Now().Add(t.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if t.cfg.UserID != 0 {
		data, _ := json.Marshal(chat.LogoutFrame(t.cfg.UserID))
		if err := t.write(conn, websocket.TextMessage, data, deadline); err != nil {
			t.log.WithError(err).Warn("logout announcement not delivered")
		}
	}
	_ = t.write(conn, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	conn.Close()
	t.log.Info("socket closed by client")
}
