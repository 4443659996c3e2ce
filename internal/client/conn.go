package client

import (
	"context"
	"time"

	"github.com/comment-sync-api/internal/protocol"
	"github.com/gorilla/websocket"
)

// Conn is the session's view of its live connection. The session owns
// exactly one at a time; there is no sharing or pooling.
type Conn interface {
	WriteMessage(data []byte) error
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens live connections. Injected so tests can run without a
// network.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// NewDialer returns the production gorilla/websocket dialer
func NewDialer() Dialer {
	return wsDialer{d: websocket.DefaultDialer}
}

type wsDialer struct {
	d *websocket.Dialer
}

func (w wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := w.d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) WriteMessage(data []byte) error {
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	return data, err
}

// Close sends a normal-closure frame before closing the underlying socket.
func (w *wsConn) Close() error {
	w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}

// Connect opens the live channel. The first dial happens synchronously and
// its error is returned; regardless of the outcome, the reconnect machinery
// takes over from there, so a failed first dial is not fatal to the session.
func (s *Session) Connect(ctx context.Context) error {
	s.runOnce.Do(func() { go s.runLoop() })
	return s.connect(ctx)
}

func (s *Session) connect(ctx context.Context) error {
	s.mu.Lock()
	if s.intentional || s.state == StateError {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.cfg.Dialer.Dial(ctx, s.cfg.Endpoint)
	if err != nil {
		s.log.Warn().Err(err).Msg("Connect failed")
		s.scheduleReconnect(ctx)
		return err
	}

	// Announce which post we are viewing and as whom.
	data, err := protocol.Encode(protocol.ChannelUpdate{
		PostType:  s.cfg.PostType,
		PostID:    s.cfg.PostID,
		InvokerID: s.viewerID,
	})
	if err == nil {
		err = conn.WriteMessage(data)
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Channel announce failed")
		conn.Close()
		s.scheduleReconnect(ctx)
		return err
	}

	s.mu.Lock()
	if s.intentional {
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.conn = conn
	s.state = StateConnected
	s.retries = 0
	s.mu.Unlock()

	s.log.Debug().Msg("Live channel connected")
	go s.readLoop(ctx, conn)
	return nil
}

// scheduleReconnect arms the fixed-delay retry, or parks the session in the
// error state once the retry budget is spent.
func (s *Session) scheduleReconnect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.intentional || s.state == StateError {
		return
	}
	if s.retries >= s.cfg.MaxRetries {
		s.state = StateError
		s.log.Error().Int("retries", s.retries).Msg("Retry budget exhausted, giving up on live channel")
		return
	}
	s.retries++
	s.state = StateDisconnected
	attempt := s.retries
	s.retryTimer = time.AfterFunc(s.cfg.RetryInterval, func() {
		s.log.Debug().Int("attempt", attempt).Msg("Reconnecting")
		s.connect(ctx)
	})
}

// readLoop reads frames from one connection incarnation, decoding them and
// feeding the session's single consumption loop. A read error on a
// non-intentional close hands control to the reconnect machinery.
func (s *Session) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				if s.state == StateConnected {
					s.state = StateDisconnected
				}
			}
			intentional := s.intentional
			s.mu.Unlock()

			if !intentional {
				s.log.Warn().Err(err).Msg("Live channel dropped")
				s.scheduleReconnect(ctx)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			// Malformed payloads are logged and dropped; they must never
			// crash the reconciler.
			s.log.Warn().Err(err).Msg("Dropping malformed broadcast")
			continue
		}

		select {
		case s.inbound <- msg:
		case <-s.done:
			return
		}
	}
}
