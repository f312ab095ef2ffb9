package stream

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/example/ride-tracking/internal/observability"
	"github.com/example/ride-tracking/internal/view"
)

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// DefaultWriteWait bounds every write to a viewer.
const DefaultWriteWait = 10 * time.Second

const (
	MessageView  = "view"
	MessageError = "error"
)

// Message is what a viewer receives on the tracking stream.
type Message struct {
	Type  string     `json:"type"`
	View  *view.View `json:"view,omitempty"`
	Error string     `json:"error,omitempty"`
}

var ErrClosed = errors.New("stream: session closed")

// Session is one connected viewer. Writes are serialized since a websocket
// connection supports a single concurrent writer. A failed or timed out
// write closes the session.
type Session struct {
	ID     string
	conn   Conn
	wait   time.Duration
	mu     sync.Mutex
	closed bool
}

func (s *Session) write(f func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.wait))
	if err := f(); err != nil {
		s.closed = true
		_ = s.conn.Close()
		return err
	}
	return nil
}

func (s *Session) send(m Message) error {
	return s.write(func() error { return s.conn.WriteJSON(m) })
}

// Ping sends a websocket ping control frame.
func (s *Session) Ping() error {
	return s.write(func() error { return s.conn.WriteMessage(websocket.PingMessage, nil) })
}

func (s *Session) SendView(v view.View) error { return s.send(Message{Type: MessageView, View: &v}) }

func (s *Session) SendError(msg string) error { return s.send(Message{Type: MessageError, Error: msg}) }

func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// Hub holds the open viewer sessions.
type Hub struct {
	// WriteWait bounds each write; DefaultWriteWait when zero.
	WriteWait time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub() *Hub { return &Hub{sessions: make(map[string]*Session)} }

func (h *Hub) Add(conn Conn) *Session {
	wait := h.WriteWait
	if wait <= 0 {
		wait = DefaultWriteWait
	}
	s := &Session{ID: uuid.NewString(), conn: conn, wait: wait}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
	observability.ViewersConnected.Inc()
	return s
}

// Remove closes the session and forgets it. Safe to call more than once.
func (h *Hub) Remove(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	if ok {
		observability.ViewersConnected.Dec()
	}
	_ = s.close()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll drops every session, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.mu.RUnlock()
	for _, s := range all {
		h.Remove(s)
	}
}
