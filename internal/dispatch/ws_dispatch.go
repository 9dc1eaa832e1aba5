package dispatch

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/trip-sharing/internal/models"
)

// WSSession represents a connected user session
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(n models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(n)
}

// WSRegistry holds user sessions keyed by user ID
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[string]*WSSession)} }

func (r *WSRegistry) Add(userID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

func (r *WSRegistry) Send(ctx context.Context, n models.Notice) error {
	r.mu.RLock()
	s, ok := r.sessions[n.UserID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	return s.Send(n)
}

var ErrNoSession = &NoSessionError{}

type NoSessionError struct{}

func (n *NoSessionError) Error() string { return "no ws session" }
