package hub

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"chatrelay/domain"
)

var ErrAlreadyRegistered = errors.New("connection already registered")

type session struct {
	conn domain.Connection
	name string
	life int
}

// Hub is the broker's session registry. Sessions are kept in registration
// order so name lookups resolve duplicates to the earliest connection.
type Hub struct {
	sessions []*session
	byID     map[string]*session
	mu       sync.RWMutex
}

func New() *Hub {
	return &Hub{
		byID: make(map[string]*session),
	}
}

func (h *Hub) Register(conn domain.Connection) error {
	h.mu.Lock()
	if _, exists := h.byID[conn.ID()]; exists {
		h.mu.Unlock()
		return fmt.Errorf("register %s: %w", conn.ID(), ErrAlreadyRegistered)
	}
	s := &session{conn: conn}
	h.sessions = append(h.sessions, s)
	h.byID[conn.ID()] = s
	count := len(h.sessions)
	h.mu.Unlock()

	slog.Info("client connected", "clientId", conn.ID(), "clients", count)
	return nil
}

// SetName names the session and resets its life. Only the first name sticks.
func (h *Hub) SetName(conn domain.Connection, name string) {
	if name == "" {
		return
	}

	h.mu.Lock()
	s, exists := h.byID[conn.ID()]
	if !exists || s.name != "" {
		h.mu.Unlock()
		return
	}
	s.name = name
	s.life = domain.MaxLife
	h.mu.Unlock()

	slog.Info("client named", "clientId", conn.ID(), "name", name)
}

func (h *Hub) FindByName(name string) (domain.Connection, bool) {
	if name == "" {
		return nil, false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.sessions {
		if s.name == name {
			return s.conn, true
		}
	}
	return nil, false
}

func (h *Hub) ListNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.name != "" {
			names = append(names, s.name)
		}
	}
	return names
}

// AdjustLife subtracts delta from the session's life, never going below zero.
// Nothing happens to an unknown or already defeated session, and applied
// reports false so the caller knows no update is due.
func (h *Hub) AdjustLife(conn domain.Connection, delta int) (life int, applied bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, exists := h.byID[conn.ID()]
	if !exists || s.life <= 0 {
		return 0, false
	}
	s.life = max(s.life-delta, 0)
	return s.life, true
}

func (h *Hub) Life(conn domain.Connection) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, exists := h.byID[conn.ID()]
	if !exists {
		return 0, false
	}
	return s.life, true
}

// Remove drops the session and reports the name it carried. Removing an
// absent connection is a no-op.
func (h *Hub) Remove(conn domain.Connection) (string, bool) {
	h.mu.Lock()
	s, exists := h.byID[conn.ID()]
	if !exists {
		h.mu.Unlock()
		return "", false
	}
	delete(h.byID, conn.ID())
	for i, other := range h.sessions {
		if other == s {
			h.sessions = append(h.sessions[:i], h.sessions[i+1:]...)
			break
		}
	}
	count := len(h.sessions)
	h.mu.Unlock()

	slog.Info("client disconnected", "clientId", conn.ID(), "name", s.name, "clients", count)
	return s.name, s.name != ""
}

func (h *Hub) Connections() []domain.Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]domain.Connection, 0, len(h.sessions))
	for _, s := range h.sessions {
		conns = append(conns, s.conn)
	}
	return conns
}

func (h *Hub) Stats() (connections, named int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	connections = len(h.sessions)
	for _, s := range h.sessions {
		if s.name != "" {
			named++
		}
	}
	return connections, named
}
