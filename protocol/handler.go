package protocol

import (
	"fmt"
	"log/slog"

	"chatrelay/domain"
)

const leaveAction = "left the chat"

type Handler struct {
	registry domain.Registry
}

func NewHandler(r domain.Registry) *Handler {
	return &Handler{registry: r}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	env, err := Decode(data)
	if err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}
	slog.Debug("message received", "clientId", conn.ID(), "type", env.Kind())

	if sender := env.Sender(); sender != "" {
		h.registry.SetName(conn, sender)
	}

	out := newOutbox()
	switch msg := env.(type) {
	case domain.Command:
		if msg.Name == domain.CommandUsers {
			h.userList(out, conn)
		} else {
			h.broadcast(out, data)
		}
	case domain.Whisper:
		h.whisper(out, conn, msg)
	case domain.Attack:
		h.attack(out, conn, msg)
	default:
		h.broadcast(out, data)
	}
	out.flush()
}

// Leave announces a named session's departure to everyone still connected.
func (h *Handler) Leave(conn domain.Connection, name string) {
	if name == "" {
		return
	}

	out := newOutbox()
	note := domain.Notification{Type: domain.TypeNotification, User: name, Action: leaveAction}
	for _, c := range h.registry.Connections() {
		if c.ID() == conn.ID() {
			continue
		}
		out.add(c, note)
	}
	out.flush()
}

func (h *Handler) broadcast(out *outbox, data []byte) {
	for _, c := range h.registry.Connections() {
		out.addRaw(c, data)
	}
}

func (h *Handler) userList(out *outbox, conn domain.Connection) {
	names := h.registry.ListNames()
	out.add(conn, domain.UserList{Type: domain.TypeUserList, Users: names, Count: len(names)})
}

func (h *Handler) whisper(out *outbox, conn domain.Connection, msg domain.Whisper) {
	target, ok := h.registry.FindByName(msg.To)
	if !ok {
		out.add(conn, domain.ErrorReply{Type: domain.TypeWhisperError, Message: notFound(msg.To)})
		return
	}

	out.add(target, domain.WhisperReceived{Type: domain.TypeWhisperReceived, From: msg.From, Message: msg.Message})
	out.add(conn, domain.WhisperSent{Type: domain.TypeWhisperSent, To: msg.To, Message: msg.Message})
}

// attack applies catalog damage to the target. An attack missing from the
// catalog deals zero damage but is otherwise delivered like any other. A
// defeated target gets no life_update.
func (h *Handler) attack(out *outbox, conn domain.Connection, msg domain.Attack) {
	target, ok := h.registry.FindByName(msg.To)
	if !ok {
		out.add(conn, domain.ErrorReply{Type: domain.TypeAttackError, Message: notFound(msg.To)})
		return
	}

	out.add(target, domain.AttackReceived{Type: domain.TypeAttackReceived, From: msg.From, Attack: msg.Attack})
	out.add(conn, domain.AttackSent{Type: domain.TypeAttackSent, To: msg.To, Attack: msg.Attack})

	damage, known := domain.Damage(msg.Attack)
	if !known {
		slog.Warn("unknown attack", "clientId", conn.ID(), "attack", msg.Attack)
	}
	if life, applied := h.registry.AdjustLife(target, damage); applied {
		out.add(target, domain.LifeUpdate{Type: domain.TypeLifeUpdate, Life: life})
	}

	note := domain.AttackNotification{
		Type:    domain.TypeAttackNotification,
		Message: fmt.Sprintf("%s attacked %s with %s.", msg.From, msg.To, msg.Attack),
	}
	for _, c := range h.registry.Connections() {
		if c.ID() == conn.ID() || c.ID() == target.ID() {
			continue
		}
		out.add(c, note)
	}
}

func notFound(name string) string {
	return fmt.Sprintf("User '%s' not found.", name)
}
