package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/domain"
	"chatrelay/hub"
)

type mockConn struct {
	id      string
	sent    [][]byte
	sendErr error
	mu      sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) getSent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

// frames decodes everything the connection received into generic maps.
func (m *mockConn) frames(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, data := range m.getSent() {
		var f map[string]any
		require.NoError(t, json.Unmarshal(data, &f))
		out = append(out, f)
	}
	return out
}

func (m *mockConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, f := range m.frames(t) {
		out = append(out, f["type"].(string))
	}
	return out
}

func setup(t *testing.T, names ...string) (*Handler, *hub.Hub, []*mockConn) {
	t.Helper()
	h := hub.New()
	conns := make([]*mockConn, len(names))
	for i, name := range names {
		conns[i] = &mockConn{id: "conn-" + name}
		require.NoError(t, h.Register(conns[i]))
		h.SetName(conns[i], name)
	}
	return NewHandler(h), h, conns
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHandler_InvalidJSON(t *testing.T) {
	handler, _, conns := setup(t, "alice", "bob")

	handler.Handle(conns[0], []byte("not json"))
	handler.Handle(conns[0], []byte(`{"text":"no type"}`))
	handler.Handle(conns[0], []byte(`[1,2,3]`))

	for _, c := range conns {
		assert.Empty(t, c.getSent())
	}
}

func TestHandler_BroadcastIncludesSender(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "message", payload: `{"type":"message","user":"alice","text":"hi"}`},
		{name: "image", payload: `{"type":"image_data","user":"alice","filename":"a.png","content":"aGk="}`},
		{name: "quit command", payload: `{"type":"command","name":"quit","user":"alice"}`},
		{name: "opaque command", payload: `{"type":"command","name":"dance","user":"alice","payload":"/dance now"}`},
		{name: "unknown type", payload: `{"type":"emote","user":"alice","action":"waves"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, conns := setup(t, "alice", "bob", "carol")

			handler.Handle(conns[0], []byte(tt.payload))

			for _, c := range conns {
				sent := c.getSent()
				require.Len(t, sent, 1, "recipient %s", c.ID())
				assert.Equal(t, tt.payload, string(sent[0]))
			}
		})
	}
}

func TestHandler_BroadcastReachesUnnamedConnections(t *testing.T) {
	handler, h, conns := setup(t, "alice")
	anon := &mockConn{id: "anon"}
	require.NoError(t, h.Register(anon))

	handler.Handle(conns[0], []byte(`{"type":"message","user":"alice","text":"hi"}`))

	assert.Len(t, anon.getSent(), 1)
}

func TestHandler_LazyRegistration(t *testing.T) {
	h := hub.New()
	handler := NewHandler(h)
	conn := &mockConn{id: "c1"}
	require.NoError(t, h.Register(conn))

	handler.Handle(conn, encode(t, domain.Message{Type: domain.TypeMessage, User: "alice", Text: "hi"}))
	handler.Handle(conn, encode(t, domain.Message{Type: domain.TypeMessage, User: "mallory", Text: "hi"}))

	assert.Equal(t, []string{"alice"}, h.ListNames())
	life, ok := h.Life(conn)
	require.True(t, ok)
	assert.Equal(t, domain.MaxLife, life)
}

func TestHandler_UsersBeforeNaming(t *testing.T) {
	h := hub.New()
	handler := NewHandler(h)
	asker := &mockConn{id: "asker"}
	other := &mockConn{id: "other"}
	require.NoError(t, h.Register(asker))
	require.NoError(t, h.Register(other))

	handler.Handle(asker, []byte(`{"type":"command","name":"users"}`))

	frames := asker.frames(t)
	require.Len(t, frames, 1)
	assert.Equal(t, domain.TypeUserList, frames[0]["type"])
	assert.Equal(t, []any{}, frames[0]["users"])
	assert.Equal(t, float64(0), frames[0]["count"])
	assert.Empty(t, other.getSent())
}

func TestHandler_UsersReplyOnlyToRequester(t *testing.T) {
	handler, _, conns := setup(t, "alice", "bob")

	handler.Handle(conns[1], encode(t, domain.Command{Type: domain.TypeCommand, Name: domain.CommandUsers, User: "bob"}))

	frames := conns[1].frames(t)
	require.Len(t, frames, 1)
	assert.Equal(t, []any{"alice", "bob"}, frames[0]["users"])
	assert.Equal(t, float64(2), frames[0]["count"])
	assert.Empty(t, conns[0].getSent())
}

func TestHandler_Whisper(t *testing.T) {
	handler, _, conns := setup(t, "alice", "bob", "carol")
	alice, bob, carol := conns[0], conns[1], conns[2]

	handler.Handle(alice, encode(t, domain.Whisper{Type: domain.TypeWhisper, From: "alice", To: "bob", Message: "psst"}))

	got := bob.frames(t)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"type": "whisper_received", "from": "alice", "message": "psst"}, got[0])

	got = alice.frames(t)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"type": "whisper_sent", "to": "bob", "message": "psst"}, got[0])

	assert.Empty(t, carol.getSent())
}

func TestHandler_WhisperUnknownTarget(t *testing.T) {
	handler, _, conns := setup(t, "alice", "bob")

	handler.Handle(conns[0], encode(t, domain.Whisper{Type: domain.TypeWhisper, From: "alice", To: "nobody", Message: "hello?"}))

	got := conns[0].frames(t)
	require.Len(t, got, 1)
	assert.Equal(t, domain.TypeWhisperError, got[0]["type"])
	assert.Contains(t, got[0]["message"], "nobody")
	assert.Empty(t, conns[1].getSent())
}

func TestHandler_AttackTwoPlayers(t *testing.T) {
	handler, h, conns := setup(t, "alice", "bob")
	alice, bob := conns[0], conns[1]

	handler.Handle(alice, encode(t, domain.Attack{Type: domain.TypeAttack, From: "alice", To: "bob", Attack: "fireball"}))

	life, _ := h.Life(bob)
	assert.Equal(t, 80, life)

	got := bob.frames(t)
	require.Len(t, got, 2)
	assert.Equal(t, map[string]any{"type": "attack_received", "from": "alice", "attack": "fireball"}, got[0])
	assert.Equal(t, map[string]any{"type": "life_update", "life": float64(80)}, got[1])

	got = alice.frames(t)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"type": "attack_sent", "to": "bob", "attack": "fireball"}, got[0])
}

func TestHandler_AttackNotifiesBystanders(t *testing.T) {
	handler, h, conns := setup(t, "alice", "bob", "carol")
	anon := &mockConn{id: "anon"}
	require.NoError(t, h.Register(anon))

	handler.Handle(conns[0], encode(t, domain.Attack{Type: domain.TypeAttack, From: "alice", To: "bob", Attack: "meteor"}))

	for _, c := range []*mockConn{conns[2], anon} {
		got := c.frames(t)
		require.Len(t, got, 1)
		assert.Equal(t, domain.TypeAttackNotification, got[0]["type"])
		assert.Equal(t, "alice attacked bob with meteor.", got[0]["message"])
	}
	assert.Equal(t, []string{"attack_sent"}, conns[0].types(t))
	assert.Equal(t, []string{"attack_received", "life_update"}, conns[1].types(t))
}

func TestHandler_AttackUnknownName(t *testing.T) {
	handler, h, conns := setup(t, "alice", "bob", "carol")

	handler.Handle(conns[0], encode(t, domain.Attack{Type: domain.TypeAttack, From: "alice", To: "bob", Attack: "tickle"}))

	life, _ := h.Life(conns[1])
	assert.Equal(t, domain.MaxLife, life)

	got := conns[1].frames(t)
	require.Len(t, got, 2)
	assert.Equal(t, "attack_received", got[0]["type"])
	assert.Equal(t, map[string]any{"type": "life_update", "life": float64(100)}, got[1])
	assert.Equal(t, []string{"attack_sent"}, conns[0].types(t))
	assert.Equal(t, []string{"attack_notification"}, conns[2].types(t))
}

func TestHandler_AttackUnknownTarget(t *testing.T) {
	handler, _, conns := setup(t, "alice", "bob")

	handler.Handle(conns[0], encode(t, domain.Attack{Type: domain.TypeAttack, From: "alice", To: "ghost", Attack: "punch"}))

	assert.Equal(t, []string{"attack_error"}, conns[0].types(t))
	assert.Empty(t, conns[1].getSent())
}

func TestHandler_AttackDefeatedTarget(t *testing.T) {
	handler, h, conns := setup(t, "alice", "bob")
	h.AdjustLife(conns[1], domain.MaxLife)

	handler.Handle(conns[0], encode(t, domain.Attack{Type: domain.TypeAttack, From: "alice", To: "bob", Attack: "punch"}))

	assert.Equal(t, []string{"attack_received"}, conns[1].types(t))
	life, _ := h.Life(conns[1])
	assert.Equal(t, 0, life)
}

func TestHandler_AttackLifeNeverNegative(t *testing.T) {
	handler, h, conns := setup(t, "alice", "bob")
	attack := encode(t, domain.Attack{Type: domain.TypeAttack, From: "alice", To: "bob", Attack: "meteor"})

	prev := domain.MaxLife
	for range 6 {
		handler.Handle(conns[0], attack)
		life, _ := h.Life(conns[1])
		assert.GreaterOrEqual(t, life, 0)
		assert.LessOrEqual(t, life, prev)
		prev = life
	}
	assert.Equal(t, 0, prev)
}

func TestHandler_ConcurrentAttacksOnWeakTarget(t *testing.T) {
	names := []string{"bob"}
	for i := range 8 {
		names = append(names, fmt.Sprintf("attacker-%d", i))
	}
	handler, h, conns := setup(t, names...)
	bob := conns[0]
	h.AdjustLife(bob, domain.MaxLife-10)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, attacker := range conns[1:] {
		attack := encode(t, domain.Attack{Type: domain.TypeAttack, From: names[i+1], To: "bob", Attack: "fireball"})
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			handler.Handle(attacker, attack)
		}()
	}
	close(start)
	wg.Wait()

	var updates []float64
	received := 0
	for _, f := range bob.frames(t) {
		switch f["type"] {
		case domain.TypeLifeUpdate:
			updates = append(updates, f["life"].(float64))
		case domain.TypeAttackReceived:
			received++
		}
	}
	assert.Equal(t, len(conns)-1, received)
	assert.Equal(t, []float64{0}, updates)
}

func TestHandler_SendFailureDoesNotBlockOthers(t *testing.T) {
	handler, h, conns := setup(t, "alice", "bob")
	dead := &mockConn{id: "dead", sendErr: errors.New("broken pipe")}
	require.NoError(t, h.Register(dead))

	handler.Handle(conns[0], []byte(`{"type":"message","user":"alice","text":"hi"}`))

	assert.Len(t, conns[0].getSent(), 1)
	assert.Len(t, conns[1].getSent(), 1)
	assert.Empty(t, dead.getSent())
}

func TestHandler_Leave(t *testing.T) {
	handler, h, conns := setup(t, "alice", "bob")
	name, _ := h.Remove(conns[0])

	handler.Leave(conns[0], name)

	assert.Empty(t, conns[0].getSent())
	got := conns[1].frames(t)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"type": "notification", "user": "alice", "action": "left the chat"}, got[0])
}

func TestHandler_LeaveUnnamed(t *testing.T) {
	handler, _, conns := setup(t, "alice")

	handler.Leave(&mockConn{id: "anon"}, "")

	assert.Empty(t, conns[0].getSent())
}
