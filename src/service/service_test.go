package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bizdesk/realtime/src/hub"
	"github.com/bizdesk/realtime/src/registry"
	"github.com/bizdesk/realtime/src/rooms"
	"github.com/bizdesk/realtime/src/router"
	"github.com/bizdesk/realtime/src/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	mu       sync.Mutex
	written  []types.Frame
	closed   bool
	closedCh chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{closedCh: make(chan struct{})}
}

func (m *mockConn) WriteJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := v.(types.Frame); ok {
		m.written = append(m.written, f)
	}
	return nil
}

func (m *mockConn) ReadJSON(v any) error {
	<-m.closedCh
	return errors.New("connection closed")
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

func (m *mockConn) getWritten() []types.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]types.Frame, len(m.written))
	copy(cp, m.written)
	return cp
}

type harness struct {
	reg     *registry.Registry
	rooms   *rooms.Manager
	hub     *hub.Hub
	service *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := registry.New()
	rm := rooms.New()
	rt := router.New(reg, rm, zerolog.Nop())
	h := hub.New(reg, rm, rt, nil, zerolog.Nop())
	go h.Run()
	t.Cleanup(h.Stop)
	return &harness{reg: reg, rooms: rm, hub: h, service: New(h, rt, zerolog.Nop())}
}

func (ha *harness) connect(t *testing.T, id string) *mockConn {
	t.Helper()
	conn := newMockConn()
	s := hub.NewSession(id, conn, ha.hub, 16, 0)
	ha.hub.Register(s)
	go s.WritePump()
	go s.ReadPump()
	time.Sleep(20 * time.Millisecond)
	return conn
}

func TestNotifyUser(t *testing.T) {
	ha := newHarness(t)
	conn := ha.connect(t, "s1")
	ha.reg.AttachIdentity("s1", types.Identity{UserID: "alice", TenantID: "acme"})

	ha.service.NotifyUser("alice", types.Notification{Title: "Invoice overdue"})
	time.Sleep(50 * time.Millisecond)

	written := conn.getWritten()
	require.Len(t, written, 1)
	assert.Equal(t, types.EventNotification, written[0].Event)
	assert.Equal(t, "Invoice overdue", written[0].Payload.Title)
}

func TestNotifyOfflineUserIsSilent(t *testing.T) {
	ha := newHarness(t)
	conn := ha.connect(t, "s1")

	ha.service.NotifyUser("ghost", types.Notification{Title: "lost"})
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, conn.getWritten())
}

func TestDeliverStampsMissingFields(t *testing.T) {
	ha := newHarness(t)
	conn := ha.connect(t, "s1")

	ha.service.Broadcast(types.Notification{Message: "maintenance at noon"})
	time.Sleep(50 * time.Millisecond)

	written := conn.getWritten()
	require.Len(t, written, 1)
	n := written[0].Payload
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Timestamp.IsZero())
	assert.Equal(t, types.KindInfo, n.Kind)
}

func TestDeliverKeepsProducerFields(t *testing.T) {
	ha := newHarness(t)
	conn := ha.connect(t, "s1")

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ha.service.Broadcast(types.Notification{ID: "n-7", Kind: types.KindWarning, Timestamp: ts})
	time.Sleep(50 * time.Millisecond)

	written := conn.getWritten()
	require.Len(t, written, 1)
	assert.Equal(t, "n-7", written[0].Payload.ID)
	assert.Equal(t, types.KindWarning, written[0].Payload.Kind)
	assert.Equal(t, ts, written[0].Payload.Timestamp.UTC())
}

func TestNotifyRoom(t *testing.T) {
	ha := newHarness(t)
	a := ha.connect(t, "a")
	b := ha.connect(t, "b")
	ha.rooms.Join("deals", "a")
	ha.rooms.Join("deals", "b")

	ha.service.NotifyRoom("deals", types.Notification{Message: "deal closed"})
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, a.getWritten(), 1)
	assert.Len(t, b.getWritten(), 1)
	assert.Equal(t, types.EventNewMessage, a.getWritten()[0].Event)
}

func TestNotifyTenant(t *testing.T) {
	ha := newHarness(t)
	member := ha.connect(t, "s1")
	outsider := ha.connect(t, "s2")
	ha.reg.AttachIdentity("s1", types.Identity{UserID: "alice", TenantID: "acme"})
	ha.rooms.Join(types.TenantRoomKey("acme"), "s1")

	ha.service.NotifyTenant("acme", types.Notification{Message: "tenant-wide"})
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, member.getWritten(), 1)
	assert.Empty(t, outsider.getWritten())
}

func TestSessionQueries(t *testing.T) {
	ha := newHarness(t)
	ha.connect(t, "s1")
	ha.connect(t, "s2")

	assert.Equal(t, 2, ha.service.SessionCount())
	assert.ElementsMatch(t, []string{"s1", "s2"}, ha.service.ConnectedSessions())

	info, err := ha.service.SessionInfo("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", info.ID)

	_, err = ha.service.SessionInfo("ghost")
	assert.Error(t, err)
}

func TestRoomsQuery(t *testing.T) {
	ha := newHarness(t)
	ha.connect(t, "s1")
	ha.rooms.Join("r1", "s1")

	assert.Equal(t, map[string]int{"r1": 1}, ha.service.Rooms())
}
