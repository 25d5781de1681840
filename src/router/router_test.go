package router

import (
	"sync"
	"testing"

	"github.com/bizdesk/realtime/src/registry"
	"github.com/bizdesk/realtime/src/rooms"
	"github.com/bizdesk/realtime/src/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// recordingSink captures enqueued frames; poisoned sinks refuse every
// frame, standing in for a session with a full buffer.
type recordingSink struct {
	mu       sync.Mutex
	frames   []types.Frame
	poisoned bool
}

func (r *recordingSink) Enqueue(f types.Frame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poisoned {
		return false
	}
	r.frames = append(r.frames, f)
	return true
}

func (r *recordingSink) received() []types.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]types.Frame, len(r.frames))
	copy(cp, r.frames)
	return cp
}

type fixture struct {
	reg    *registry.Registry
	rooms  *rooms.Manager
	router *Router
}

func newFixture() *fixture {
	reg := registry.New()
	rm := rooms.New()
	return &fixture{reg: reg, rooms: rm, router: New(reg, rm, zerolog.Nop())}
}

func (f *fixture) addSession(id string) *recordingSink {
	sink := &recordingSink{}
	f.reg.Register(id, sink)
	return sink
}

func note(msg string) types.Notification {
	return types.Notification{Message: msg, Kind: types.KindInfo}
}

func TestDeliverToUserReachesOnlyNewestSession(t *testing.T) {
	f := newFixture()
	old := f.addSession("s1")
	fresh := f.addSession("s2")

	id := types.Identity{UserID: "u1", TenantID: "t1"}
	f.reg.AttachIdentity("s1", id)
	f.reg.AttachIdentity("s2", id)

	f.router.Deliver(types.UserTarget{UserID: "u1"}, note("hi"))

	assert.Empty(t, old.received())
	got := fresh.received()
	if assert.Len(t, got, 1) {
		assert.Equal(t, types.EventNotification, got[0].Event)
		assert.Equal(t, "hi", got[0].Payload.Message)
	}
}

func TestDeliverToOfflineUserIsSilent(t *testing.T) {
	f := newFixture()
	bystander := f.addSession("s1")

	f.router.Deliver(types.UserTarget{UserID: "nobody"}, note("lost"))

	assert.Empty(t, bystander.received())
}

func TestTenantDeliveryScopedToSubscribedSessions(t *testing.T) {
	f := newFixture()
	member := f.addSession("s1")
	otherTenant := f.addSession("s2")
	anonymous := f.addSession("s3")

	f.reg.AttachIdentity("s1", types.Identity{UserID: "u1", TenantID: "t1"})
	f.rooms.Join(types.TenantRoomKey("t1"), "s1")
	f.reg.AttachIdentity("s2", types.Identity{UserID: "u2", TenantID: "t2"})
	f.rooms.Join(types.TenantRoomKey("t2"), "s2")

	f.router.Deliver(types.TenantTarget{TenantID: "t1"}, note("tenant news"))

	assert.Len(t, member.received(), 1)
	assert.Empty(t, otherTenant.received())
	assert.Empty(t, anonymous.received())
	assert.Equal(t, types.EventNotification, member.received()[0].Event)
}

func TestRoomDeliveryAndDisconnect(t *testing.T) {
	f := newFixture()
	a := f.addSession("a")
	b := f.addSession("b")
	f.rooms.Join("r1", "a")
	f.rooms.Join("r1", "b")

	f.router.Deliver(types.RoomTarget{Key: "r1"}, note("p"))
	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
	assert.Equal(t, types.EventNewMessage, a.received()[0].Event)
	assert.Equal(t, "r1", a.received()[0].Room)

	// a disconnects.
	f.rooms.LeaveAll("a")
	f.reg.Unregister("a")

	f.router.Deliver(types.RoomTarget{Key: "r1"}, note("p2"))
	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 2)
}

func TestRoomDeliveryExcludesSender(t *testing.T) {
	f := newFixture()
	sender := f.addSession("a")
	peer := f.addSession("b")
	f.rooms.Join("r1", "a")
	f.rooms.Join("r1", "b")

	f.router.Deliver(types.RoomTarget{Key: "r1", Except: "a"}, note("from a"))

	assert.Empty(t, sender.received())
	assert.Len(t, peer.received(), 1)
}

func TestBroadcastReachesEverySession(t *testing.T) {
	f := newFixture()
	identified1 := f.addSession("s1")
	identified2 := f.addSession("s2")
	anonymous := f.addSession("s3")

	f.reg.AttachIdentity("s1", types.Identity{UserID: "u1", TenantID: "t1"})
	f.reg.AttachIdentity("s2", types.Identity{UserID: "u2", TenantID: "t1"})

	f.router.Deliver(types.BroadcastTarget{}, note("everyone"))

	assert.Len(t, identified1.received(), 1)
	assert.Len(t, identified2.received(), 1)
	assert.Len(t, anonymous.received(), 1)
}

func TestPoisonedRecipientDoesNotAbortFanout(t *testing.T) {
	f := newFixture()
	first := f.addSession("s1")
	poisoned := f.addSession("s2")
	poisoned.poisoned = true
	last := f.addSession("s3")
	f.rooms.Join("r1", "s1")
	f.rooms.Join("r1", "s2")
	f.rooms.Join("r1", "s3")

	f.router.Deliver(types.RoomTarget{Key: "r1"}, note("p"))

	assert.Len(t, first.received(), 1)
	assert.Empty(t, poisoned.received())
	assert.Len(t, last.received(), 1)
}

func TestSessionGoneBetweenResolveAndWriteIsSkipped(t *testing.T) {
	f := newFixture()
	survivor := f.addSession("s1")
	f.rooms.Join("r1", "s1")
	// s2 is in the room snapshot but its registry entry is gone.
	f.rooms.Join("r1", "s2")

	f.router.Deliver(types.RoomTarget{Key: "r1"}, note("p"))

	assert.Len(t, survivor.received(), 1)
}

// bridgeSpy records what the router publishes across instances.
type bridgeSpy struct {
	mu        sync.Mutex
	published []types.Target
	available bool
}

func (b *bridgeSpy) Publish(target types.Target, n types.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, target)
	return nil
}

func (b *bridgeSpy) Available() bool { return b.available }

func TestDeliverPublishesToBridge(t *testing.T) {
	f := newFixture()
	spy := &bridgeSpy{available: true}
	f.router.SetBridge(spy)

	f.router.Deliver(types.BroadcastTarget{}, note("p"))

	spy.mu.Lock()
	defer spy.mu.Unlock()
	if assert.Len(t, spy.published, 1) {
		assert.IsType(t, types.BroadcastTarget{}, spy.published[0])
	}
}

func TestDeliverLocalSkipsBridge(t *testing.T) {
	f := newFixture()
	spy := &bridgeSpy{available: true}
	f.router.SetBridge(spy)

	f.router.DeliverLocal(types.BroadcastTarget{}, note("relayed"))

	spy.mu.Lock()
	defer spy.mu.Unlock()
	assert.Empty(t, spy.published)
}

func TestUnavailableBridgeIsIgnored(t *testing.T) {
	f := newFixture()
	sink := f.addSession("s1")
	spy := &bridgeSpy{available: false}
	f.router.SetBridge(spy)

	f.router.Deliver(types.BroadcastTarget{}, note("p"))

	spy.mu.Lock()
	published := len(spy.published)
	spy.mu.Unlock()
	assert.Zero(t, published)
	assert.Len(t, sink.received(), 1)
}
