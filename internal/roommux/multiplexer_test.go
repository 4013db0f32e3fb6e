package roommux

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectchat/internal/models"
	"projectchat/internal/timeline"
	"projectchat/internal/unread"
)

const selfID = "u-self"

type fakeTransport struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeTransport) Send(ev models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeTransport) sent(eventType models.EventType) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rooms []string
	for _, ev := range f.events {
		if ev.Type == eventType {
			rooms = append(rooms, ev.RoomID)
		}
	}
	return rooms
}

func (f *fakeTransport) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

type fixture struct {
	mux      *Multiplexer
	fake     *fakeTransport
	timeline *timeline.Store
	unread   *unread.Tracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fake:     &fakeTransport{},
		timeline: timeline.NewStore(),
		unread:   unread.NewTracker(),
	}
	f.mux = NewMultiplexer(f.fake, f.timeline, f.unread, selfID)
	go f.mux.Run()
	t.Cleanup(f.mux.Stop)
	return f
}

func assignments(ids ...string) []models.Assignment {
	out := make([]models.Assignment, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Assignment{RoomID: id, ProjectName: "Project " + id})
	}
	return out
}

func inbound(id, roomID, senderID string) models.Event {
	return models.Event{
		Type:      models.EventTypeMessage,
		RoomID:    roomID,
		MessageID: id,
		Sender:    &models.Sender{ID: senderID, Name: "someone", Role: models.RoleMentor},
		Body:      "hi",
		CreatedAt: time.Now().UTC(),
	}
}

func TestSetRoomSetJoinsAndLeavesOnDelta(t *testing.T) {
	f := newFixture(t)

	f.mux.SetRoomSet(assignments("a", "b"))
	assert.ElementsMatch(t, []string{"a", "b"}, f.fake.sent(models.EventTypeJoin))

	f.mux.SetRoomSet(assignments("a", "c"))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, f.fake.sent(models.EventTypeJoin))
	assert.Equal(t, []string{"b"}, f.fake.sent(models.EventTypeLeave))
}

func TestRepeatedSetRoomSetIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.mux.SetRoomSet(assignments("a"))
	f.mux.SetRoomSet(assignments("a"))

	assert.Equal(t, []string{"a"}, f.fake.sent(models.EventTypeJoin))
	assert.Empty(t, f.fake.sent(models.EventTypeLeave))
}

func TestFocusedRoomLeaveDeferredUntilFocusMoves(t *testing.T) {
	f := newFixture(t)

	f.mux.SetRoomSet(assignments("a", "b"))
	f.mux.Focus("b")

	// "b" drops out of the authoritative set while the user is viewing it.
	f.mux.SetRoomSet(assignments("a"))
	assert.Empty(t, f.fake.sent(models.EventTypeLeave))
	assert.Contains(t, f.unread.Snapshot(), "b")

	f.mux.Focus("a")
	assert.Equal(t, []string{"b"}, f.fake.sent(models.EventTypeLeave))
	assert.NotContains(t, f.unread.Snapshot(), "b")
}

func TestDeferredLeaveCancelledIfRoomRelisted(t *testing.T) {
	f := newFixture(t)

	f.mux.SetRoomSet(assignments("a", "b"))
	f.mux.Focus("b")
	f.mux.SetRoomSet(assignments("a"))
	f.mux.SetRoomSet(assignments("a", "b"))

	f.mux.Focus("a")
	assert.Empty(t, f.fake.sent(models.EventTypeLeave))
	assert.Contains(t, f.unread.Snapshot(), "b")
}

func TestInboundMessageRoutesToTimelineAndUnread(t *testing.T) {
	f := newFixture(t)
	f.mux.SetRoomSet(assignments("a", "b"))
	f.mux.Focus("a")

	f.mux.HandleEvent(inbound("m1", "b", "u-other"))

	require.Eventually(t, func() bool {
		return f.unread.Snapshot()["b"] == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, f.unread.Snapshot())
	assert.Equal(t, 1, f.timeline.Len("b"))
}

func TestDuplicateDeliveryCountedOnce(t *testing.T) {
	f := newFixture(t)
	f.mux.SetRoomSet(assignments("a", "b"))
	f.mux.Focus("a")

	// Reconnect replay delivers the same message twice.
	f.mux.HandleEvent(inbound("m1", "b", "u-other"))
	f.mux.HandleEvent(inbound("m1", "b", "u-other"))

	require.Eventually(t, func() bool {
		return f.unread.Snapshot()["b"] == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.timeline.Len("b"))
}

func TestOwnEchoStoredButNeverUnread(t *testing.T) {
	f := newFixture(t)
	f.mux.SetRoomSet(assignments("a", "b"))
	f.mux.Focus("a")

	f.mux.HandleEvent(inbound("m1", "b", selfID))

	require.Eventually(t, func() bool {
		return f.timeline.Len("b") == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.unread.Snapshot()["b"])
}

func TestFocusResetsCounterAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.mux.SetRoomSet(assignments("a", "b"))
	f.mux.Focus("a")

	f.mux.HandleEvent(inbound("m1", "b", "u-other"))
	require.Eventually(t, func() bool {
		return f.unread.Snapshot()["b"] == 1
	}, time.Second, 5*time.Millisecond)

	f.mux.Focus("b")
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, f.unread.Snapshot())

	f.mux.Focus("b")
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, f.unread.Snapshot())
}

func TestReconnectRejoinsEveryRoom(t *testing.T) {
	f := newFixture(t)
	f.mux.SetRoomSet(assignments("a", "b"))
	f.fake.clear()

	f.mux.NotifyReconnected()

	require.Eventually(t, func() bool {
		return len(f.fake.sent(models.EventTypeJoin)) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b"}, f.fake.sent(models.EventTypeJoin))
}

func TestMalformedEventsIgnored(t *testing.T) {
	f := newFixture(t)
	f.mux.SetRoomSet(assignments("a"))

	f.mux.HandleEvent(models.Event{Type: models.EventTypeMessage, RoomID: "a"})
	f.mux.HandleEvent(models.Event{Type: models.EventTypeJoin, RoomID: "a"})

	// Barrier: the queue is processed in order, so once this synchronous
	// call returns the events above have been handled.
	f.mux.SetRoomSet(assignments("a"))
	assert.Zero(t, f.timeline.Len("a"))
}
