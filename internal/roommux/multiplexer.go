package roommux

import (
	"projectchat/internal/models"
	"projectchat/internal/timeline"
	"projectchat/internal/unread"
	"projectchat/pkg/logger"
)

// Transport is the slice of the session the multiplexer drives.
type Transport interface {
	Send(models.Event) error
}

type task struct {
	run  func()
	done chan struct{}
}

// Multiplexer owns the room set and the focused room. It routes every
// inbound message event to the timeline store and the unread tracker, and
// issues join/leave events as the externally-supplied assignment list
// changes. All state is mutated on a single Run goroutine, so inbound
// events are processed one at a time in delivery order.
type Multiplexer struct {
	session  Transport
	timeline *timeline.Store
	unread   *unread.Tracker
	selfID   string

	queue    chan task
	shutdown chan struct{}

	onMessage func(models.Message)

	// Owned by the Run goroutine.
	joined   map[string]string // room id -> project name
	focused  string
	deferred map[string]struct{} // rooms to leave once focus moves away
}

func NewMultiplexer(session Transport, store *timeline.Store, tracker *unread.Tracker, selfID string) *Multiplexer {
	return &Multiplexer{
		session:  session,
		timeline: store,
		unread:   tracker,
		selfID:   selfID,
		queue:    make(chan task, 256),
		shutdown: make(chan struct{}),
		joined:   make(map[string]string),
		deferred: make(map[string]struct{}),
	}
}

// OnMessage registers a callback invoked for every newly stored message,
// after timeline and unread state have been updated. Set before Run.
// The callback runs on the Run goroutine and must not call SetRoomSet or
// Focus, which wait on that same goroutine.
func (m *Multiplexer) OnMessage(fn func(models.Message)) {
	m.onMessage = fn
}

// Run processes the event queue until Stop. Start it exactly once.
func (m *Multiplexer) Run() {
	for {
		select {
		case <-m.shutdown:
			return
		case t := <-m.queue:
			if t.run != nil {
				t.run()
			}
			if t.done != nil {
				close(t.done)
			}
		}
	}
}

func (m *Multiplexer) Stop() {
	close(m.shutdown)
}

// HandleEvent feeds one inbound transport event into the queue. Wire it
// to Session.OnMessage; ordering is preserved because the session's read
// loop is a single goroutine.
func (m *Multiplexer) HandleEvent(ev models.Event) {
	m.enqueue(task{run: func() { m.handleInbound(ev) }})
}

// NotifyReconnected re-issues joins for every subscribed room. Wire it to
// Session.OnReconnect; joins are idempotent server-side, so rooms that
// never dropped are unaffected.
func (m *Multiplexer) NotifyReconnected() {
	m.enqueue(task{run: m.rejoinAll})
}

// SetRoomSet reconciles subscriptions against the authoritative
// assignment list: newly listed rooms are joined, delisted rooms are
// left. The focused room is never left mid-session; its leave is
// deferred until focus moves away.
func (m *Multiplexer) SetRoomSet(assignments []models.Assignment) {
	m.do(func() { m.handleRoomSet(assignments) })
}

// Focus declares the room currently visible to the user, or none when
// empty. Focusing a room zeroes its unread counter; re-focusing the
// focused room is a no-op beyond that reset.
func (m *Multiplexer) Focus(roomID string) {
	m.do(func() { m.handleFocus(roomID) })
}

func (m *Multiplexer) enqueue(t task) {
	select {
	case m.queue <- t:
	case <-m.shutdown:
	}
}

func (m *Multiplexer) do(fn func()) {
	t := task{run: fn, done: make(chan struct{})}
	select {
	case m.queue <- t:
	case <-m.shutdown:
		return
	}
	select {
	case <-t.done:
	case <-m.shutdown:
	}
}

func (m *Multiplexer) handleInbound(ev models.Event) {
	if ev.Type != models.EventTypeMessage {
		return
	}
	msg := ev.Message()
	if msg.ID == "" || msg.RoomID == "" {
		logger.Debug("Dropping malformed message event in room %q", ev.RoomID)
		return
	}
	if !m.timeline.Append(msg.RoomID, msg) {
		// Duplicate delivery (reconnect replay or echo overlap).
		return
	}
	m.unread.RecordInbound(msg.RoomID, msg.Sender.ID == m.selfID)
	if m.onMessage != nil {
		m.onMessage(msg)
	}
}

func (m *Multiplexer) handleRoomSet(assignments []models.Assignment) {
	next := make(map[string]string, len(assignments))
	for _, a := range assignments {
		next[a.RoomID] = a.ProjectName
	}

	for id, name := range next {
		delete(m.deferred, id)
		if _, ok := m.joined[id]; ok {
			m.joined[id] = name
			continue
		}
		m.joined[id] = name
		m.sendControl(models.JoinEvent(id))
	}

	for id := range m.joined {
		if _, keep := next[id]; keep {
			continue
		}
		if id == m.focused {
			// Keep the room the user is looking at; leave once focus moves.
			m.deferred[id] = struct{}{}
			continue
		}
		delete(m.joined, id)
		m.sendControl(models.LeaveEvent(id))
	}

	m.unread.SetRoomSet(m.roomIDs())
}

func (m *Multiplexer) handleFocus(roomID string) {
	if roomID == m.focused {
		if roomID != "" {
			m.unread.Reset(roomID)
		}
		return
	}

	prev := m.focused
	m.focused = roomID
	m.unread.SetFocus(roomID)

	if _, pending := m.deferred[prev]; pending {
		delete(m.deferred, prev)
		delete(m.joined, prev)
		m.sendControl(models.LeaveEvent(prev))
		m.unread.SetRoomSet(m.roomIDs())
	}
}

func (m *Multiplexer) rejoinAll() {
	for id := range m.joined {
		m.sendControl(models.JoinEvent(id))
	}
}

func (m *Multiplexer) sendControl(ev models.Event) {
	if err := m.session.Send(ev); err != nil {
		// Joins are replayed on reconnect and leaves are reconciled by the
		// next SetRoomSet, so a failed control send is not fatal.
		logger.Debug("Control send %s for room %s failed: %v", ev.Type, ev.RoomID, err)
	}
}

func (m *Multiplexer) roomIDs() []string {
	ids := make([]string, 0, len(m.joined))
	for id := range m.joined {
		ids = append(ids, id)
	}
	return ids
}
