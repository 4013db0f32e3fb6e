package unread

import "sync"

// Tracker keeps one non-negative unread counter per subscribed room.
// The counter for the focused room is always zero: focus resets it and
// inbound messages to it never count. Self-authored messages never count
// either.
type Tracker struct {
	mu      sync.RWMutex
	counts  map[string]int
	focused string
}

func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]int)}
}

// RecordInbound accounts for one inbound message event. Callers must
// invoke it at most once per distinct message; replayed duplicates must
// be filtered before this point.
func (t *Tracker) RecordInbound(roomID string, senderIsSelf bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if senderIsSelf || roomID == t.focused {
		return
	}
	if _, tracked := t.counts[roomID]; !tracked {
		return
	}
	t.counts[roomID]++
}

// Reset zeroes a room's counter.
func (t *Tracker) Reset(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, tracked := t.counts[roomID]; tracked {
		t.counts[roomID] = 0
	}
}

// SetFocus declares the room currently visible to the user, or none when
// empty. Focusing a room zeroes its counter.
func (t *Tracker) SetFocus(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focused = roomID
	if _, tracked := t.counts[roomID]; tracked {
		t.counts[roomID] = 0
	}
}

// SetRoomSet reconciles the tracked rooms with the subscribed set:
// counters for rooms no longer in the set are dropped, rooms still in the
// set keep their counts, new rooms start at zero.
func (t *Tracker) SetRoomSet(roomIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := make(map[string]int, len(roomIDs))
	for _, id := range roomIDs {
		next[id] = t.counts[id]
	}
	t.counts = next
}

// Snapshot returns the room id to unread count mapping for rendering.
func (t *Tracker) Snapshot() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		out[id] = n
	}
	return out
}
