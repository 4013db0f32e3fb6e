package timeline

import (
	"sort"
	"sync"
	"time"

	"projectchat/internal/models"
)

// DaySection is one calendar day of a room's timeline. Day is midnight of
// the day in the location carried by the message timestamps.
type DaySection struct {
	Day      time.Time
	Messages []models.Message
}

// Store keeps one ordered, deduplicated, append-only message log per
// room. Inserts sort by (CreatedAt, ID), so views are chronologically
// correct regardless of the order the transport delivered events in.
// Logs survive room unsubscribes and are dropped only via Reset at
// session teardown.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*roomLog
}

type roomLog struct {
	order []models.Message
	seen  map[string]struct{}
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*roomLog)}
}

// Append inserts a message into the room's log at its chronological
// position. It reports whether the message was new; redelivery of an
// already-seen message id is a no-op.
func (s *Store) Append(roomID string, msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		room = &roomLog{seen: make(map[string]struct{})}
		s.rooms[roomID] = room
	}
	if _, dup := room.seen[msg.ID]; dup {
		return false
	}
	room.seen[msg.ID] = struct{}{}

	idx := sort.Search(len(room.order), func(i int) bool {
		m := room.order[i]
		if m.CreatedAt.Equal(msg.CreatedAt) {
			return m.ID > msg.ID
		}
		return m.CreatedAt.After(msg.CreatedAt)
	})
	room.order = append(room.order, models.Message{})
	copy(room.order[idx+1:], room.order[idx:])
	room.order[idx] = msg
	return true
}

// Len reports the number of stored messages for a room.
func (s *Store) Len(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if room, ok := s.rooms[roomID]; ok {
		return len(room.order)
	}
	return 0
}

// Messages returns a copy of the room's ordered log.
func (s *Store) Messages(roomID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(room.order))
	copy(out, room.order)
	return out
}

// View groups the room's log into calendar-day sections by each
// message's own creation timestamp. Sections are recomputed on every
// call, so a late-arriving message lands in the correct day rather than
// at the end.
func (s *Store) View(roomID string) []DaySection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok || len(room.order) == 0 {
		return nil
	}

	var sections []DaySection
	for _, msg := range room.order {
		day := dayOf(msg.CreatedAt)
		if n := len(sections); n > 0 && sections[n-1].Day.Equal(day) {
			sections[n-1].Messages = append(sections[n-1].Messages, msg)
			continue
		}
		sections = append(sections, DaySection{Day: day, Messages: []models.Message{msg}})
	}
	return sections
}

// Reset drops every stored timeline. Called on session teardown only.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[string]*roomLog)
}

func dayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
