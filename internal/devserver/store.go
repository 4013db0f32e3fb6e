package devserver

import (
	"sync"

	"projectchat/internal/models"
)

// Store is the in-memory stand-in for the portal backend: project
// assignments per user and the message backlog per room. It exists so
// local development and the integration tests do not need the real
// backend.
type Store struct {
	mu          sync.RWMutex
	assignments map[string][]models.Assignment
	backlog     map[string][]models.Message
}

func NewStore() *Store {
	return &Store{
		assignments: make(map[string][]models.Assignment),
		backlog:     make(map[string][]models.Message),
	}
}

// Assign adds a project assignment for a user, granting room access.
func (s *Store) Assign(userID string, assignment models.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments[userID] {
		if a.RoomID == assignment.RoomID {
			return
		}
	}
	s.assignments[userID] = append(s.assignments[userID], assignment)
}

func (s *Store) AssignmentsFor(userID string) []models.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assignment, len(s.assignments[userID]))
	copy(out, s.assignments[userID])
	return out
}

func (s *Store) CanAccess(userID, roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assignments[userID] {
		if a.RoomID == roomID {
			return true
		}
	}
	return false
}

// SaveMessage appends a message to the room backlog in arrival order;
// the server assigns ids and timestamps, so arrival order is
// chronological here.
func (s *Store) SaveMessage(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backlog[msg.RoomID] = append(s.backlog[msg.RoomID], msg)
}

// RecentMessages returns up to limit of the room's newest messages,
// oldest first.
func (s *Store) RecentMessages(roomID string, limit int) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	backlog := s.backlog[roomID]
	if limit > 0 && len(backlog) > limit {
		backlog = backlog[len(backlog)-limit:]
	}
	out := make([]models.Message, len(backlog))
	copy(out, backlog)
	return out
}
