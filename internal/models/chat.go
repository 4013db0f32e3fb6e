package models

import "time"

// Sender identifies the author of a message as the portal knows them.
type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Portal roles, carried in the token claims and on every message.
const (
	RoleCandidate = "candidate"
	RoleIntern    = "intern"
	RoleMentor    = "mentor"
	RoleHR        = "hr"
	RoleAdmin     = "admin"
)

// Message is one chat message with its server-assigned identity. Messages
// within a room are unique by ID and ordered by (CreatedAt, ID).
type Message struct {
	ID        string    `json:"messageId"`
	RoomID    string    `json:"roomId"`
	Sender    Sender    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Assignment is one entry of the membership list: a project assignment
// the current user participates in, and therefore a room to subscribe to.
type Assignment struct {
	RoomID      string `json:"roomId"`
	ProjectName string `json:"projectName"`
}
