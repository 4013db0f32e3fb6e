package models

import "time"

type EventType string

const (
	EventTypeJoin      EventType = "join"
	EventTypeLeave     EventType = "leave"
	EventTypeSend      EventType = "send"
	EventTypeMessage   EventType = "message"
	EventTypeAuthError EventType = "auth_error"
)

// Event is the wire envelope carried over the chat socket, one JSON
// object per text frame. Fields are populated per event type.
type Event struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Sender    *Sender   `json:"sender,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Reason    string    `json:"reason,omitempty"`
}

// Message converts a message event into its stored form.
func (e Event) Message() Message {
	msg := Message{
		ID:        e.MessageID,
		RoomID:    e.RoomID,
		Body:      e.Body,
		CreatedAt: e.CreatedAt,
	}
	if e.Sender != nil {
		msg.Sender = *e.Sender
	}
	return msg
}

// MessageEvent wraps a stored message back into its wire envelope.
func MessageEvent(msg Message) Event {
	sender := msg.Sender
	return Event{
		Type:      EventTypeMessage,
		RoomID:    msg.RoomID,
		MessageID: msg.ID,
		Sender:    &sender,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

func JoinEvent(roomID string) Event {
	return Event{Type: EventTypeJoin, RoomID: roomID}
}

func LeaveEvent(roomID string) Event {
	return Event{Type: EventTypeLeave, RoomID: roomID}
}

func SendEvent(roomID, body string) Event {
	return Event{Type: EventTypeSend, RoomID: roomID, Body: body}
}
