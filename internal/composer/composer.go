package composer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"projectchat/internal/models"
)

// DefaultMaxLength is the message body limit in characters.
const DefaultMaxLength = 1000

// ValidationError rejects a message body before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("composer: %s", e.Reason)
}

// Transport is the slice of the session the composer writes through.
type Transport interface {
	Send(models.Event) error
}

// Composer validates and sends user-authored messages. It never appends
// to the timeline itself: the message becomes visible when the server
// echo arrives on the inbound channel with its assigned id and timestamp,
// through the same idempotent append path as every other message.
type Composer struct {
	transport Transport
	maxLength int
}

func New(transport Transport, maxLength int) *Composer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Composer{transport: transport, maxLength: maxLength}
}

// SendMessage sends body into roomID. A *ValidationError is returned for
// an empty (after trimming) or oversized body without contacting the
// transport. Transport failures, including transport.ErrNotConnected,
// surface to the caller unchanged; there is no retry.
func (c *Composer) SendMessage(roomID, body string) error {
	body = strings.TrimSpace(body)
	if roomID == "" {
		return &ValidationError{Reason: "missing room id"}
	}
	if body == "" {
		return &ValidationError{Reason: "message is empty"}
	}
	if n := utf8.RuneCountInString(body); n > c.maxLength {
		return &ValidationError{Reason: fmt.Sprintf("message is %d characters, limit is %d", n, c.maxLength)}
	}
	return c.transport.Send(models.SendEvent(roomID, body))
}
