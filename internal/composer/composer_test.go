package composer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectchat/internal/models"
	"projectchat/internal/transport"
)

type fakeTransport struct {
	events []models.Event
	err    error
}

func (f *fakeTransport) Send(ev models.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func TestEmptyBodyRejectedLocally(t *testing.T) {
	fake := &fakeTransport{}
	c := New(fake, 0)

	for _, body := range []string{"", "   ", "\n\t "} {
		err := c.SendMessage("room-a", body)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	}
	assert.Empty(t, fake.events, "validation failures must not contact the transport")
}

func TestOversizedBodyRejectedLocally(t *testing.T) {
	fake := &fakeTransport{}
	c := New(fake, 0)

	err := c.SendMessage("room-a", strings.Repeat("x", 1001))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, fake.events)
}

func TestLimitCountsRunesNotBytes(t *testing.T) {
	fake := &fakeTransport{}
	c := New(fake, 0)

	// 1000 two-byte runes are within the 1000 character limit.
	require.NoError(t, c.SendMessage("room-a", strings.Repeat("é", 1000)))
	require.Len(t, fake.events, 1)

	err := c.SendMessage("room-a", strings.Repeat("é", 1001))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestMissingRoomRejected(t *testing.T) {
	fake := &fakeTransport{}
	c := New(fake, 0)

	err := c.SendMessage("", "hello")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, fake.events)
}

func TestSendTrimsAndForwards(t *testing.T) {
	fake := &fakeTransport{}
	c := New(fake, 0)

	require.NoError(t, c.SendMessage("room-a", "  hello there \n"))

	require.Len(t, fake.events, 1)
	assert.Equal(t, models.EventTypeSend, fake.events[0].Type)
	assert.Equal(t, "room-a", fake.events[0].RoomID)
	assert.Equal(t, "hello there", fake.events[0].Body)
}

func TestNotConnectedSurfacesToCaller(t *testing.T) {
	fake := &fakeTransport{err: transport.ErrNotConnected}
	c := New(fake, 0)

	err := c.SendMessage("room-a", "hello")
	assert.ErrorIs(t, err, transport.ErrNotConnected)
}

func TestCustomLengthLimit(t *testing.T) {
	fake := &fakeTransport{}
	c := New(fake, 10)

	require.NoError(t, c.SendMessage("room-a", "short"))
	err := c.SendMessage("room-a", "a little too long")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}
