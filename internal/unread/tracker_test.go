package unread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFocusedRoomStaysZero(t *testing.T) {
	tracker := NewTracker()
	tracker.SetRoomSet([]string{"a", "b"})
	tracker.SetFocus("a")

	tracker.RecordInbound("a", false)
	tracker.RecordInbound("a", false)

	assert.Equal(t, 0, tracker.Snapshot()["a"])
}

func TestSelfMessagesNeverCount(t *testing.T) {
	tracker := NewTracker()
	tracker.SetRoomSet([]string{"a"})

	tracker.RecordInbound("a", true)

	assert.Equal(t, 0, tracker.Snapshot()["a"])
}

func TestCountResetAndCountAgain(t *testing.T) {
	tracker := NewTracker()
	tracker.SetRoomSet([]string{"a"})

	for i := 0; i < 5; i++ {
		tracker.RecordInbound("a", false)
	}
	assert.Equal(t, 5, tracker.Snapshot()["a"])

	tracker.SetFocus("a")
	assert.Equal(t, 0, tracker.Snapshot()["a"])

	tracker.SetFocus("")
	tracker.RecordInbound("a", false)
	assert.Equal(t, 1, tracker.Snapshot()["a"])
}

func TestTwoRoomFocusSwitch(t *testing.T) {
	tracker := NewTracker()
	tracker.SetRoomSet([]string{"a", "b"})
	tracker.SetFocus("a")

	tracker.RecordInbound("b", false)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, tracker.Snapshot())

	tracker.SetFocus("b")
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, tracker.Snapshot())
}

func TestSetRoomSetDropsEvictedKeepsRetained(t *testing.T) {
	tracker := NewTracker()
	tracker.SetRoomSet([]string{"a", "b"})
	tracker.RecordInbound("a", false)
	tracker.RecordInbound("b", false)
	tracker.RecordInbound("b", false)

	tracker.SetRoomSet([]string{"b", "c"})

	snapshot := tracker.Snapshot()
	assert.NotContains(t, snapshot, "a")
	assert.Equal(t, 2, snapshot["b"])
	assert.Equal(t, 0, snapshot["c"])
}

func TestUntrackedRoomIgnored(t *testing.T) {
	tracker := NewTracker()
	tracker.SetRoomSet([]string{"a"})

	tracker.RecordInbound("ghost", false)

	assert.Equal(t, map[string]int{"a": 0}, tracker.Snapshot())
}

func TestResetIsScopedToOneRoom(t *testing.T) {
	tracker := NewTracker()
	tracker.SetRoomSet([]string{"a", "b"})
	tracker.RecordInbound("a", false)
	tracker.RecordInbound("b", false)

	tracker.Reset("a")

	assert.Equal(t, 0, tracker.Snapshot()["a"])
	assert.Equal(t, 1, tracker.Snapshot()["b"])
}
