package chat

import (
	"context"
	"sync"

	"projectchat/internal/composer"
	"projectchat/internal/config"
	"projectchat/internal/models"
	"projectchat/internal/roommux"
	"projectchat/internal/timeline"
	"projectchat/internal/transport"
	"projectchat/internal/unread"
)

// Client is the project-chat core handed to the UI layer: one owned
// transport session shared by every room, the room multiplexer as the
// sole owner of subscriptions and focus, and read-only views of the
// timeline store and unread tracker. Construct exactly one per
// authenticated session and pass it by reference; there is no package
// level instance.
type Client struct {
	session  *transport.Session
	timeline *timeline.Store
	unread   *unread.Tracker
	mux      *roommux.Multiplexer
	composer *composer.Composer
	closed   sync.Once
}

// New wires the chat core for the given user. The self id drives the
// senderIsSelf check; callbacks registered later via OnMessage and
// OnStateChange must be set before Connect.
func New(cfg config.ChatConfig, selfID string) *Client {
	session := transport.NewSession(transport.Options{
		URL:                  cfg.ServerURL + "/ws",
		HandshakeTimeout:     cfg.HandshakeTimeout,
		BackoffMin:           cfg.BackoffMin,
		BackoffMax:           cfg.BackoffMax,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})

	store := timeline.NewStore()
	tracker := unread.NewTracker()
	mux := roommux.NewMultiplexer(session, store, tracker, selfID)

	session.OnMessage(mux.HandleEvent)
	session.OnReconnect(mux.NotifyReconnected)
	go mux.Run()

	return &Client{
		session:  session,
		timeline: store,
		unread:   tracker,
		mux:      mux,
		composer: composer.New(session, cfg.MaxMessageLength),
	}
}

// OnMessage registers a callback for every newly stored message. Set
// before Connect. The callback runs on the multiplexer's event loop and
// must not call SetRoomSet or Focus.
func (c *Client) OnMessage(fn func(models.Message)) {
	c.mux.OnMessage(fn)
}

// OnStateChange registers a callback for session state transitions, for
// rendering a reconnecting indicator or a re-login prompt. Set before
// Connect.
func (c *Client) OnStateChange(fn func(transport.State)) {
	c.session.OnStateChange(fn)
}

func (c *Client) Connect(ctx context.Context, token string) error {
	return c.session.Connect(ctx, token)
}

// Close tears the session down and evicts all per-session state. It is
// idempotent.
func (c *Client) Close() {
	c.closed.Do(func() {
		c.session.Disconnect()
		c.mux.Stop()
		c.timeline.Reset()
		c.unread.SetRoomSet(nil)
	})
}

func (c *Client) State() transport.State {
	return c.session.State()
}

func (c *Client) LastError() error {
	return c.session.LastError()
}

// SetRoomSet applies the authoritative assignment list, joining new
// rooms and leaving delisted ones (the focused room's leave is deferred
// until focus moves away).
func (c *Client) SetRoomSet(assignments []models.Assignment) {
	c.mux.SetRoomSet(assignments)
}

// Focus declares the visible room ("" for none) and zeroes its unread
// counter.
func (c *Client) Focus(roomID string) {
	c.mux.Focus(roomID)
}

func (c *Client) SendMessage(roomID, body string) error {
	return c.composer.SendMessage(roomID, body)
}

// View returns the room's timeline grouped into calendar-day sections.
func (c *Client) View(roomID string) []timeline.DaySection {
	return c.timeline.View(roomID)
}

// Snapshot returns the unread count per subscribed room.
func (c *Client) Snapshot() map[string]int {
	return c.unread.Snapshot()
}

// SeedHistory loads a persisted backlog into a room's timeline. Backlog
// messages never touch unread counters, and ids already seen (or later
// replayed live) dedup through the same append path.
func (c *Client) SeedHistory(roomID string, messages []models.Message) {
	for _, msg := range messages {
		c.timeline.Append(roomID, msg)
	}
}
