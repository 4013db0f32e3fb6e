package devserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"projectchat/internal/models"
	"projectchat/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	sendBuffer   = 256
)

type inboundEvent struct {
	client *client
	event  models.Event
}

// Hub routes events between connected clients. One connection serves all
// of a user's rooms: clients join and leave rooms over the wire and the
// hub tracks membership per client.
type Hub struct {
	register   chan *client
	unregister chan *client
	inbound    chan inboundEvent
	shutdown   chan struct{}

	// Owned by the Run goroutine.
	clients map[*client]map[string]bool

	store         *Store
	replayBacklog int
}

func NewHub(store *Store, replayBacklog int) *Hub {
	return &Hub{
		register:      make(chan *client),
		unregister:    make(chan *client),
		inbound:       make(chan inboundEvent),
		shutdown:      make(chan struct{}),
		clients:       make(map[*client]map[string]bool),
		store:         store,
		replayBacklog: replayBacklog,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			for c := range h.clients {
				close(c.send)
			}
			return

		case c := <-h.register:
			h.clients[c] = make(map[string]bool)
			logger.Debug("User %s connected", c.sender.ID)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				logger.Debug("User %s disconnected", c.sender.ID)
			}

		case in := <-h.inbound:
			h.handleInbound(in.client, in.event)
		}
	}
}

func (h *Hub) Shutdown() {
	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
}

func (h *Hub) handleInbound(c *client, ev models.Event) {
	rooms, ok := h.clients[c]
	if !ok {
		return
	}

	switch ev.Type {
	case models.EventTypeJoin:
		if !h.store.CanAccess(c.sender.ID, ev.RoomID) {
			logger.Debug("User %s denied join to room %s", c.sender.ID, ev.RoomID)
			return
		}
		// Idempotent: a rejoin after reconnect replays the backlog again
		// and the client dedups by message id.
		rooms[ev.RoomID] = true
		for _, msg := range h.store.RecentMessages(ev.RoomID, h.replayBacklog) {
			c.enqueue(models.MessageEvent(msg))
		}

	case models.EventTypeLeave:
		delete(rooms, ev.RoomID)

	case models.EventTypeSend:
		if !rooms[ev.RoomID] || ev.Body == "" {
			return
		}
		msg := models.Message{
			ID:        uuid.NewString(),
			RoomID:    ev.RoomID,
			Sender:    c.sender,
			Body:      ev.Body,
			CreatedAt: time.Now().UTC(),
		}
		h.store.SaveMessage(msg)
		h.broadcast(msg)
	}
}

// broadcast delivers a message to every client joined to its room,
// including the sender (the echo is what makes the message visible).
func (h *Hub) broadcast(msg models.Message) {
	ev := models.MessageEvent(msg)
	for c, rooms := range h.clients {
		if rooms[msg.RoomID] {
			c.enqueue(ev)
		}
	}
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan models.Event
	sender models.Sender
}

func newClient(hub *Hub, conn *websocket.Conn, sender models.Sender) *client {
	return &client{
		hub:    hub,
		conn:   conn,
		send:   make(chan models.Event, sendBuffer),
		sender: sender,
	}
}

func (c *client) enqueue(ev models.Event) {
	select {
	case c.send <- ev:
	default:
		// Slow consumer; drop the frame rather than block the hub.
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev models.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			return
		}
		c.hub.inbound <- inboundEvent{client: c, event: ev}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
