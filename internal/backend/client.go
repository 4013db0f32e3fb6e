package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"projectchat/internal/models"
)

// Client talks to the portal's REST API: the membership list that feeds
// the room set and the persisted message backlog used to seed timelines.
// Live traffic never goes through here; that is the transport session's
// job.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Assignments fetches the project assignments visible to the current
// user, one room per assignment.
func (c *Client) Assignments(ctx context.Context) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := c.getJSON(ctx, "/api/assignments", &assignments); err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	return assignments, nil
}

// RoomHistory fetches up to limit most recent persisted messages for a
// room, oldest first. Overlap with live replay is harmless: seeding goes
// through the same message-id dedup as every inbound event.
func (c *Client) RoomHistory(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	path := fmt.Sprintf("/api/rooms/%s/messages?limit=%d", url.PathEscape(roomID), limit)
	var messages []models.Message
	if err := c.getJSON(ctx, path, &messages); err != nil {
		return nil, fmt.Errorf("failed to fetch history for room %s: %w", roomID, err)
	}
	return messages, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
