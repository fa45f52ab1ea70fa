// Package refocus is a thin client for the Refocus room platform:
// bot data, room settings, timeline events and bot action responses.
package refocus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"oncall-bot/internal/models"
)

// EventContext is the metadata attached to a timeline event.
type EventContext struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// RoomSettings is the subset of room settings the bot reads.
type RoomSettings struct {
	AutoPageTeams []models.Team `json:"autoPageTeams"`
}

// Room is a Refocus room as returned by the rooms API.
type Room struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Settings RoomSettings `json:"settings"`
}

// BotData is one stored bot-data entry. Value is an opaque string;
// the bot stores JSON documents in it.
type BotData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
	BotID  string `json:"botId"`
	Value  string `json:"value"`
}

// Client talks to the Refocus REST API. BaseURL and HTTP are
// injectable for tests.
type Client struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
}

var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

// httpClient returns the injected client or the shared default. It
// never writes the field; one Client serves concurrent webhook
// requests.
func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return defaultHTTPClient
	}
	return c.HTTP
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) (int, error) {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("refocus: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("refocus: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", c.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient().Do(req)
	if err != nil {
		return 0, fmt.Errorf("refocus: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if out != nil && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("refocus: decode %s %s: %w", method, path, err)
		}
	}
	if res.StatusCode >= 300 {
		return res.StatusCode, fmt.Errorf("refocus: %s %s: unexpected status %d", method, path, res.StatusCode)
	}
	return res.StatusCode, nil
}

// GetBotData fetches the named bot-data entry for a room. A missing
// entry returns a zero BotData and no error.
func (c *Client) GetBotData(ctx context.Context, roomID, botID, name string) (BotData, error) {
	path := fmt.Sprintf("/v1/rooms/%s/bots/%s/name/%s/data", roomID, botID, name)
	var entries []BotData
	if _, err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return BotData{}, err
	}
	if len(entries) == 0 {
		return BotData{}, nil
	}
	return entries[0], nil
}

// UpsertBotData creates the named entry or patches its value when it
// already exists.
func (c *Client) UpsertBotData(ctx context.Context, roomID, botID, name, value string) error {
	existing, err := c.GetBotData(ctx, roomID, botID, name)
	if err != nil {
		return err
	}
	if existing.ID != "" {
		patch := map[string]string{"value": value}
		_, err = c.do(ctx, http.MethodPatch, "/v1/botData/"+existing.ID, patch, nil)
		return err
	}
	created := BotData{RoomID: roomID, BotID: botID, Name: name, Value: value}
	_, err = c.do(ctx, http.MethodPost, "/v1/botData/", created, nil)
	return err
}

// GetRoom fetches a room with its settings.
func (c *Client) GetRoom(ctx context.Context, roomID string) (Room, error) {
	var room Room
	_, err := c.do(ctx, http.MethodGet, "/v1/rooms/"+roomID, nil, &room)
	return room, err
}

// CreateEvent posts a timeline event to a room. Fire-and-forget: the
// response body is not consumed.
func (c *Client) CreateEvent(ctx context.Context, roomID, text string, evCtx EventContext) error {
	payload := map[string]interface{}{
		"log":     text,
		"roomId":  roomID,
		"context": evCtx,
	}
	_, err := c.do(ctx, http.MethodPost, "/v1/events", payload, nil)
	return err
}

// RespondBotAction marks a pending bot action answered with the given
// response payload.
func (c *Client) RespondBotAction(ctx context.Context, actionID string, response interface{}) error {
	payload := map[string]interface{}{
		"isPending": false,
		"response":  response,
	}
	_, err := c.do(ctx, http.MethodPatch, "/v1/botActions/"+actionID, payload, nil)
	return err
}
