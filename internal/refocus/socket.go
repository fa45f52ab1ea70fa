package refocus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventKind names the realtime event streams a bot subscribes to.
type EventKind string

const (
	EventBotData      EventKind = "refocus.bot.data"
	EventBotAction    EventKind = "refocus.bot.actions"
	EventRoomSettings EventKind = "refocus.room.settings"
	EventTimeline     EventKind = "refocus.events"
)

// ActionParameter is one named parameter of a bot action. Value keeps
// its raw JSON since parameters mix strings and arrays.
type ActionParameter struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// RoomEvent is a single realtime notification from Refocus, either
// read off the socket or delivered through the webhook fallback.
type RoomEvent struct {
	Kind       EventKind         `json:"kind"`
	RoomID     string            `json:"roomId"`
	BotID      string            `json:"botId,omitempty"`
	Name       string            `json:"name,omitempty"`
	Value      string            `json:"value,omitempty"`
	ActionID   string            `json:"actionId,omitempty"`
	IsPending  bool              `json:"isPending,omitempty"`
	Response   json.RawMessage   `json:"response,omitempty"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Socket maintains the realtime connection to Refocus and delivers
// RoomEvents on a channel. It reconnects with backoff until the
// context is cancelled.
type Socket struct {
	URL    string // ws:// or wss:// endpoint
	Token  string
	Log    *zap.Logger
	Dialer *websocket.Dialer
}

func (s *Socket) dialer() *websocket.Dialer {
	if s.Dialer == nil {
		return websocket.DefaultDialer
	}
	return s.Dialer
}

// Listen connects and pumps events into the channel until ctx is
// cancelled. The channel is not closed by Listen; the caller owns it.
func (s *Socket) Listen(ctx context.Context, events chan<- RoomEvent) error {
	delay := reconnectMin
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		session := uuid.NewString()
		url := s.URL + "?token=" + s.Token + "&session=" + session
		conn, _, err := s.dialer().DialContext(ctx, url, nil)
		if err != nil {
			s.Log.Warn("socket dial failed, will retry",
				zap.String("session", session),
				zap.Duration("backoff", delay),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			if delay *= 2; delay > reconnectMax {
				delay = reconnectMax
			}
			continue
		}

		s.Log.Info("socket connected", zap.String("session", session))
		delay = reconnectMin

		if err := s.pump(ctx, conn, events); err != nil {
			s.Log.Warn("socket read failed, reconnecting", zap.Error(err))
		}
		_ = conn.Close()
	}
}

func (s *Socket) pump(ctx context.Context, conn *websocket.Conn, events chan<- RoomEvent) error {
	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var ev RoomEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			s.Log.Warn("dropping unparseable socket message", zap.Error(err))
			continue
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}
