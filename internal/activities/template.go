package activities

import (
	"context"
	"encoding/json"

	"github.com/cbroglie/mustache"
	"go.temporal.io/sdk/activity"
)

// RenderPageMessageInput carries what the message renderer needs: the
// room (to find the configured template) and the raw case-variable
// JSON from the bot-data update.
type RenderPageMessageInput struct {
	RoomID        string `json:"roomId"`
	CaseVariables string `json:"caseVariables"`
}

// RenderPageMessage applies the room's logic-less page template to the
// case variables. Any failure (missing template, fetch error, bad
// variables, render error) degrades to an empty message with a log
// line so the page itself still goes out.
func (a *Activities) RenderPageMessage(ctx context.Context, input RenderPageMessageInput) (string, error) {
	logger := activity.GetLogger(ctx)

	data, err := a.Refocus.GetBotData(ctx, input.RoomID, a.BotID, BotDataTemplate)
	if err != nil {
		logger.Warn("Could not fetch page template, paging without a message", "roomID", input.RoomID, "error", err)
		return "", nil
	}
	if data.Value == "" {
		return "", nil
	}

	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(input.CaseVariables), &vars); err != nil {
		logger.Warn("Could not parse case variables, paging without a message", "roomID", input.RoomID, "error", err)
		return "", nil
	}

	rendered, err := mustache.Render(data.Value, vars)
	if err != nil {
		logger.Warn("Could not render page template, paging without a message", "roomID", input.RoomID, "error", err)
		return "", nil
	}
	return rendered, nil
}
