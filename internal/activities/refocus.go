// Package activities implements the workflow-facing boundary calls:
// Refocus bot-data persistence, room settings, timeline events,
// PagerDuty paging and message rendering.
package activities

import (
	"context"
	"encoding/json"

	"go.temporal.io/sdk/activity"

	"oncall-bot/internal/models"
	"oncall-bot/internal/pagerduty"
	"oncall-bot/internal/refocus"
)

// Bot-data entry names used by the room control panel.
const (
	BotDataIncidents   = "onCallIncidents"
	BotDataTemplate    = "onCallBotTemplate"
	BotDataEngagements = "onCallTTE"
	BotDataCase        = "onCallBotData"
)

// Activities bundles the external collaborators behind Temporal
// activities. One instance is registered per worker.
type Activities struct {
	Refocus   *refocus.Client
	PagerDuty *pagerduty.Client
	BotID     string
	BotName   string
}

// GetRoomIncidents reads the room's incident list. A missing entry or
// malformed stored JSON degrades to an empty list with a log line;
// bad historical data must never block auto-paging. Only a transport
// failure surfaces as an error.
func (a *Activities) GetRoomIncidents(ctx context.Context, roomID string) ([]models.Incident, error) {
	logger := activity.GetLogger(ctx)

	data, err := a.Refocus.GetBotData(ctx, roomID, a.BotID, BotDataIncidents)
	if err != nil {
		return nil, err
	}
	if data.Value == "" {
		return []models.Incident{}, nil
	}

	var list models.IncidentList
	if err := json.Unmarshal([]byte(data.Value), &list); err != nil {
		logger.Error("Failed to parse incidents when autopaging", "roomID", roomID, "error", err)
		return []models.Incident{}, nil
	}
	if list.Incidents == nil {
		return []models.Incident{}, nil
	}
	return list.Incidents, nil
}

// GetAutoPageTeams reads the room's configured auto-page teams from
// its settings. No configuration means no teams, not an error.
func (a *Activities) GetAutoPageTeams(ctx context.Context, roomID string) ([]models.Team, error) {
	room, err := a.Refocus.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room.Settings.AutoPageTeams, nil
}

// SaveRoomIncidentsInput carries the full incident list to persist.
type SaveRoomIncidentsInput struct {
	RoomID    string            `json:"roomId"`
	Incidents []models.Incident `json:"incidents"`
}

// SaveRoomIncidents writes the room's incident list back to bot data.
func (a *Activities) SaveRoomIncidents(ctx context.Context, input SaveRoomIncidentsInput) error {
	raw, err := json.Marshal(models.IncidentList{Incidents: input.Incidents})
	if err != nil {
		return err
	}
	return a.Refocus.UpsertBotData(ctx, input.RoomID, a.BotID, BotDataIncidents, string(raw))
}

// CreateAutoPageEventInput carries the summary for a timeline event.
type CreateAutoPageEventInput struct {
	RoomID  string `json:"roomId"`
	Summary string `json:"summary"`
}

// CreateAutoPageEvent posts the page outcome to the room timeline,
// prefixed with the bot's name.
func (a *Activities) CreateAutoPageEvent(ctx context.Context, input CreateAutoPageEventInput) error {
	text := a.BotName + " has " + input.Summary
	return a.Refocus.CreateEvent(ctx, input.RoomID, text, refocus.EventContext{Type: "Event", Name: "AutoPage"})
}

// SaveEngagementLogInput carries a freshly computed engagement batch.
type SaveEngagementLogInput struct {
	RoomID      string              `json:"roomId"`
	Engagements []models.Engagement `json:"engagements"`
}

// SaveEngagementLog replaces the room's engagement log wholesale.
// Records are superseded, never merged.
func (a *Activities) SaveEngagementLog(ctx context.Context, input SaveEngagementLogInput) error {
	raw, err := json.Marshal(models.EngagementLog{Engagements: input.Engagements})
	if err != nil {
		return err
	}
	return a.Refocus.UpsertBotData(ctx, input.RoomID, a.BotID, BotDataEngagements, string(raw))
}
