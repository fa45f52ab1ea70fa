package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"oncall-bot/internal/activities"
	"oncall-bot/internal/models"
	"oncall-bot/internal/tte"
)

// EngagementLogWorkflowID returns the workflow id for a room's
// engagement refresh. A fixed id dedupes concurrent refresh requests
// for the same room.
func EngagementLogWorkflowID(roomID string) string {
	return "engagement-room-" + roomID
}

// EngagementLogWorkflow recomputes the room's time-to-engage log from
// the paging provider's incident log entries and writes it back
// wholesale, superseding the previous log. Best effort per incident:
// a failed fetch or malformed entries skip that incident only.
// Returns the number of records written.
func EngagementLogWorkflow(ctx workflow.Context, roomID string) (int, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: boundaryCallTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var incidents []models.Incident
	if err := workflow.ExecuteActivity(ctx, a.GetRoomIncidents, roomID).Get(ctx, &incidents); err != nil {
		return 0, err
	}

	futures := make([]workflow.Future, len(incidents))
	for i, inc := range incidents {
		futures[i] = workflow.ExecuteActivity(ctx, a.GetIncidentLogEntries, inc.IncidentID)
	}

	engagements := make([]models.Engagement, 0, len(incidents))
	for i, future := range futures {
		var entries []models.LogEntry
		if err := future.Get(ctx, &entries); err != nil {
			logger.Warn("Skipping incident in engagement refresh",
				"incidentID", incidents[i].IncidentID, "error", err)
			continue
		}
		eng := tte.ComputeEngagement(incidents[i].IncidentID, incidents[i].Service.Summary, entries)
		if eng == nil {
			logger.Warn("Skipping incident with malformed log entries",
				"incidentID", incidents[i].IncidentID)
			continue
		}
		engagements = append(engagements, *eng)
	}

	err := workflow.ExecuteActivity(ctx, a.SaveEngagementLog, activities.SaveEngagementLogInput{
		RoomID:      roomID,
		Engagements: engagements,
	}).Get(ctx, nil)
	if err != nil {
		return 0, err
	}

	logger.Info("Engagement log refreshed", "roomID", roomID, "records", len(engagements))
	return len(engagements), nil
}
