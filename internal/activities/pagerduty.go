package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"oncall-bot/internal/models"
)

// TriggerPageInput identifies one page attempt.
type TriggerPageInput struct {
	ServiceID string `json:"serviceId"`
	Message   string `json:"message"`
	RoomID    string `json:"roomId"`
}

// TriggerPage pages one team. Provider rejections come back inside
// the PageResult; only transport-level failures (network errors,
// unparseable responses) fail the activity, and the workflow folds
// those into the aggregate as transport errors.
func (a *Activities) TriggerPage(ctx context.Context, input TriggerPageInput) (models.PageResult, error) {
	logger := activity.GetLogger(ctx)

	result, err := a.PagerDuty.TriggerIncident(ctx, input.ServiceID, input.Message, input.RoomID)
	if err != nil {
		return models.PageResult{}, err
	}

	if result.Success() {
		logger.Info("Successfully paged service",
			"service", result.Incident.Service.Summary,
			"incidentID", result.Incident.ID,
			"roomID", input.RoomID)
	} else {
		logger.Warn("Page attempt rejected by provider",
			"serviceID", input.ServiceID,
			"statusCode", result.StatusCode,
			"roomID", input.RoomID)
	}
	return result, nil
}

// GetIncidentLogEntries fetches the lifecycle log entries used for the
// engagement refresh.
func (a *Activities) GetIncidentLogEntries(ctx context.Context, incidentID string) ([]models.LogEntry, error) {
	return a.PagerDuty.GetLogEntries(ctx, incidentID)
}
