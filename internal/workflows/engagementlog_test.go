package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oncall-bot/internal/activities"
	"oncall-bot/internal/models"
)

func strptr(s string) *string { return &s }

func TestEngagementLogWorkflow(t *testing.T) {
	env := newEnv(t)

	incidents := []models.Incident{
		{IncidentID: "PD1", Service: models.ServiceRef{ID: "A", Summary: "Team A"}},
		{IncidentID: "PD2", Service: models.ServiceRef{ID: "B", Summary: "Team B"}},
	}
	env.OnActivity(a.GetRoomIncidents, mock.Anything, "room1").Return(incidents, nil)

	env.OnActivity(a.GetIncidentLogEntries, mock.Anything, "PD1").Return([]models.LogEntry{
		{Type: models.LogEntryNotify, CreatedAt: "2019-09-04T09:15:41Z"},
		{Type: models.LogEntryAcknowledge, CreatedAt: "2019-09-04T09:16:30Z"},
		{Type: models.LogEntryAcknowledge, CreatedAt: "2019-09-04T09:16:00Z"},
		{Type: models.LogEntryResolve, CreatedAt: "2019-09-04T09:20:41Z"},
	}, nil)
	env.OnActivity(a.GetIncidentLogEntries, mock.Anything, "PD2").Return([]models.LogEntry{
		{Type: models.LogEntryNotify, CreatedAt: "2019-09-05T10:00:00Z"},
	}, nil)

	env.OnActivity(a.SaveEngagementLog, mock.Anything, activities.SaveEngagementLogInput{
		RoomID: "room1",
		Engagements: []models.Engagement{
			{
				ID:    "PD1",
				Team:  "Team A",
				Start: strptr("2019-09-04T09:15:41Z"),
				End:   strptr("2019-09-04T09:16:00Z"),
			},
			{
				ID:    "PD2",
				Team:  "Team B",
				Start: strptr("2019-09-05T10:00:00Z"),
			},
		},
	}).Return(nil)

	env.ExecuteWorkflow(EngagementLogWorkflow, "room1")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var count int
	require.NoError(t, env.GetWorkflowResult(&count))
	assert.Equal(t, 2, count)

	env.AssertExpectations(t)
}

// One incident's fetch failing must not abort the batch: the rest of
// the log is still refreshed.
func TestEngagementLogWorkflowSkipsFailedFetches(t *testing.T) {
	env := newEnv(t)

	incidents := []models.Incident{
		{IncidentID: "PD1", Service: models.ServiceRef{ID: "A", Summary: "Team A"}},
		{IncidentID: "PD2", Service: models.ServiceRef{ID: "B", Summary: "Team B"}},
	}
	env.OnActivity(a.GetRoomIncidents, mock.Anything, "room1").Return(incidents, nil)
	env.OnActivity(a.GetIncidentLogEntries, mock.Anything, "PD1").Return(nil, errors.New("provider 500"))
	env.OnActivity(a.GetIncidentLogEntries, mock.Anything, "PD2").Return([]models.LogEntry{
		{Type: models.LogEntryNotify, CreatedAt: "2019-09-05T10:00:00Z"},
		{Type: models.LogEntryResolve, CreatedAt: "2019-09-05T10:30:00Z"},
	}, nil)

	env.OnActivity(a.SaveEngagementLog, mock.Anything, activities.SaveEngagementLogInput{
		RoomID: "room1",
		Engagements: []models.Engagement{
			{
				ID:    "PD2",
				Team:  "Team B",
				Start: strptr("2019-09-05T10:00:00Z"),
				End:   strptr("2019-09-05T10:30:00Z"),
			},
		},
	}).Return(nil)

	env.ExecuteWorkflow(EngagementLogWorkflow, "room1")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var count int
	require.NoError(t, env.GetWorkflowResult(&count))
	assert.Equal(t, 1, count)
}

func TestEngagementLogWorkflowEmptyRoom(t *testing.T) {
	env := newEnv(t)

	env.OnActivity(a.GetRoomIncidents, mock.Anything, "room1").Return([]models.Incident{}, nil)
	env.OnActivity(a.SaveEngagementLog, mock.Anything, activities.SaveEngagementLogInput{
		RoomID:      "room1",
		Engagements: []models.Engagement{},
	}).Return(nil)

	env.ExecuteWorkflow(EngagementLogWorkflow, "room1")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var count int
	require.NoError(t, env.GetWorkflowResult(&count))
	assert.Zero(t, count)
}
