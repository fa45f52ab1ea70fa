package tte

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oncall-bot/internal/models"
)

func strptr(s string) *string { return &s }

func TestCompareLogEntries(t *testing.T) {
	early := models.LogEntry{Type: models.LogEntryNotify, CreatedAt: "2019-09-04T09:15:41Z"}
	late := models.LogEntry{Type: models.LogEntryResolve, CreatedAt: "2019-09-04T09:20:41Z"}

	assert.Equal(t, -1, CompareLogEntries(early, late))
	assert.Equal(t, 1, CompareLogEntries(late, early))
	assert.Equal(t, 0, CompareLogEntries(early, early))
}

func TestComputeEngagement(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.LogEntry
		want    *models.Engagement
	}{
		{
			name: "no terminal entry leaves end null",
			entries: []models.LogEntry{
				{Type: models.LogEntryNotify, CreatedAt: "2019-09-04T09:16:41Z"},
			},
			want: &models.Engagement{
				ID: "aa", Team: "TestTeam",
				Start: strptr("2019-09-04T09:16:41Z"),
				End:   nil,
			},
		},
		{
			name: "acknowledge ends the engagement",
			entries: []models.LogEntry{
				{Type: models.LogEntryNotify, CreatedAt: "2019-09-04T09:15:41Z"},
				{Type: models.LogEntryAcknowledge, CreatedAt: "2019-09-04T09:16:41Z"},
			},
			want: &models.Engagement{
				ID: "aa", Team: "TestTeam",
				Start: strptr("2019-09-04T09:15:41Z"),
				End:   strptr("2019-09-04T09:16:41Z"),
			},
		},
		{
			name: "resolve ends the engagement when never acknowledged",
			entries: []models.LogEntry{
				{Type: models.LogEntryNotify, CreatedAt: "2019-09-04T09:15:41Z"},
				{Type: models.LogEntryResolve, CreatedAt: "2019-09-04T09:16:41Z"},
			},
			want: &models.Engagement{
				ID: "aa", Team: "TestTeam",
				Start: strptr("2019-09-04T09:15:41Z"),
				End:   strptr("2019-09-04T09:16:41Z"),
			},
		},
		{
			name: "acknowledge wins over an earlier resolve",
			entries: []models.LogEntry{
				{Type: models.LogEntryResolve, CreatedAt: "2019-09-04T09:16:00Z"},
				{Type: models.LogEntryNotify, CreatedAt: "2019-09-04T09:15:41Z"},
				{Type: models.LogEntryAcknowledge, CreatedAt: "2019-09-04T09:18:41Z"},
			},
			want: &models.Engagement{
				ID: "aa", Team: "TestTeam",
				Start: strptr("2019-09-04T09:15:41Z"),
				End:   strptr("2019-09-04T09:18:41Z"),
			},
		},
		{
			name:    "empty entries give a record with both ends null",
			entries: []models.LogEntry{},
			want:    &models.Engagement{ID: "aa", Team: "TestTeam"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEngagement("aa", "TestTeam", tt.entries)
			assert.Equal(t, tt.want, got)
		})
	}
}

// The earliest acknowledge must win even when a later one appears
// first in the slice: ordering is by timestamp, not arrival.
func TestComputeEngagementSortsOutOfOrderEntries(t *testing.T) {
	entries := []models.LogEntry{
		{Type: models.LogEntryNotify, CreatedAt: "2019-09-04T09:15:41Z"},
		{Type: models.LogEntryAcknowledge, CreatedAt: "2019-09-04T09:16:30Z"},
		{Type: models.LogEntryAcknowledge, CreatedAt: "2019-09-04T09:16:00Z"},
		{Type: models.LogEntryResolve, CreatedAt: "2019-09-04T09:20:41Z"},
	}

	got := ComputeEngagement("ab", "TestTeam", entries)
	require.NotNil(t, got)
	assert.Equal(t, &models.Engagement{
		ID:    "ab",
		Team:  "TestTeam",
		Start: strptr("2019-09-04T09:15:41Z"),
		End:   strptr("2019-09-04T09:16:00Z"),
	}, got)
}

func TestComputeEngagementBadInput(t *testing.T) {
	assert.Nil(t, ComputeEngagement("aa", "TestTeam", nil))

	malformed := []models.LogEntry{
		{Type: models.LogEntryNotify, CreatedAt: "not-a-timestamp"},
	}
	assert.Nil(t, ComputeEngagement("aa", "TestTeam", malformed))
}

func TestComputeEngagementNoNotifyEntry(t *testing.T) {
	entries := []models.LogEntry{
		{Type: models.LogEntryAcknowledge, CreatedAt: "2019-09-04T09:16:41Z"},
	}

	got := ComputeEngagement("aa", "TestTeam", entries)
	require.NotNil(t, got)
	assert.Nil(t, got.Start)
	assert.Equal(t, strptr("2019-09-04T09:16:41Z"), got.End)
}
