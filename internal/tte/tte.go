// Package tte derives time-to-engage records from PagerDuty incident
// log entries.
package tte

import (
	"sort"
	"time"

	"oncall-bot/internal/models"
)

// CompareLogEntries orders two log entries by created_at ascending,
// returning -1, 0 or 1. Equal timestamps compare as 0; callers rely on
// a stable sort to preserve input order for ties.
func CompareLogEntries(a, b models.LogEntry) int {
	at, aerr := time.Parse(time.RFC3339, a.CreatedAt)
	bt, berr := time.Parse(time.RFC3339, b.CreatedAt)
	if aerr != nil || berr != nil {
		return 0
	}
	switch {
	case at.Before(bt):
		return -1
	case at.After(bt):
		return 1
	default:
		return 0
	}
}

// ComputeEngagement builds the engagement record for one incident from
// its log entries. Start is the earliest notify entry's timestamp, or
// null when none exists. End is the earliest acknowledge entry's
// timestamp when any acknowledge exists; otherwise the earliest
// resolve entry's, otherwise null. Acknowledge wins over resolve even
// when a resolve is chronologically earlier: engagement measures time
// to first response, falling back to resolution only when nobody
// acknowledged.
//
// Returns nil on absent or malformed input. This runs inside a
// best-effort batch refresh over many incidents, so one bad incident
// must never panic or abort the batch.
func ComputeEngagement(id, team string, entries []models.LogEntry) *models.Engagement {
	if entries == nil {
		return nil
	}

	sorted := make([]models.LogEntry, len(entries))
	copy(sorted, entries)
	for _, e := range sorted {
		if _, err := time.Parse(time.RFC3339, e.CreatedAt); err != nil {
			return nil
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareLogEntries(sorted[i], sorted[j]) < 0
	})

	eng := &models.Engagement{ID: id, Team: team}
	eng.Start = firstOfType(sorted, models.LogEntryNotify)
	if ack := firstOfType(sorted, models.LogEntryAcknowledge); ack != nil {
		eng.End = ack
	} else {
		eng.End = firstOfType(sorted, models.LogEntryResolve)
	}
	return eng
}

// firstOfType returns the timestamp of the first entry of the given
// type in an already-sorted slice, or nil.
func firstOfType(sorted []models.LogEntry, t models.LogEntryType) *string {
	for _, e := range sorted {
		if e.Type == t {
			ts := e.CreatedAt
			return &ts
		}
	}
	return nil
}
