package paging

import (
	"strings"

	"oncall-bot/internal/models"
)

// PageOutcome is the reduced result of one auto-page evaluation:
// a human-readable summary for the room timeline and the normalized
// incidents to append to the room's incident list.
type PageOutcome struct {
	SummaryText string
	Incidents   []models.Incident
}

// AggregatePageResults reduces the per-team page results of one
// evaluation. The summary lists successes as
// "Successfully Paged: A, B", provider-rejected attempts as
// " Failed to Page: C, D", then any raw provider error messages
// comma-joined, all in encounter order. Empty input yields an empty
// summary, which callers must read as "nothing happened". Incidents
// are built only from successful attempts.
//
// Pure reduction: every attempt has already resolved by the time this
// runs; no attempt outcome can fail the batch.
func AggregatePageResults(results []models.PageResult) PageOutcome {
	var summary strings.Builder
	var incidents []models.Incident

	n := 0
	for _, res := range results {
		if !res.Success() {
			continue
		}
		if n == 0 {
			summary.WriteString("Successfully Paged: " + res.Incident.Service.Summary)
		} else {
			summary.WriteString(", " + res.Incident.Service.Summary)
		}
		incidents = append(incidents, res.Incident.Normalize())
		n++
	}

	n = 0
	for _, res := range results {
		if !res.Failed() {
			continue
		}
		if n == 0 {
			summary.WriteString(" Failed to Page: " + res.Incident.Service.Summary)
		} else {
			summary.WriteString(", " + res.Incident.Service.Summary)
		}
		n++
	}

	for _, res := range results {
		if !res.TransportError() {
			continue
		}
		for i, msg := range res.Errors {
			if i == 0 {
				summary.WriteString(msg)
			} else {
				summary.WriteString(", " + msg)
			}
		}
	}

	return PageOutcome{SummaryText: summary.String(), Incidents: incidents}
}
