// Package paging holds the pure decision logic of the auto-pager:
// narrowing the candidate team set and reducing page attempt results
// into a single outcome.
package paging

import (
	"strings"

	"go.temporal.io/sdk/log"

	"oncall-bot/internal/models"
)

// RemoveAlreadyPagedTeams returns the candidate teams whose service id
// does not appear in the room's incident list, preserving candidate
// order. A nil incident list or an empty candidate list is treated as
// "nothing to page": it logs and returns an empty slice rather than
// erroring, so malformed input can never cause a double page.
func RemoveAlreadyPagedTeams(logger log.Logger, incidents []models.Incident, teams []models.Team) []models.Team {
	if incidents == nil || len(teams) == 0 {
		logger.Warn("Invalid args passed to RemoveAlreadyPagedTeams")
		return []models.Team{}
	}

	paged := make(map[string]struct{}, len(incidents))
	for _, inc := range incidents {
		paged[inc.Service.ID] = struct{}{}
	}

	remaining := make([]models.Team, 0, len(teams))
	for _, team := range teams {
		if _, ok := paged[team.ID]; !ok {
			remaining = append(remaining, team)
		}
	}
	return remaining
}

// RemoveTeamsWithoutMatchingSeverity returns the teams whose severity
// set contains the given severity, compared case-insensitively. Team
// values are never mutated; callers holding the same team slice across
// repeated filter calls see identical results. A nil team list logs
// and returns an empty slice. The severity is a required caller
// argument; an empty string matches no team, including one whose
// severity set contains an empty entry.
func RemoveTeamsWithoutMatchingSeverity(logger log.Logger, teams []models.Team, severity string) []models.Team {
	if teams == nil {
		logger.Warn("Invalid args passed to RemoveTeamsWithoutMatchingSeverity")
		return []models.Team{}
	}
	if severity == "" {
		return []models.Team{}
	}

	matching := make([]models.Team, 0, len(teams))
	for _, team := range teams {
		for _, sev := range team.Severities {
			if strings.EqualFold(sev, severity) {
				matching = append(matching, team)
				break
			}
		}
	}
	return matching
}
