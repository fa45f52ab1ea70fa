package models

// LogEntryType classifies a PagerDuty incident log entry.
type LogEntryType string

const (
	LogEntryNotify      LogEntryType = "notify_log_entry"
	LogEntryAcknowledge LogEntryType = "acknowledge_log_entry"
	LogEntryResolve     LogEntryType = "resolve_log_entry"
)

// LogEntry is a single timestamped lifecycle entry for a PagerDuty
// incident. Entries arrive unordered and the same type may appear more
// than once (e.g. several responders acknowledging).
type LogEntry struct {
	Type      LogEntryType `json:"type"`
	CreatedAt string       `json:"created_at"`
}

// Engagement is a time-to-engage record derived from an incident's log
// entries: start is the first notification, end is the first
// acknowledgement (or resolution when nobody acknowledged). Either may
// be null. Records are superseded wholesale on each refresh, never
// mutated.
type Engagement struct {
	ID    string  `json:"id"`
	Start *string `json:"start"`
	End   *string `json:"end"`
	Team  string  `json:"team"`
}

// Team is a room-configured auto-page target. ID is the PagerDuty
// service id; Severities lists the case severities this team wants
// pages for (matched case-insensitively).
type Team struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Severities []string `json:"severities"`
}

// ServiceRef identifies a PagerDuty service.
type ServiceRef struct {
	ID      string `json:"id"`
	Summary string `json:"summary,omitempty"`
}

// Assignment records who an incident was assigned to and when.
type Assignment struct {
	At       string     `json:"at,omitempty"`
	Assignee ServiceRef `json:"assignee"`
}

// Incident is the bot's record of a page that succeeded for a room.
// The room's incident list is the durable "already paged" set for the
// current case; entries are only appended within a case lifecycle.
type Incident struct {
	IncidentID string       `json:"incidentId"`
	Service    ServiceRef   `json:"service"`
	URL        string       `json:"url,omitempty"`
	Number     int          `json:"number,omitempty"`
	Assignment []Assignment `json:"assignment,omitempty"`
}

// ProviderIncident is the incident object as PagerDuty returns it.
type ProviderIncident struct {
	ID             string       `json:"id"`
	HTMLURL        string       `json:"html_url"`
	IncidentNumber int          `json:"incident_number"`
	Service        ServiceRef   `json:"service"`
	Assignments    []Assignment `json:"assignments"`
}

// Normalize converts a provider incident into the bot's Incident
// shape, dropping the provider envelope.
func (p ProviderIncident) Normalize() Incident {
	return Incident{
		IncidentID: p.ID,
		Service:    p.Service,
		URL:        p.HTMLURL,
		Number:     p.IncidentNumber,
		Assignment: p.Assignments,
	}
}

// PageResult is the outcome of one page attempt for one team.
//
// Exactly one of three shapes holds:
//   - success: StatusCode 201 and Incident set
//   - soft failure: non-201 but the provider still returned an incident
//   - transport error: no incident, Errors carries the raw messages
type PageResult struct {
	StatusCode int               `json:"statusCode"`
	Incident   *ProviderIncident `json:"incident,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
}

// Success reports whether the provider accepted the page.
func (r PageResult) Success() bool {
	return r.StatusCode == 201 && r.Incident != nil
}

// Failed reports a provider-side rejection that still carried an
// incident body.
func (r PageResult) Failed() bool {
	return r.StatusCode != 201 && r.Incident != nil
}

// TransportError reports a failure with no incident body at all.
func (r PageResult) TransportError() bool {
	return r.Incident == nil && len(r.Errors) > 0
}

// IncidentList is the payload stored under the room's incident
// bot-data entry.
type IncidentList struct {
	Incidents []Incident `json:"incidents"`
}

// EngagementLog is the payload stored under the room's TTE bot-data
// entry.
type EngagementLog struct {
	Engagements []Engagement `json:"engagements"`
}

// PDService is one entry from the provider's paginated service
// directory.
type PDService struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
