// Package pagerduty is a thin client for the PagerDuty REST API v2,
// covering the calls the bot needs: triggering incidents, reading
// incident log entries and listing services.
package pagerduty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"oncall-bot/internal/models"
)

const (
	acceptHeader         = "application/vnd.pagerduty+json;version=2"
	servicesPageSize     = 100
	defaultIncidentTitle = "oncall-bot incident"
)

// Client talks to the PagerDuty API. BaseURL and HTTP are injectable
// for tests; Sender goes into the From header the incidents API
// requires.
type Client struct {
	Token   string
	Sender  string
	BaseURL string
	HTTP    *http.Client
}

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// httpClient returns the injected client or the shared default. It
// never writes the field; one Client is used concurrently by the page
// fan-out.
func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return defaultHTTPClient
	}
	return c.HTTP
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Token token="+c.Token)
	req.Header.Set("Accept", acceptHeader)
}

// triggerBody is the incident creation envelope.
type triggerBody struct {
	Incident struct {
		Type    string `json:"type"`
		Title   string `json:"title"`
		Service struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"service"`
		Body struct {
			Type    string `json:"type"`
			Details string `json:"details"`
			RoomID  string `json:"roomId,omitempty"`
		} `json:"body"`
	} `json:"incident"`
}

// triggerResponse is the subset of the incident creation response the
// bot consumes, including the error body of rejected requests.
type triggerResponse struct {
	Incident *models.ProviderIncident `json:"incident"`
	Error    *struct {
		Errors []string `json:"errors"`
	} `json:"error"`
}

// TriggerIncident pages the given service. The returned PageResult
// carries the provider's status code plus either the created incident
// or the raw error messages; only transport-level failures surface as
// an error.
func (c *Client) TriggerIncident(ctx context.Context, serviceID, message, roomID string) (models.PageResult, error) {
	title := message
	if title == "" {
		title = defaultIncidentTitle
	}

	var body triggerBody
	body.Incident.Type = "incident"
	body.Incident.Title = title
	body.Incident.Service.ID = serviceID
	body.Incident.Service.Type = "service_reference"
	body.Incident.Body.Type = "incident_body"
	body.Incident.Body.Details = title
	body.Incident.Body.RoomID = roomID

	raw, err := json.Marshal(body)
	if err != nil {
		return models.PageResult{}, fmt.Errorf("pagerduty: encode trigger: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/incidents", bytes.NewBuffer(raw))
	if err != nil {
		return models.PageResult{}, fmt.Errorf("pagerduty: build trigger: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("From", c.Sender)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient().Do(req)
	if err != nil {
		return models.PageResult{}, fmt.Errorf("pagerduty: trigger incident: %w", err)
	}
	defer res.Body.Close()

	var parsed triggerResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return models.PageResult{}, fmt.Errorf("pagerduty: decode trigger response (status %d): %w", res.StatusCode, err)
	}

	result := models.PageResult{StatusCode: res.StatusCode, Incident: parsed.Incident}
	if parsed.Error != nil {
		result.Errors = parsed.Error.Errors
	}
	return result, nil
}

// GetLogEntries fetches the lifecycle log entries for an incident.
func (c *Client) GetLogEntries(ctx context.Context, incidentID string) ([]models.LogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/incidents/"+incidentID+"/log_entries", nil)
	if err != nil {
		return nil, fmt.Errorf("pagerduty: build log entries: %w", err)
	}
	c.setHeaders(req)

	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("pagerduty: get log entries: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pagerduty: get log entries for %s: unexpected status %d", incidentID, res.StatusCode)
	}

	var parsed struct {
		LogEntries []models.LogEntry `json:"log_entries"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("pagerduty: decode log entries: %w", err)
	}
	return parsed.LogEntries, nil
}

// ListServices walks the paginated services listing and returns the
// whole directory as a value. No state is cached on the client, so
// concurrent callers each get their own consistent snapshot.
func (c *Client) ListServices(ctx context.Context) ([]models.PDService, error) {
	var all []models.PDService
	for offset := 0; ; offset += servicesPageSize {
		url := fmt.Sprintf("%s/services?limit=%d&offset=%d", c.BaseURL, servicesPageSize, offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("pagerduty: build list services: %w", err)
		}
		c.setHeaders(req)

		res, err := c.httpClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("pagerduty: list services: %w", err)
		}

		var page struct {
			Services []models.PDService `json:"services"`
			More     bool               `json:"more"`
		}
		err = json.NewDecoder(res.Body).Decode(&page)
		res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("pagerduty: decode services page at offset %d: %w", offset, err)
		}

		all = append(all, page.Services...)
		if !page.More {
			return all, nil
		}
	}
}

// ServiceDirectory reduces the services listing to a name → id map,
// the shape the room control panel consumes.
func ServiceDirectory(services []models.PDService) map[string]string {
	dir := make(map[string]string, len(services))
	for _, svc := range services {
		dir[svc.Name] = svc.ID
	}
	return dir
}
