// Package server is the bot's listener surface: it turns Refocus room
// events (from the realtime socket or the webhook fallback) into
// workflow signals and bot-action responses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"oncall-bot/internal/activities"
	"oncall-bot/internal/models"
	"oncall-bot/internal/pagerduty"
	"oncall-bot/internal/refocus"
	"oncall-bot/internal/workflows"
)

// Bot action names exposed to the room control panel.
const (
	ActionGetServices  = "getServices"
	ActionPageServices = "pagerServices"
)

const maxManualPageConcurrency = 8

// Dispatcher routes room events to their handlers. Event kinds are
// matched exhaustively; an unknown kind is logged and dropped.
type Dispatcher struct {
	Temporal  client.Client
	Refocus   *refocus.Client
	PagerDuty *pagerduty.Client
	Log       *zap.Logger
}

// HandleEvent processes one room event.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev refocus.RoomEvent) error {
	switch ev.Kind {
	case refocus.EventBotData:
		return d.handleBotData(ctx, ev)
	case refocus.EventBotAction:
		return d.handleBotAction(ctx, ev)
	case refocus.EventRoomSettings:
		d.Log.Info("room settings activity", zap.String("roomId", ev.RoomID))
		return nil
	case refocus.EventTimeline:
		d.Log.Info("timeline activity", zap.String("roomId", ev.RoomID))
		return nil
	default:
		d.Log.Warn("dropping event of unknown kind", zap.String("kind", string(ev.Kind)))
		return nil
	}
}

// handleBotData reacts to bot-data updates. A case update signals the
// room's auto-page workflow; an incident-list update kicks off an
// engagement refresh.
func (d *Dispatcher) handleBotData(ctx context.Context, ev refocus.RoomEvent) error {
	switch ev.Name {
	case activities.BotDataCase:
		severity := extractSeverity(ev.Value)
		if severity == "" {
			d.Log.Warn("case update without a severity, skipping auto-page",
				zap.String("roomId", ev.RoomID))
			return nil
		}

		sig := workflows.BotDataUpdatedSignal{Severity: severity, CaseVariables: ev.Value}
		opts := client.StartWorkflowOptions{
			ID:        workflows.AutoPageWorkflowID(ev.RoomID),
			TaskQueue: workflows.TaskQueue,
		}
		_, err := d.Temporal.SignalWithStartWorkflow(ctx, opts.ID, workflows.SignalBotDataUpdated, sig,
			opts, workflows.AutoPageWorkflow, ev.RoomID)
		if err != nil {
			return fmt.Errorf("signal auto-page workflow for room %s: %w", ev.RoomID, err)
		}
		return nil

	case activities.BotDataIncidents:
		opts := client.StartWorkflowOptions{
			ID:        workflows.EngagementLogWorkflowID(ev.RoomID),
			TaskQueue: workflows.TaskQueue,
		}
		_, err := d.Temporal.ExecuteWorkflow(ctx, opts, workflows.EngagementLogWorkflow, ev.RoomID)
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			// A refresh for this room is in flight; this request
			// dedupes into it.
			return nil
		}
		if err != nil {
			return fmt.Errorf("start engagement refresh for room %s: %w", ev.RoomID, err)
		}
		return nil

	default:
		d.Log.Debug("bot data activity", zap.String("name", ev.Name), zap.String("roomId", ev.RoomID))
		return nil
	}
}

// handleBotAction answers pending control-panel actions.
func (d *Dispatcher) handleBotAction(ctx context.Context, ev refocus.RoomEvent) error {
	if !ev.IsPending || len(ev.Response) != 0 {
		return nil
	}

	switch ev.Name {
	case ActionGetServices:
		services, err := d.PagerDuty.ListServices(ctx)
		if err != nil {
			return fmt.Errorf("list services for action %s: %w", ev.ActionID, err)
		}
		return d.Refocus.RespondBotAction(ctx, ev.ActionID, pagerduty.ServiceDirectory(services))

	case ActionPageServices:
		return d.handleManualPage(ctx, ev)

	default:
		d.Log.Debug("bot action activity", zap.String("name", ev.Name), zap.String("roomId", ev.RoomID))
		return nil
	}
}

// handleManualPage pages the explicitly selected services. All
// attempts run to completion regardless of individual failures; the
// fan-out is capped so a long service list cannot flood the provider.
func (d *Dispatcher) handleManualPage(ctx context.Context, ev refocus.RoomEvent) error {
	serviceIDs, err := stringSliceParam(ev.Parameters, "services")
	if err != nil {
		return fmt.Errorf("action %s: %w", ev.ActionID, err)
	}
	message, _ := stringParam(ev.Parameters, "message")

	results := make([]models.PageResult, len(serviceIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxManualPageConcurrency)
	for i, serviceID := range serviceIDs {
		g.Go(func() error {
			res, err := d.PagerDuty.TriggerIncident(gctx, serviceID, message, ev.RoomID)
			if err != nil {
				d.Log.Warn("manual page failed in transport",
					zap.String("serviceId", serviceID), zap.Error(err))
				res = models.PageResult{Errors: []string{err.Error()}}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	response := map[string]string{"statusText": manualPageStatusText(serviceIDs, results)}
	return d.Refocus.RespondBotAction(ctx, ev.ActionID, response)
}

func manualPageStatusText(serviceIDs []string, results []models.PageResult) string {
	var paged, failed []string
	for i, res := range results {
		name := serviceIDs[i]
		if res.Incident != nil && res.Incident.Service.Summary != "" {
			name = res.Incident.Service.Summary
		}
		if res.Success() {
			paged = append(paged, name)
		} else {
			failed = append(failed, name)
		}
	}

	var text strings.Builder
	if len(paged) > 0 {
		text.WriteString("Paged: " + strings.Join(paged, " "))
	}
	if len(failed) > 0 {
		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString("Error: " + strings.Join(failed, " "))
	}
	return text.String()
}

// extractSeverity pulls the case severity out of the raw case
// variables. Malformed JSON yields an empty severity.
func extractSeverity(caseVariables string) string {
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(caseVariables), &vars); err != nil {
		return ""
	}
	if sev, ok := vars["Severity"].(string); ok {
		return sev
	}
	if sev, ok := vars["severity"].(string); ok {
		return sev
	}
	return ""
}

func stringParam(params []refocus.ActionParameter, name string) (string, error) {
	for _, p := range params {
		if p.Name == name {
			var v string
			if err := json.Unmarshal(p.Value, &v); err != nil {
				return "", fmt.Errorf("parameter %q is not a string", name)
			}
			return v, nil
		}
	}
	return "", fmt.Errorf("missing parameter %q", name)
}

func stringSliceParam(params []refocus.ActionParameter, name string) ([]string, error) {
	for _, p := range params {
		if p.Name == name {
			var v []string
			if err := json.Unmarshal(p.Value, &v); err != nil {
				return nil, fmt.Errorf("parameter %q is not a string list", name)
			}
			return v, nil
		}
	}
	return nil, fmt.Errorf("missing parameter %q", name)
}
