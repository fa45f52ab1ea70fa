package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"oncall-bot/internal/activities"
	"oncall-bot/internal/models"
	"oncall-bot/internal/paging"
)

const (
	// Task queue shared by the worker and the listener.
	TaskQueue = "oncall-task-queue"

	// Signal names
	SignalBotDataUpdated = "bot-data-updated"

	// Query names
	QueryLastOutcome = "last-outcome"

	// Per-attempt limit for every boundary call. A stuck transport
	// call resolves as a transport error instead of stalling the cycle.
	boundaryCallTimeout = 30 * time.Second

	// Evaluations processed before the workflow continues as new to
	// keep its history bounded.
	maxEvaluationsPerRun = 500
)

// BotDataUpdatedSignal is delivered on every case update: the new
// severity plus the raw case-variable JSON for the page template.
type BotDataUpdatedSignal struct {
	Severity      string `json:"severity"`
	CaseVariables string `json:"caseVariables"`
}

// AutoPageEvaluationInput is one auto-page decision for one room.
type AutoPageEvaluationInput struct {
	RoomID        string `json:"roomId"`
	Severity      string `json:"severity"`
	CaseVariables string `json:"caseVariables"`
}

// AutoPageWorkflowID returns the fixed workflow id for a room. One
// workflow instance per room serializes every evaluation for that
// room, so the incident-list read-modify-write can never interleave
// with another evaluation and double-page a team.
func AutoPageWorkflowID(roomID string) string {
	return "autopage-room-" + roomID
}

var a *activities.Activities

// AutoPageWorkflow is the long-lived auto-pager for one room. Each
// BotDataUpdated signal triggers one evaluation; evaluations run
// strictly one at a time in signal order.
func AutoPageWorkflow(ctx workflow.Context, roomID string) error {
	logger := workflow.GetLogger(ctx)

	var lastOutcome paging.PageOutcome
	err := workflow.SetQueryHandler(ctx, QueryLastOutcome, func() (paging.PageOutcome, error) {
		return lastOutcome, nil
	})
	if err != nil {
		return err
	}

	sigChan := workflow.GetSignalChannel(ctx, SignalBotDataUpdated)

	for i := 0; i < maxEvaluationsPerRun; i++ {
		var sig BotDataUpdatedSignal
		received := false

		selector := workflow.NewSelector(ctx)
		selector.AddReceive(sigChan, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, &sig)
			received = true
		})
		selector.AddReceive(ctx.Done(), func(c workflow.ReceiveChannel, more bool) {})
		selector.Select(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !received {
			continue
		}

		outcome, err := AutoPageEvaluation(ctx, AutoPageEvaluationInput{
			RoomID:        roomID,
			Severity:      sig.Severity,
			CaseVariables: sig.CaseVariables,
		})
		if err != nil {
			// Fail closed: without room context we cannot page
			// safely, so this update is skipped, not retried.
			logger.Error("Auto-page evaluation failed", "roomID", roomID, "error", err)
			continue
		}
		lastOutcome = outcome
	}

	// Drain buffered signals so none are lost across the reset.
	for {
		var sig BotDataUpdatedSignal
		if !sigChan.ReceiveAsync(&sig) {
			break
		}
		outcome, err := AutoPageEvaluation(ctx, AutoPageEvaluationInput{
			RoomID:        roomID,
			Severity:      sig.Severity,
			CaseVariables: sig.CaseVariables,
		})
		if err != nil {
			logger.Error("Auto-page evaluation failed", "roomID", roomID, "error", err)
			continue
		}
		lastOutcome = outcome
	}

	return workflow.NewContinueAsNewError(ctx, AutoPageWorkflow, roomID)
}

// AutoPageEvaluation runs one complete auto-page decision:
// fetch room context, filter candidate teams, dispatch pages in
// parallel, aggregate the results, persist the new incidents and post
// the timeline event. Also registered as a standalone workflow for
// one-shot runs.
func AutoPageEvaluation(ctx workflow.Context, input AutoPageEvaluationInput) (paging.PageOutcome, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: boundaryCallTimeout,
		// The pager never retries: a failed attempt is recorded and
		// surfaced, not re-sent.
		RetryPolicy: &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var incidents []models.Incident
	if err := workflow.ExecuteActivity(ctx, a.GetRoomIncidents, input.RoomID).Get(ctx, &incidents); err != nil {
		return paging.PageOutcome{}, err
	}

	var teams []models.Team
	if err := workflow.ExecuteActivity(ctx, a.GetAutoPageTeams, input.RoomID).Get(ctx, &teams); err != nil {
		return paging.PageOutcome{}, err
	}
	if len(teams) == 0 {
		return paging.PageOutcome{}, nil
	}

	notYetPaged := paging.RemoveAlreadyPagedTeams(logger, incidents, teams)
	toPage := paging.RemoveTeamsWithoutMatchingSeverity(logger, notYetPaged, input.Severity)
	if len(toPage) == 0 {
		return paging.PageOutcome{}, nil
	}

	// The renderer degrades to an empty message internally; an
	// activity-level failure here still must not lose the page.
	var message string
	err := workflow.ExecuteActivity(ctx, a.RenderPageMessage, activities.RenderPageMessageInput{
		RoomID:        input.RoomID,
		CaseVariables: input.CaseVariables,
	}).Get(ctx, &message)
	if err != nil {
		logger.Warn("Could not render page message, paging without one", "roomID", input.RoomID, "error", err)
		message = ""
	}

	logger.Info("Auto paging teams", "roomID", input.RoomID, "teams", len(toPage), "severity", input.Severity)

	// Scatter: every attempt is dispatched before any is awaited, and
	// aggregation only proceeds once all of them have resolved. One
	// team's failure never blocks another's page.
	futures := make([]workflow.Future, len(toPage))
	for i, team := range toPage {
		futures[i] = workflow.ExecuteActivity(ctx, a.TriggerPage, activities.TriggerPageInput{
			ServiceID: team.ID,
			Message:   message,
			RoomID:    input.RoomID,
		})
	}

	results := make([]models.PageResult, len(futures))
	for i, future := range futures {
		var res models.PageResult
		if err := future.Get(ctx, &res); err != nil {
			logger.Warn("Page attempt failed in transport", "serviceID", toPage[i].ID, "error", err)
			res = models.PageResult{Errors: []string{err.Error()}}
		}
		results[i] = res
	}

	outcome := paging.AggregatePageResults(results)

	if len(outcome.Incidents) > 0 {
		updated := append(incidents, outcome.Incidents...)
		err := workflow.ExecuteActivity(ctx, a.SaveRoomIncidents, activities.SaveRoomIncidentsInput{
			RoomID:    input.RoomID,
			Incidents: updated,
		}).Get(ctx, nil)
		if err != nil {
			logger.Error("Failed to persist incident list", "roomID", input.RoomID, "error", err)
		}
	}

	if outcome.SummaryText != "" {
		err := workflow.ExecuteActivity(ctx, a.CreateAutoPageEvent, activities.CreateAutoPageEventInput{
			RoomID:  input.RoomID,
			Summary: outcome.SummaryText,
		}).Get(ctx, nil)
		if err != nil {
			logger.Error("Failed to post timeline event", "roomID", input.RoomID, "error", err)
		}
	}

	return outcome, nil
}
