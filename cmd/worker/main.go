package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"oncall-bot/internal/activities"
	"oncall-bot/internal/config"
	"oncall-bot/internal/logging"
	"oncall-bot/internal/pagerduty"
	"oncall-bot/internal/refocus"
	"oncall-bot/internal/workflows"
)

const pagerDutyBaseURL = "https://api.pagerduty.com"

func main() {
	cfg := config.FromEnv()

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalln("Unable to build logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHostPort,
		Logger:   logging.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	// The page dispatch fans out one activity per team; this cap
	// bounds that fan-out across all rooms served by this worker.
	w := worker.New(c, workflows.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 32,
	})

	w.RegisterWorkflow(workflows.AutoPageWorkflow)
	w.RegisterWorkflow(workflows.AutoPageEvaluation)
	w.RegisterWorkflow(workflows.EngagementLogWorkflow)

	w.RegisterActivity(&activities.Activities{
		Refocus:   &refocus.Client{Token: cfg.APIToken, BaseURL: cfg.RefocusURL},
		PagerDuty: &pagerduty.Client{Token: cfg.PDToken, Sender: cfg.PDSender, BaseURL: pagerDutyBaseURL},
		BotID:     cfg.BotID,
		BotName:   cfg.BotName,
	})

	logger.Info("worker listening", zap.String("taskQueue", workflows.TaskQueue))

	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
