package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"oncall-bot/internal/config"
	"oncall-bot/internal/logging"
	"oncall-bot/internal/pagerduty"
	"oncall-bot/internal/refocus"
	"oncall-bot/internal/server"
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

	dispatcher := &server.Dispatcher{
		Temporal:  c,
		Refocus:   &refocus.Client{Token: cfg.APIToken, BaseURL: cfg.RefocusURL},
		PagerDuty: &pagerduty.Client{Token: cfg.PDToken, Sender: cfg.PDSender, BaseURL: pagerDutyBaseURL},
		Log:       logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Realtime feed: socket events and webhook events flow through
	// the same dispatcher.
	if cfg.SocketToken != "" {
		socket := &refocus.Socket{
			URL:   socketURL(cfg.RefocusURL),
			Token: cfg.SocketToken,
			Log:   logger,
		}
		events := make(chan refocus.RoomEvent, 64)
		go func() {
			if err := socket.Listen(ctx, events); err != nil {
				logger.Error("socket listener stopped", zap.Error(err))
			}
		}()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-events:
					if err := dispatcher.HandleEvent(ctx, ev); err != nil {
						logger.Error("event dispatch failed",
							zap.String("kind", string(ev.Kind)),
							zap.String("roomId", ev.RoomID),
							zap.Error(err))
					}
				}
			}
		}()
	} else {
		logger.Warn("no socket token configured, relying on webhook delivery only")
	}

	srv := server.New(dispatcher, logger)
	logger.Info("bot listening", zap.String("port", cfg.Port))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(":" + cfg.Port) }()

	select {
	case err := <-errCh:
		logger.Fatal("server stopped", zap.Error(err))
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}
}

// socketURL derives the websocket endpoint from the platform URL.
func socketURL(refocusURL string) string {
	ws := refocusURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + "/socket"
}
