// Package logging builds the bot's zap loggers and bridges them into
// the Temporal SDK's logging interface.
package logging

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// NewLogger returns the service logger for the given deployment env.
// "dev" gets the human-readable development config, everything else
// production JSON.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// TemporalLogger adapts a zap logger to Temporal's log.Logger so the
// client, worker and workflow code all emit through the same sink.
type TemporalLogger struct {
	s *zap.SugaredLogger
}

// NewTemporalLogger wraps z for use in Temporal client/worker options.
func NewTemporalLogger(z *zap.Logger) *TemporalLogger {
	// Skip the adapter frame so call sites are reported correctly.
	return &TemporalLogger{s: z.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

var _ log.Logger = (*TemporalLogger)(nil)

func (l *TemporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.s.Debugw(msg, keyvals...)
}

func (l *TemporalLogger) Info(msg string, keyvals ...interface{}) {
	l.s.Infow(msg, keyvals...)
}

func (l *TemporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.s.Warnw(msg, keyvals...)
}

func (l *TemporalLogger) Error(msg string, keyvals ...interface{}) {
	l.s.Errorw(msg, keyvals...)
}
