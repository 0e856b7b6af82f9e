// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging builds zap loggers for agents and provides a
// lifecycle event handler which logs request executions.
package logging

import (
	"github.com/gogama/agent"
	"github.com/gogama/agent/request"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes a logger.
type Config struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string
	// Development selects a human-readable console encoding and stack
	// traces on warnings.
	Development bool
	// OutputPaths are zap sink URLs or file paths. Empty means stderr.
	OutputPaths []string
}

// DefaultConfig returns the configuration of a production logger.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		OutputPaths: []string{"stderr"},
	}
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = outputs
	zapCfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return zapCfg.Build()
}

// Handler is a lifecycle event handler which logs each execution's
// progress through a zap logger. Attempts are logged at debug level,
// retries and timeouts at info level, and the end of each execution at
// info level, or at warn level if it failed.
type Handler struct {
	log *zap.Logger
}

// NewHandler returns a handler which logs to log. A nil log means a
// no-op logger.
func NewHandler(log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{log: log}
}

// Install adds h to g for every event it logs.
func (h *Handler) Install(g *agent.HandlerGroup) {
	for _, evt := range []agent.Event{
		agent.BeforeAttempt,
		agent.AfterAttemptTimeout,
		agent.BeforeRetry,
		agent.AfterAbort,
		agent.AfterExecutionEnd,
	} {
		g.PushBack(evt, h)
	}
}

// Handle logs evt.
func (h *Handler) Handle(evt agent.Event, e *request.Execution) {
	log := h.log.With(
		zap.Stringer("execution", e.ID),
		zap.String("event", evt.Name()),
		zap.Int("attempt", e.Attempt),
	)
	if e.Plan != nil {
		log = log.With(zap.String("method", e.Plan.Method), zap.String("url", e.Plan.URL))
	}

	switch evt {
	case agent.BeforeAttempt:
		log.Debug("sending request")
	case agent.AfterAttemptTimeout:
		log.Info("attempt timed out", zap.Error(e.Err))
	case agent.BeforeRetry:
		log.Info("retrying request", zap.Int("status", e.StatusCode()), zap.Error(e.Err))
	case agent.AfterAbort:
		log.Info("request aborted")
	case agent.AfterExecutionEnd:
		fields := []zap.Field{
			zap.Duration("duration", e.Duration()),
			zap.Int("attemptTimeouts", e.AttemptTimeouts),
		}
		if err := e.Error(); err != nil {
			fields = append(fields,
				zap.Stringer("kind", err.Kind),
				zap.Int("status", int(err.Status)),
				zap.Error(err))
			log.Warn("request failed", fields...)
			return
		}
		log.Info("request completed", append(fields, zap.Int("status", e.StatusCode()))...)
	}
}
