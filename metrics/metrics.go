// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics records Prometheus metrics about request executions
// through a lifecycle event handler.
package metrics

import (
	"strconv"

	"github.com/gogama/agent"
	"github.com/gogama/agent/request"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "agent"

// Handler is a lifecycle event handler which records metrics.
type Handler struct {
	Attempts   *prometheus.CounterVec
	Retries    *prometheus.CounterVec
	Timeouts   *prometheus.CounterVec
	Errors     *prometheus.CounterVec
	Executions *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// New creates a handler and registers its collectors with reg. A nil
// reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Handler{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "attempts_total",
				Help:      "Total number of request attempts sent.",
			},
			[]string{"method"},
		),
		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "retries_total",
				Help:      "Total number of request retries.",
			},
			[]string{"method"},
		),
		Timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "attempt_timeouts_total",
				Help:      "Total number of request attempts which timed out, by phase.",
			},
			[]string{"method", "phase"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "errors_total",
				Help:      "Total number of failed request executions, by error kind.",
			},
			[]string{"method", "kind"},
		),
		Executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "executions_total",
				Help:      "Total number of completed request executions, by final status.",
			},
			[]string{"method", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "execution_duration_seconds",
				Help:      "Request execution duration in seconds, including retries.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
	}
	for _, c := range []prometheus.Collector{h.Attempts, h.Retries, h.Timeouts, h.Errors, h.Executions, h.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Install adds h to g for every event it records.
func (h *Handler) Install(g *agent.HandlerGroup) {
	for _, evt := range []agent.Event{
		agent.BeforeAttempt,
		agent.AfterAttemptTimeout,
		agent.BeforeRetry,
		agent.AfterExecutionEnd,
	} {
		g.PushBack(evt, h)
	}
}

func (h *Handler) Handle(evt agent.Event, e *request.Execution) {
	method := ""
	if e.Plan != nil {
		method = e.Plan.Method
	}

	switch evt {
	case agent.BeforeAttempt:
		h.Attempts.WithLabelValues(method).Inc()
	case agent.AfterAttemptTimeout:
		phase := "unknown"
		if err := e.Error(); err != nil && err.Kind == request.KindTimeout {
			phase = err.Phase.String()
		}
		h.Timeouts.WithLabelValues(method, phase).Inc()
	case agent.BeforeRetry:
		h.Retries.WithLabelValues(method).Inc()
	case agent.AfterExecutionEnd:
		h.Duration.WithLabelValues(method).Observe(e.Duration().Seconds())
		status := strconv.Itoa(int(e.LastStatus))
		if err := e.Error(); err != nil {
			h.Errors.WithLabelValues(method, err.Kind.String()).Inc()
			status = strconv.Itoa(int(err.Status))
		} else if e.Response != nil {
			status = strconv.Itoa(int(e.Response.Status))
		}
		h.Executions.WithLabelValues(method, status).Inc()
	}
}
