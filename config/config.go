// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads agent settings from environment variables and
// turns them into an Agent.
//
// With the prefix "AGENT", the recognized variables are:
//
//	AGENT_TRANSPORT              socket (default) or xhr
//	AGENT_TIMEOUT_OVERALL        overall timeout of each attempt
//	AGENT_TIMEOUT_RESPONSE       time allowed until response headers
//	AGENT_TIMEOUT_UPLOAD         time allowed to send the request body
//	AGENT_RETRY_TIMES            retries allowed by default (0)
//	AGENT_RETRY_WAIT_BASE        base of the exponential backoff (50ms)
//	AGENT_RETRY_WAIT_MAX         ceiling of the exponential backoff (1s)
//	AGENT_RATE_LIMIT_RPS         dispatches per second, 0 for no limit
//	AGENT_RATE_LIMIT_BURST       dispatch burst size (1)
//	AGENT_LOG_LEVEL              debug, info (default), warn or error
//	AGENT_LOG_DEVELOPMENT        console logging for development
//	AGENT_LOG_LIFECYCLE          log every request execution
//
// Durations use time.ParseDuration syntax.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gogama/agent"
	"github.com/gogama/agent/logging"
	"github.com/gogama/agent/retry"
	"github.com/gogama/agent/timeout"
	"github.com/gogama/agent/transport"
	"github.com/gogama/agent/transport/socket"
	"github.com/gogama/agent/transport/xhr"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/time/rate"
)

// Transport names.
const (
	Socket = "socket"
	XHR    = "xhr"
)

// Config holds agent settings.
type Config struct {
	Transport string `envconfig:"TRANSPORT" default:"socket"`
	Timeout   TimeoutConfig
	Retry     RetryConfig
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	Log       LogConfig
}

// TimeoutConfig holds the timeouts applied to every attempt. Zero
// disables a timeout.
type TimeoutConfig struct {
	Overall  time.Duration `envconfig:"OVERALL"`
	Response time.Duration `envconfig:"RESPONSE"`
	Upload   time.Duration `envconfig:"UPLOAD"`
}

// RetryConfig holds the default retry behavior.
type RetryConfig struct {
	Times    int           `envconfig:"TIMES" default:"0"`
	WaitBase time.Duration `envconfig:"WAIT_BASE" default:"50ms"`
	WaitMax  time.Duration `envconfig:"WAIT_MAX" default:"1s"`
}

// RateLimitConfig holds the dispatch rate limit.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"RPS" default:"0"`
	Burst             int     `envconfig:"BURST" default:"1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Development bool   `envconfig:"DEVELOPMENT" default:"false"`
	Lifecycle   bool   `envconfig:"LIFECYCLE" default:"false"`
}

// Load loads configuration from environment variables whose names
// start with prefix.
func Load(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("agent/config: failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration Load produces when no variables
// are set.
func Default() *Config {
	return &Config{
		Transport: Socket,
		Retry: RetryConfig{
			WaitBase: 50 * time.Millisecond,
			WaitMax:  time.Second,
		},
		RateLimit: RateLimitConfig{Burst: 1},
		Log:       LogConfig{Level: "info"},
	}
}

// Agent creates an agent configured by c.
func (c *Config) Agent() (*agent.Agent, error) {
	factory, err := c.transport()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logging.Config{Level: c.Log.Level, Development: c.Log.Development})
	if err != nil {
		return nil, fmt.Errorf("agent/config: bad log level: %w", err)
	}

	a := &agent.Agent{
		Transport: factory,
		Logger:    log,
	}
	set := timeout.Set{
		Overall:  c.Timeout.Overall,
		Response: c.Timeout.Response,
		Upload:   c.Timeout.Upload,
	}
	if !set.IsZero() {
		a.TimeoutPolicy = timeout.FixedSet(set)
	}
	if c.Retry.Times > 0 {
		if c.Retry.WaitBase <= 0 || c.Retry.WaitMax < c.Retry.WaitBase {
			return nil, fmt.Errorf("agent/config: bad retry waits %s..%s", c.Retry.WaitBase, c.Retry.WaitMax)
		}
		a.RetryPolicy = retry.NewPolicy(
			retry.Times(c.Retry.Times).And(retry.DefaultEligible),
			retry.NewExpWaiter(c.Retry.WaitBase, c.Retry.WaitMax, time.Now()))
	}
	if c.RateLimit.RequestsPerSecond > 0 {
		a.Limiter = rate.NewLimiter(rate.Limit(c.RateLimit.RequestsPerSecond), c.RateLimit.Burst)
	}
	if c.Log.Lifecycle {
		a.Handlers = &agent.HandlerGroup{}
		logging.NewHandler(log).Install(a.Handlers)
	}
	return a, nil
}

func (c *Config) transport() (transport.Factory, error) {
	switch strings.ToLower(c.Transport) {
	case "", Socket:
		return socket.New(nil), nil
	case XHR:
		return xhr.New(nil), nil
	default:
		return nil, fmt.Errorf("agent/config: unknown transport %q", c.Transport)
	}
}
