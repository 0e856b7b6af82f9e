// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gogama/agent/request"
)

// A Waiter gives the pause before the next attempt of an execution. It
// is only consulted after the Decider of the same policy has accepted a
// retry, and e.Attempt is then the index of the attempt which just
// ended.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// DefaultWaiter backs off exponentially from 50ms up to 1s, with full
// jitter.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now())

// NewFixedWaiter returns a Waiter which always waits d.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter returns a Waiter whose ceiling doubles with every
// attempt, starting at base and capped at max:
//
//	ceil = min(base * 2**attempt, max)
//
// It panics unless 0 < base <= max.
//
// With a nil jitter the waiter returns the ceiling itself. Otherwise
// it returns a uniformly random duration below the ceiling ("full
// jitter"), drawn from jitter, which may be a *rand.Rand, a rand.Source,
// or a seed given as a time.Time, int or int64.
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("agent/retry: base must be positive")
	}
	if max < base {
		panic("agent/retry: max must be at least base")
	}
	return &expWaiter{
		base: base,
		max:  max,
		rand: newRand(jitter),
	}
}

type expWaiter struct {
	base, max time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

func (w *expWaiter) ceil(attempt int) time.Duration {
	d := w.base
	for i := 0; i < attempt && d < w.max; i++ {
		d *= 2
	}
	if d > w.max {
		d = w.max
	}
	return d
}

func (w *expWaiter) Wait(e *request.Execution) time.Duration {
	c := w.ceil(e.Attempt)
	if w.rand == nil {
		return c
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Duration(w.rand.Int63n(int64(c)))
}

func newRand(jitter interface{}) *rand.Rand {
	switch j := jitter.(type) {
	case nil:
		return nil
	case *rand.Rand:
		if j == nil {
			panic("agent/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		return rand.New(j)
	case time.Time:
		return rand.New(rand.NewSource(j.UnixNano()))
	case int:
		return rand.New(rand.NewSource(int64(j)))
	case int64:
		return rand.New(rand.NewSource(j))
	default:
		panic("agent/retry: invalid jitter type")
	}
}
