// Copyright 2021 The agent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"sync"
	"time"

	"github.com/gogama/agent/request"
)

// Fired reports that a timer fired.
type Fired struct {
	Phase request.Phase
	After time.Duration
}

// Timers enforces a Set on one attempt.
//
// Every enabled timeout is armed independently when Start is called.
// At most one value is ever sent on C: the first timer to fire wins, and
// any timer firing afterwards, or after Stop, is a no-op.
type Timers struct {
	// C receives the first timer to fire.
	C <-chan Fired

	c      chan Fired
	mu     sync.Mutex
	timers [request.UploadPhase + 1]*time.Timer
	done   bool
}

// Start arms the enabled timeouts in s and returns the running timers.
func Start(s Set) *Timers {
	c := make(chan Fired, 1)
	t := &Timers{C: c, c: c}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range []request.Phase{request.Overall, request.ResponsePhase, request.UploadPhase} {
		d := s.Get(p)
		if d <= 0 {
			continue
		}
		p := p
		t.timers[p] = time.AfterFunc(d, func() { t.fire(p, d) })
	}
	return t
}

func (t *Timers) fire(p request.Phase, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done || t.timers[p] == nil {
		return
	}
	t.done = true
	t.c <- Fired{Phase: p, After: d}
	t.stopAll()
}

// Armed reports whether the timer for phase p is still armed.
func (t *Timers) Armed(p request.Phase) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.done && t.timers[p] != nil
}

// Clear disarms the timer for phase p. Clearing a timer which is not
// armed has no effect.
func (t *Timers) Clear(p request.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tm := t.timers[p]; tm != nil {
		tm.Stop()
		t.timers[p] = nil
	}
}

// Stop disarms every timer. After Stop returns nothing further is sent
// on C.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.stopAll()
}

func (t *Timers) stopAll() {
	for i, tm := range t.timers {
		if tm != nil {
			tm.Stop()
			t.timers[i] = nil
		}
	}
}
