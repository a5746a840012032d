package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Mode is one employee's own session phase, tracked client-locally and
// independent of the company-global mode.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeWorking Mode = "working"
	ModeBreak   Mode = "break"
	ModeEnded   Mode = "ended"
)

var ErrInvalidState = errors.New("invalid session state")

// Snapshot is a copy of the timer's counters and phase.
type Snapshot struct {
	Mode         Mode `json:"mode"`
	WorkSeconds  int  `json:"workSeconds"`
	BreakSeconds int  `json:"breakSeconds"`
}

// Timer counts one employee's personally-experienced work and break seconds.
// Each tick advances exactly one counter by one second; there is no
// drift-correction against wall-clock time. Counters are a local convenience,
// not a payroll source of truth.
type Timer struct {
	mu           sync.Mutex
	mode         Mode
	workSeconds  int
	breakSeconds int
	interval     time.Duration
}

func NewTimer() *Timer {
	return &Timer{mode: ModeIdle, interval: time.Second}
}

// StartWork begins or resumes working. Allowed only from idle or ended;
// counters are preserved, so resuming after a local idle keeps prior totals.
func (t *Timer) StartWork() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != ModeIdle && t.mode != ModeEnded {
		return ErrInvalidState
	}
	t.mode = ModeWorking
	return nil
}

// StartNewSession resets both counters and begins working. This is the only
// way counters return to zero.
func (t *Timer) StartNewSession() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != ModeIdle && t.mode != ModeEnded {
		return ErrInvalidState
	}
	t.mode = ModeWorking
	t.workSeconds = 0
	t.breakSeconds = 0
	return nil
}

func (t *Timer) TakeBreak() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != ModeWorking {
		return ErrInvalidState
	}
	t.mode = ModeBreak
	return nil
}

func (t *Timer) ResumeWork() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != ModeBreak {
		return ErrInvalidState
	}
	t.mode = ModeWorking
	return nil
}

// EndWork stops the session. Counters keep their final values for display.
func (t *Timer) EndWork() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != ModeWorking && t.mode != ModeBreak {
		return ErrInvalidState
	}
	t.mode = ModeEnded
	return nil
}

// Tick advances the counter for the active phase by one second.
func (t *Timer) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.mode {
	case ModeWorking:
		t.workSeconds++
	case ModeBreak:
		t.breakSeconds++
	}
}

// Run drives Tick on a fixed one-second cadence until the context ends.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Reconcile mirrors a company-global mode change into the local session, but
// only while the employee is actively in one: a global transition delivered
// while the local mode is idle or ended is informational only.
func (t *Timer) Reconcile(mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != ModeWorking && t.mode != ModeBreak {
		return
	}
	switch Mode(mode) {
	case ModeBreak:
		t.mode = ModeBreak
	case ModeWorking:
		t.mode = ModeWorking
	case ModeEnded:
		t.mode = ModeEnded
	}
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{Mode: t.mode, WorkSeconds: t.workSeconds, BreakSeconds: t.breakSeconds}
}
