package workmode

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type ConfigLoader interface {
	LoadConfig(ctx context.Context, companyID string) (CompanyWorkConfig, error)
}

// SessionReconciler mirrors global mode changes into a local session timer.
type SessionReconciler interface {
	Reconcile(mode string)
}

// CoordinatorState is a point-in-time snapshot of one connected client's view
// of the company mode.
type CoordinatorState struct {
	CompanyID          string `json:"companyId"`
	Mode               Mode   `json:"mode"`
	ActiveBreakReason  string `json:"activeBreakReason,omitempty"`
	Version            int64  `json:"version"`
	BreakAlertActive   bool   `json:"breakAlertActive"`
	WorkEndAlertActive bool   `json:"workEndAlertActive"`
}

// Coordinator tracks the company-global mode for a single connected client.
// Change application is idempotent: versions at or below the last applied one
// are discarded, and re-delivery of the current mode raises no second alert.
type Coordinator struct {
	mu      sync.Mutex
	state   CoordinatorState
	timer   SessionReconciler
	loader  ConfigLoader
	broker  *Broker
	changed chan CoordinatorState
}

func NewCoordinator(companyID string, loader ConfigLoader, broker *Broker) *Coordinator {
	return &Coordinator{
		state:   CoordinatorState{CompanyID: companyID, Mode: ModeIdle},
		loader:  loader,
		broker:  broker,
		changed: make(chan CoordinatorState, 16),
	}
}

func (c *Coordinator) AttachTimer(timer SessionReconciler) {
	c.mu.Lock()
	c.timer = timer
	c.mu.Unlock()
}

// Changes delivers a state snapshot after every applied change. Best-effort:
// a full channel drops the snapshot, the next one carries the newer state.
func (c *Coordinator) Changes() <-chan CoordinatorState {
	return c.changed
}

// Bootstrap seeds local state from the authoritative config.
func (c *Coordinator) Bootstrap(ctx context.Context) error {
	cfg, err := c.loader.LoadConfig(ctx, c.state.CompanyID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state.Mode = cfg.CurrentMode
	c.state.ActiveBreakReason = cfg.ActiveBreakReason
	c.state.Version = cfg.Version
	c.mu.Unlock()
	return nil
}

// Run consumes the change feed until the context ends. A closed subscription
// is treated as a dropped channel: resubscribe with backoff and reload the
// config so the client cannot drift from the authoritative mode.
func (c *Coordinator) Run(ctx context.Context) {
	wait := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		sub := c.broker.Subscribe(c.state.CompanyID, 16)
		if err := c.reload(ctx); err != nil {
			slog.Warn("coordinator reload failed", "companyId", c.state.CompanyID, "err", err)
		}

		open := c.consume(ctx, sub)
		sub.Close()
		if !open {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			wait *= 2
			if wait > 30*time.Second {
				wait = 30 * time.Second
			}
		} else {
			return
		}
	}
}

func (c *Coordinator) consume(ctx context.Context, sub *Subscription) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case change, ok := <-sub.C:
			if !ok {
				return false
			}
			c.Apply(change)
		}
	}
}

func (c *Coordinator) reload(ctx context.Context) error {
	cfg, err := c.loader.LoadConfig(ctx, c.state.CompanyID)
	if err != nil {
		return err
	}
	c.Apply(ModeChange{
		CompanyID: cfg.CompanyID,
		Mode:      cfg.CurrentMode,
		Reason:    cfg.ActiveBreakReason,
		Version:   cfg.Version,
	})
	return nil
}

// Apply folds one delivered change into local state.
func (c *Coordinator) Apply(change ModeChange) {
	c.mu.Lock()

	if change.Version != 0 && change.Version <= c.state.Version {
		c.mu.Unlock()
		return
	}
	if change.Version != 0 {
		c.state.Version = change.Version
	}
	if change.Mode == c.state.Mode {
		// Same mode re-delivered (eg. a schedule-only update): no alert.
		if c.state.Mode == ModeBreak && change.Reason != "" {
			c.state.ActiveBreakReason = change.Reason
		}
		c.mu.Unlock()
		return
	}

	previous := c.state.Mode
	c.state.Mode = change.Mode

	switch change.Mode {
	case ModeBreak:
		c.state.BreakAlertActive = true
		c.state.ActiveBreakReason = change.Reason
	case ModeWorking:
		if previous == ModeBreak {
			c.state.BreakAlertActive = false
		}
		c.state.ActiveBreakReason = ""
	case ModeEnded:
		c.state.WorkEndAlertActive = true
		c.state.ActiveBreakReason = ""
	case ModeIdle:
		// New epoch: clear everything.
		c.state.BreakAlertActive = false
		c.state.WorkEndAlertActive = false
		c.state.ActiveBreakReason = ""
	}

	timer := c.timer
	snapshot := c.state
	c.mu.Unlock()

	if timer != nil {
		timer.Reconcile(string(change.Mode))
	}

	select {
	case c.changed <- snapshot:
	default:
	}
}

func (c *Coordinator) DismissBreakAlert() {
	c.mu.Lock()
	c.state.BreakAlertActive = false
	c.mu.Unlock()
}

func (c *Coordinator) DismissWorkEndAlert() {
	c.mu.Lock()
	c.state.WorkEndAlertActive = false
	c.mu.Unlock()
}

func (c *Coordinator) State() CoordinatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
