// Package control implements the interactive controls attached to bot
// replies: a regenerate and a delete button that stay usable for a fixed
// window after the reply was rendered.
//
// A control is Active when created and becomes Disabled exactly once, either
// when its window elapses or when an action replaces or deletes the reply it
// is bound to. Controls live in memory only.
package control

import (
	"sync"
	"sync/atomic"
	"time"
)

const DefaultTimeout = 30 * time.Second

type State int

const (
	StateActive State = iota
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

type Control struct {
	ID        string
	Reply     Reply
	CreatedAt time.Time
	ExpiresAt time.Time

	mu    sync.Mutex
	state State
	timer *time.Timer
	busy  atomic.Bool
}

func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Control) Enabled() bool {
	return c.State() == StateActive
}

// disable moves the control to Disabled and cancels its pending timeout.
// It reports whether this call made the transition.
func (c *Control) disable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisabled {
		return false
	}
	c.state = StateDisabled
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return true
}

func (c *Control) schedule(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return
	}
	c.timer = time.AfterFunc(d, f)
}

// begin marks an action as running. Only one action runs per control.
func (c *Control) begin() bool {
	return c.busy.CompareAndSwap(false, true)
}

func (c *Control) end() {
	c.busy.Store(false)
}
