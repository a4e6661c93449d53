// Package fault detects bursts of bus faults and triggers recovery.
package fault

import (
	"time"
)

// Burst policy.
const (
	DefaultBurstWindow    = 2 * time.Second
	DefaultBurstThreshold = 2
)

// State is the running fault count.
type State struct {
	Count     int
	LastFault time.Time
}

// Bursting reports whether faults are arriving within the burst window.
func (s State) Bursting() bool {
	return s.Count > 0
}

// Tracker classifies faults over time. A single glitch is tolerated,
// more than Threshold faults each within Window of the previous one
// require a power-cycle.
type Tracker struct {
	Window    time.Duration
	Threshold int

	state State
}

// NewTracker creates a Tracker in the quiet state at now.
func NewTracker(now time.Time) *Tracker {
	return &Tracker{
		Window:    DefaultBurstWindow,
		Threshold: DefaultBurstThreshold,
		state:     State{LastFault: now},
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Observe records a fault at time at and returns true when recovery is
// required. The count is reset after triggering so the next fault doesn't
// trigger again.
func (t *Tracker) Observe(at time.Time) bool {
	if at.Sub(t.state.LastFault) <= t.Window {
		t.state.Count++
	} else {
		t.state.Count = 0
	}
	t.state.LastFault = at
	if t.state.Count > t.Threshold {
		t.state.Count = 0
		return true
	}
	return false
}
