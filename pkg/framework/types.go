package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// Sleeper pauses the caller.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, whichever comes first.
	// It returns ctx.Err() if interrupted.
	Sleep(ctx context.Context, d time.Duration) error
}

// Clock combines TimeSource and Sleeper. All timing-gated logic
// reads time and pauses through a Clock.
type Clock interface {
	TimeSource
	Sleeper
}
