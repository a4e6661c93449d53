package fault

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/bus"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

// Reporter receives errors from bus writers.
type Reporter interface {
	Report(ctx context.Context, err error)
}

// Recoverer power-cycles the peripherals.
type Recoverer interface {
	Recover(ctx context.Context)
}

// Listener is notified of observed faults and recoveries.
type Listener interface {
	FaultObserved(err error, state State)
	RecoveryStarted()
}

// Stats are totals since start.
type Stats struct {
	Faults     int
	Recoveries int
	Skipped    int
}

// Supervisor is the sink of all transfer errors.
type Supervisor struct {
	Tracker   *Tracker
	Recoverer Recoverer
	Clock     fx.TimeSource
	Listener  Listener

	stats Stats
	lock  sync.Mutex
}

// NewSupervisor creates a Supervisor with a fresh Tracker.
func NewSupervisor(clock fx.TimeSource, recoverer Recoverer) *Supervisor {
	return &Supervisor{
		Tracker:   NewTracker(clock.Time()),
		Recoverer: recoverer,
		Clock:     clock,
	}
}

// Report implements Reporter. Only *bus.BusFault counts towards a burst,
// other errors (e.g. bus.ErrRailDown) are logged as skipped writes.
func (s *Supervisor) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if !bus.IsFault(err) {
		glog.V(2).Infof("write skipped: %v", err)
		s.lock.Lock()
		s.stats.Skipped++
		s.lock.Unlock()
		return
	}
	glog.Warningf("%v", err)
	s.lock.Lock()
	s.stats.Faults++
	needRecovery := s.Tracker.Observe(s.Clock.Time())
	state := s.Tracker.State()
	if needRecovery {
		s.stats.Recoveries++
	}
	s.lock.Unlock()

	if state.Bursting() {
		glog.Infof("fault burst: %d", state.Count)
	}
	if s.Listener != nil {
		s.Listener.FaultObserved(err, state)
	}
	if !needRecovery {
		return
	}
	glog.Warning("peripherals unresponsive, recovery required")
	if s.Listener != nil {
		s.Listener.RecoveryStarted()
	}
	if s.Recoverer != nil {
		s.Recoverer.Recover(ctx)
	}
}

// Stats returns the totals.
func (s *Supervisor) Stats() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stats
}

// State returns the tracker state.
func (s *Supervisor) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.Tracker.State()
}

// ReporterFunc is func form of Reporter.
type ReporterFunc func(ctx context.Context, err error)

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, err error) {
	f(ctx, err)
}
