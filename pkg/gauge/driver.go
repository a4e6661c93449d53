// Package gauge drives the stepper gauge pair.
//
// The stepper controller takes an absolute target per motor as ASCII
// decimal digits, with the motor number as command byte. There is no
// position feedback.
package gauge

import (
	"context"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/bus"
	"github.com/robotalks/meter.go/pkg/fault"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

// Motor select values.
const (
	MotorA byte = 0x01
	MotorB byte = 0x02
)

// MaxPosition is the largest target expressible in 4 digits.
const MaxPosition = 9999

// Timing defaults.
const (
	DefaultMinInterval = 200 * time.Millisecond
	DefaultSubDelay    = 50 * time.Microsecond
)

// ValidPosition checks pos is 1-4 ASCII decimal digits.
func ValidPosition(pos string) bool {
	if len(pos) < 1 || len(pos) > 4 {
		return false
	}
	for i := 0; i < len(pos); i++ {
		if pos[i] < '0' || pos[i] > '9' {
			return false
		}
	}
	return true
}

// Driver sends position commands to the stepper controller.
type Driver struct {
	Transport   bus.Transport
	Reporter    fault.Reporter
	Clock       fx.Clock
	Addr        bus.Address
	MinInterval time.Duration
	SubDelay    time.Duration
	Timer       bus.WriteTimer
}

// NewDriver creates a Driver for the stepper address.
func NewDriver(t bus.Transport, r fault.Reporter, clock fx.Clock) *Driver {
	return &Driver{
		Transport:   t,
		Reporter:    r,
		Clock:       clock,
		Addr:        bus.StepperAddr,
		MinInterval: DefaultMinInterval,
		SubDelay:    DefaultSubDelay,
	}
}

// SetPositions moves both gauges. Calls closer than MinInterval to the
// previous accepted call are dropped and return false. A fault on one
// motor is reported and doesn't prevent the command to the other.
func (d *Driver) SetPositions(ctx context.Context, posA, posB string) bool {
	if !ValidPosition(posA) || !ValidPosition(posB) {
		glog.Errorf("gauge: %v %q %q", ErrInvalidPosition, posA, posB)
		return false
	}
	if !d.Timer.Allow(d.Clock.Time(), d.MinInterval) {
		glog.V(3).Infof("gauge: command dropped, last write %v ago", d.Timer.Elapsed(d.Clock.Time()))
		return false
	}
	d.send(ctx, MotorA, posA)
	d.Clock.Sleep(ctx, d.SubDelay)
	d.send(ctx, MotorB, posB)
	d.Timer.LastWrite = d.Clock.Time()
	glog.V(2).Infof("gauge: %s %s", posA, posB)
	return true
}

// SetValues formats integer positions, clamped to [0, MaxPosition].
func (d *Driver) SetValues(ctx context.Context, a, b int) bool {
	return d.SetPositions(ctx, strconv.Itoa(clamp(a)), strconv.Itoa(clamp(b)))
}

// Zero returns both gauges to rest.
func (d *Driver) Zero(ctx context.Context) bool {
	return d.SetPositions(ctx, "0", "0")
}

func (d *Driver) send(ctx context.Context, motor byte, pos string) {
	if err := d.Transport.Send(d.Addr, motor, []byte(pos)); err != nil && d.Reporter != nil {
		d.Reporter.Report(ctx, err)
	}
}

func clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > MaxPosition {
		return MaxPosition
	}
	return pos
}
