// Package meter wires the peripherals of a meter together: the power
// rail, the gated bus, fault supervision and both peripheral drivers.
package meter

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/bus"
	"github.com/robotalks/meter.go/pkg/fault"
	fx "github.com/robotalks/meter.go/pkg/framework"
	"github.com/robotalks/meter.go/pkg/gauge"
	"github.com/robotalks/meter.go/pkg/matrix"
	"github.com/robotalks/meter.go/pkg/power"
)

// Meter is the assembled hardware stack. Every transfer goes through
// Transport, which is gated by Power, and faults are reported to
// Supervisor, which power-cycles the peripherals on a burst.
type Meter struct {
	Transport  bus.Transport
	Power      *power.Controller
	Supervisor *fault.Supervisor
	Framer     *matrix.Framer
	Gauge      *gauge.Driver
	Mapping    gauge.Mapping

	ChannelA *matrix.Channel
	ChannelB *matrix.Channel
}

// New assembles a Meter on the raw transport and rail.
func New(t bus.Transport, rail power.Rail, clock fx.Clock) *Meter {
	m := &Meter{
		Power:    power.NewController(rail, clock),
		Mapping:  gauge.DefaultMapping,
		ChannelA: matrix.NewChannelA(),
		ChannelB: matrix.NewChannelB(),
	}
	m.Transport = &bus.Gated{Transport: t, Gate: m.Power}
	m.Supervisor = fault.NewSupervisor(clock, m.Power)
	m.Framer = matrix.NewFramer(m.Transport, m.Supervisor, clock)
	m.Gauge = gauge.NewDriver(m.Transport, m.Supervisor, clock)
	return m
}

// Listener receives fault and power notifications.
type Listener interface {
	fault.Listener
	power.Listener
}

// SetListener installs l on the supervisor and the power controller.
func (m *Meter) SetListener(l Listener) {
	m.Supervisor.Listener = l
	m.Power.Listener = l
}

// Channel returns the row channel by name, "a" or "b".
func (m *Meter) Channel(name string) (*matrix.Channel, bool) {
	switch name {
	case "a", "A", "top":
		return m.ChannelA, true
	case "b", "B", "bottom":
		return m.ChannelB, true
	}
	return nil, false
}

// ShowRatios moves both gauges to the mapped ratios.
func (m *Meter) ShowRatios(ctx context.Context, ratioA, ratioB float64) bool {
	a, b := m.Mapping.Positions(ratioA, ratioB)
	glog.V(2).Infof("gauges %v/%v -> %d/%d", ratioA, ratioB, a, b)
	return m.Gauge.SetValues(ctx, a, b)
}
