package meter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/robotalks/meter.go/pkg/bus"
	"github.com/robotalks/meter.go/pkg/fault"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

type fakeRail struct {
	levels []gpio.Level
}

func (r *fakeRail) Out(l gpio.Level) error {
	r.levels = append(r.levels, l)
	return nil
}

type flakyTransport struct {
	sent int
	fail bool
}

func (t *flakyTransport) Send(addr bus.Address, cmd byte, payload []byte) error {
	if t.fail {
		return &bus.BusFault{Addr: addr, Cmd: cmd, Err: errors.New("remote I/O error")}
	}
	t.sent++
	return nil
}

type events struct {
	power    []bool
	faults   int
	recovers int
}

func (e *events) PowerChanged(on bool)                   { e.power = append(e.power, on) }
func (e *events) FaultObserved(err error, s fault.State) { e.faults++ }
func (e *events) RecoveryStarted()                       { e.recovers++ }

func TestRailDownSkipsTransfers(t *testing.T) {
	clock := fx.NewManualClock(time.Date(2021, 5, 22, 19, 0, 0, 0, time.UTC))
	transport := &flakyTransport{}
	m := New(transport, &fakeRail{}, clock)

	require.True(t, m.Gauge.Zero(context.Background()))
	require.Zero(t, transport.sent)
	stats := m.Supervisor.Stats()
	require.Zero(t, stats.Faults)
	require.Equal(t, 2, stats.Skipped)

	require.NoError(t, m.Power.On(context.Background()))
	require.True(t, m.Gauge.Zero(context.Background()))
	require.Equal(t, 2, transport.sent)
}

func TestFaultBurstPowerCycles(t *testing.T) {
	clock := fx.NewManualClock(time.Date(2021, 5, 22, 19, 0, 0, 0, time.UTC))
	transport := &flakyTransport{}
	rail := &fakeRail{}
	m := New(transport, rail, clock)
	var evts events
	m.SetListener(&evts)
	ctx := context.Background()

	require.NoError(t, m.Power.On(ctx))
	transport.fail = true
	// The first fault is isolated, the next three follow within the window.
	require.True(t, m.Gauge.Zero(ctx))
	require.Zero(t, evts.recovers)
	clock.Advance(250 * time.Millisecond)
	require.True(t, m.Gauge.Zero(ctx))

	stats := m.Supervisor.Stats()
	require.Equal(t, 4, stats.Faults)
	require.Equal(t, 1, stats.Recoveries)
	require.Equal(t, 1, evts.recovers)
	require.Equal(t, 4, evts.faults)
	require.Equal(t, []gpio.Level{gpio.High, gpio.Low, gpio.High}, rail.levels)
	require.Equal(t, []bool{true, false, true}, evts.power)
	require.True(t, m.Power.Powered())
}

func TestShowRatios(t *testing.T) {
	clock := fx.NewManualClock(time.Now())
	transport := &flakyTransport{}
	m := New(transport, &fakeRail{}, clock)
	require.NoError(t, m.Power.On(context.Background()))
	require.True(t, m.ShowRatios(context.Background(), 0.5, 1))
	require.Equal(t, 2, transport.sent)
}

func TestChannel(t *testing.T) {
	m := New(&flakyTransport{}, &fakeRail{}, fx.NewManualClock(time.Now()))
	ch, ok := m.Channel("a")
	require.True(t, ok)
	require.Same(t, m.ChannelA, ch)
	ch, ok = m.Channel("bottom")
	require.True(t, ok)
	require.Same(t, m.ChannelB, ch)
	_, ok = m.Channel("c")
	require.False(t, ok)
}
