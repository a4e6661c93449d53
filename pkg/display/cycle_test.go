package display

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/meter.go/pkg/bus"
	fx "github.com/robotalks/meter.go/pkg/framework"
	"github.com/robotalks/meter.go/pkg/gauge"
	"github.com/robotalks/meter.go/pkg/matrix"
)

var start = time.Date(2021, 5, 22, 19, 0, 0, 0, time.UTC)

type recordTransport struct {
	packets []bus.Packet
	fail    bool
}

func (r *recordTransport) Send(addr bus.Address, cmd byte, payload []byte) error {
	if r.fail {
		return &bus.BusFault{Addr: addr, Cmd: cmd, Err: errors.New("remote I/O error")}
	}
	r.packets = append(r.packets, bus.Packet{Addr: addr, Cmd: cmd, Data: append([]byte(nil), payload...)})
	return nil
}

func (r *recordTransport) stepper() []bus.Packet {
	var pkts []bus.Packet
	for _, pkt := range r.packets {
		if pkt.Addr == bus.StepperAddr {
			pkts = append(pkts, pkt)
		}
	}
	return pkts
}

func (r *recordTransport) commits() []string {
	var texts []string
	for _, pkt := range r.packets {
		if pkt.Addr == bus.MatrixAddr && pkt.Cmd == matrix.OpCommit {
			texts = append(texts, string(pkt.Data))
		}
	}
	return texts
}

type fakePower struct {
	on, off int
}

func (p *fakePower) On(context.Context) error  { p.on++; return nil }
func (p *fakePower) Off(context.Context) error { p.off++; return nil }

type recordReporter []error

func (r *recordReporter) Report(ctx context.Context, err error) { *r = append(*r, err) }

type recordListener []Record

func (l *recordListener) RecordShown(rec Record) { *l = append(*l, rec) }

type testEnv struct {
	clock     *fx.ManualClock
	transport *recordTransport
	reporter  *recordReporter
	power     *fakePower
	cycle     *Cycle
}

func newTestEnv(src Source) *testEnv {
	env := &testEnv{
		clock:     fx.NewManualClock(start),
		transport: &recordTransport{},
		reporter:  &recordReporter{},
		power:     &fakePower{},
	}
	framer := matrix.NewFramer(env.transport, env.reporter, env.clock)
	drv := gauge.NewDriver(env.transport, env.reporter, env.clock)
	env.cycle = NewCycle(src, framer, drv, env.power, env.clock)
	return env
}

var game = Record{Away: "Away (2)", AwayRatio: 0.55, Home: "Home (3)", HomeRatio: 0.60}

func TestPresentSingleRecord(t *testing.T) {
	env := newTestEnv(nil)
	passes, err := env.cycle.Present(context.Background(), []Record{game})
	require.NoError(t, err)
	require.Equal(t, 15, passes)

	steps := env.transport.stepper()
	require.Len(t, steps, 32)
	var zeros []int
	for n := 0; n < len(steps); n += 2 {
		if string(steps[n].Data) == "0" {
			require.Equal(t, "0", string(steps[n+1].Data))
			zeros = append(zeros, n/2)
		} else {
			require.Equal(t, "1165", string(steps[n].Data))
			require.Equal(t, "1260", string(steps[n+1].Data))
		}
	}
	// the zero command follows the 8th position command, when the
	// accumulator reaches 96 >= 90.
	require.Equal(t, []int{8}, zeros)

	commits := env.transport.commits()
	require.Len(t, commits, 30)
	require.Equal(t, "Away (2)1", commits[0])
	require.Equal(t, "Home (3)0", commits[1])
	require.Empty(t, *env.reporter)
}

func TestPresentMultipleRecords(t *testing.T) {
	env := newTestEnv(nil)
	env.cycle.Variant = Track
	var shown recordListener
	env.cycle.Listener = &shown
	records := []Record{game, {Away: "Tigers (1)", Home: "Twins (0)", AwayRatio: 0.4, HomeRatio: 0.5}}

	passes, err := env.cycle.Present(context.Background(), records)
	require.NoError(t, err)
	// 2 records x 12 per pass: 24, 48, 72 >= 60.
	require.Equal(t, 3, passes)
	require.Len(t, shown, 6)
	require.Equal(t, records[1], shown[5])

	var zeros int
	for _, pkt := range env.transport.stepper() {
		if pkt.Cmd == gauge.MotorA && string(pkt.Data) == "0" {
			zeros++
		}
	}
	require.Equal(t, 1, zeros)
}

func TestPresentFaultsDoNotStop(t *testing.T) {
	env := newTestEnv(nil)
	env.transport.fail = true
	passes, err := env.cycle.Present(context.Background(), []Record{game})
	require.NoError(t, err)
	require.Equal(t, 15, passes)
	require.NotEmpty(t, *env.reporter)
	for _, err := range *env.reporter {
		require.True(t, bus.IsFault(err))
	}
}

func TestPresentCanceled(t *testing.T) {
	env := newTestEnv(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	passes, err := env.cycle.Present(ctx, []Record{game})
	require.Equal(t, context.Canceled, err)
	require.Zero(t, passes)
	require.Empty(t, env.transport.packets)
}

func TestRunFetchBackoff(t *testing.T) {
	var fetches []time.Time
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var env *testEnv
	env = newTestEnv(SourceFunc(func(context.Context) ([]Record, error) {
		fetches = append(fetches, env.clock.Time())
		switch len(fetches) {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return nil, nil
		case 3:
			return []Record{game}, nil
		}
		cancel()
		return nil, ctx.Err()
	}))

	err := env.cycle.Run(ctx)
	require.Equal(t, context.Canceled, err)
	require.Len(t, fetches, 4)
	require.Equal(t, start, fetches[0])
	require.Equal(t, start.Add(15*time.Second), fetches[1])
	require.Equal(t, start.Add(30*time.Second), fetches[2])
	require.Len(t, env.transport.commits(), 30)
}

func TestStartupShutdown(t *testing.T) {
	env := newTestEnv(nil)
	require.NoError(t, env.cycle.Startup(context.Background()))
	require.Equal(t, 1, env.power.on)
	require.Equal(t, []bus.Packet{
		{Addr: bus.StepperAddr, Cmd: gauge.MotorA, Data: []byte("0")},
		{Addr: bus.StepperAddr, Cmd: gauge.MotorB, Data: []byte("0")},
	}, env.transport.packets)

	env.transport.packets = nil
	env.cycle.Shutdown()
	require.Equal(t, 1, env.power.off)
	require.Len(t, env.transport.stepper(), 2)
	require.Equal(t, []string{" 1", " 0"}, env.transport.commits())
}

func TestShutdownSwallowsFaults(t *testing.T) {
	env := newTestEnv(nil)
	env.transport.fail = true
	env.cycle.Shutdown()
	require.Equal(t, 1, env.power.off)
	require.Empty(t, *env.reporter)
}

func TestVariantByName(t *testing.T) {
	v, err := VariantByName("track")
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, v.Budget)
	v, err = VariantByName("scores")
	require.NoError(t, err)
	require.Equal(t, 180*time.Second, v.Budget)
	_, err = VariantByName("weather")
	require.Error(t, err)
}

func TestPresentNoRecords(t *testing.T) {
	env := newTestEnv(nil)
	passes, err := env.cycle.Present(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, passes)
	require.Empty(t, env.transport.packets)
}
