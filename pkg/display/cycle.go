// Package display runs the rendering loop over the matrix rows and gauges.
package display

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/fault"
	fx "github.com/robotalks/meter.go/pkg/framework"
	"github.com/robotalks/meter.go/pkg/gauge"
	"github.com/robotalks/meter.go/pkg/matrix"
)

// Loop timing defaults.
const (
	DefaultDwell        = 12 * time.Second
	DefaultFieldPause   = 200 * time.Millisecond
	DefaultPassPause    = time.Second
	DefaultZeroPause    = 50 * time.Millisecond
	DefaultFetchBackoff = 15 * time.Second
	DefaultShutdownTime = 30 * time.Second
)

// PowerSwitch switches the peripherals.
type PowerSwitch interface {
	On(ctx context.Context) error
	Off(ctx context.Context) error
}

// Listener is notified of the record being shown.
type Listener interface {
	RecordShown(Record)
}

// Cycle renders records repeatedly. It is the only writer to the bus and
// runs on a single goroutine.
type Cycle struct {
	Source  Source
	Framer  *matrix.Framer
	Gauge   *gauge.Driver
	Power   PowerSwitch
	Clock   fx.Clock
	Mapping gauge.Mapping
	Variant Variant

	Dwell        time.Duration
	FieldPause   time.Duration
	PassPause    time.Duration
	ZeroPause    time.Duration
	FetchBackoff time.Duration
	ShutdownTime time.Duration

	ChannelA *matrix.Channel
	ChannelB *matrix.Channel
	Listener Listener
}

// NewCycle creates a Cycle with default timings.
func NewCycle(src Source, framer *matrix.Framer, drv *gauge.Driver, power PowerSwitch, clock fx.Clock) *Cycle {
	return &Cycle{
		Source:       src,
		Framer:       framer,
		Gauge:        drv,
		Power:        power,
		Clock:        clock,
		Mapping:      gauge.DefaultMapping,
		Variant:      Scores,
		Dwell:        DefaultDwell,
		FieldPause:   DefaultFieldPause,
		PassPause:    DefaultPassPause,
		ZeroPause:    DefaultZeroPause,
		FetchBackoff: DefaultFetchBackoff,
		ShutdownTime: DefaultShutdownTime,
		ChannelA:     matrix.NewChannelA(),
		ChannelB:     matrix.NewChannelB(),
	}
}

// Startup powers the peripherals and parks the gauges.
func (c *Cycle) Startup(ctx context.Context) error {
	if err := c.Power.On(ctx); err != nil {
		return err
	}
	c.Gauge.Zero(ctx)
	return c.Clock.Sleep(ctx, time.Second)
}

// Run implements Runnable. It fetches records and shows them for the
// variant's budget, forever, until ctx is done.
func (c *Cycle) Run(ctx context.Context) error {
	for {
		records, err := c.fetch(ctx)
		if err != nil {
			return err
		}
		if _, err = c.Present(ctx, records); err != nil {
			return err
		}
	}
}

// Present shows records until the elapsed-time accumulator reaches the
// budget. Every pass shows all records; the accumulator advances by Dwell
// per record, and the gauges are zeroed once when it crosses half the
// budget. It returns the number of passes, zero for no records.
func (c *Cycle) Present(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	var elapsed time.Duration
	var passes int
	zeroed := false
	for elapsed < c.Variant.Budget {
		if err := c.Clock.Sleep(ctx, c.PassPause); err != nil {
			return passes, err
		}
		for _, rec := range records {
			if err := c.show(ctx, rec); err != nil {
				return passes, err
			}
			elapsed += c.Dwell
			if !zeroed && elapsed >= c.Variant.Budget/2 {
				glog.V(2).Infof("zeroing gauges at %v", elapsed)
				c.Gauge.Zero(ctx)
				zeroed = true
				if err := c.Clock.Sleep(ctx, c.ZeroPause); err != nil {
					return passes, err
				}
			}
		}
		passes++
	}
	return passes, nil
}

// Shutdown blanks the display, parks the gauges and powers off. It uses its
// own bounded context and never fails: faults are logged and not fed to
// recovery.
func (c *Cycle) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), c.ShutdownTime)
	defer cancel()

	var errs fx.AggregatedError
	collect := fault.ReporterFunc(func(_ context.Context, err error) {
		errs.Add(err)
	})
	framer, drv := *c.Framer, *c.Gauge
	framer.Reporter, drv.Reporter = collect, collect

	c.Clock.Sleep(ctx, time.Second)
	drv.Zero(ctx)
	c.Clock.Sleep(ctx, 500*time.Millisecond)
	framer.Display(ctx, " ", c.ChannelA)
	c.Clock.Sleep(ctx, c.FieldPause)
	framer.Display(ctx, " ", c.ChannelB)
	c.Clock.Sleep(ctx, 3*time.Second)
	errs.Add(c.Power.Off(ctx))
	if err := errs.Aggregate(); err != nil {
		glog.Warningf("shutdown: %v", err)
	}
	glog.Info("shutdown complete")
}

func (c *Cycle) show(ctx context.Context, rec Record) error {
	glog.V(2).Infof("show %s", rec)
	c.Framer.Display(ctx, rec.Away, c.ChannelA)
	if err := c.Clock.Sleep(ctx, c.FieldPause); err != nil {
		return err
	}
	c.Framer.Display(ctx, rec.Home, c.ChannelB)
	if err := c.Clock.Sleep(ctx, c.FieldPause); err != nil {
		return err
	}
	a, b := c.Mapping.Positions(rec.AwayRatio, rec.HomeRatio)
	c.Gauge.SetValues(ctx, a, b)
	if c.Listener != nil {
		c.Listener.RecordShown(rec)
	}
	return c.Clock.Sleep(ctx, c.Dwell)
}

func (c *Cycle) fetch(ctx context.Context) ([]Record, error) {
	for {
		records, err := c.Source.Fetch(ctx)
		switch {
		case err != nil:
			glog.Warningf("fetch records error: %v", err)
		case len(records) == 0:
			glog.Info("no records available")
		default:
			glog.V(2).Infof("fetched %d records", len(records))
			return records, nil
		}
		if err = c.Clock.Sleep(ctx, c.FetchBackoff); err != nil {
			return nil, err
		}
	}
}
