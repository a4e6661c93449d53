package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/bus"
	"github.com/robotalks/meter.go/pkg/display"
	"github.com/robotalks/meter.go/pkg/env"
	"github.com/robotalks/meter.go/pkg/feed"
	"github.com/robotalks/meter.go/pkg/feed/mlb"
	fx "github.com/robotalks/meter.go/pkg/framework"
	"github.com/robotalks/meter.go/pkg/meter"
	"github.com/robotalks/meter.go/pkg/platform"
	"github.com/robotalks/meter.go/pkg/status"
)

func init() {
	env.SetupDaemonFlags()
}

// serve starts the cycle and waits until runner stops. The returned
// flag tells whether the cycle is known to be stopped, so the bus is free
// for Shutdown.
func serve(runner *fx.Runner, cycle *display.Cycle) (bool, error) {
	if err := cycle.Startup(runner.Context); err != nil {
		if !errors.Is(err, context.Canceled) {
			return true, fmt.Errorf("startup: %w", err)
		}
	} else {
		runner.Go(fx.NamedRun("cycle", cycle))
	}
	err := runner.Wait()
	if errors.Is(err, fx.ErrForcedExit) {
		return false, err
	}
	return true, err
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig().MustValidate()
	clock := fx.SystemClock

	hw, err := platform.Open(conf.I2CBus, conf.PowerPin)
	if err != nil {
		glog.Exitf("open hardware: %v", err)
	}
	defer hw.Close()

	m := meter.New(bus.NewI2C(hw.Bus), hw.Rail, clock)
	m.Mapping = conf.Mapping

	src, err := feed.Open(conf.FeedURL, clock)
	if err != nil {
		glog.Exitf("open feed: %v", err)
	}
	if c, ok := src.Source.(*mlb.Client); ok {
		if conf.Date != "" {
			c.Date = conf.Date
		}
		if conf.SpoilerTeam != 0 {
			c.SpoilerTeam = conf.SpoilerTeam
		}
	}

	cycle := display.NewCycle(src, m.Framer, m.Gauge, m.Power, clock)
	cycle.Variant = conf.DisplayVariant()
	cycle.Mapping = conf.Mapping
	cycle.ChannelA, cycle.ChannelB = m.ChannelA, m.ChannelB

	// Status outlives the runner so the shutdown events are delivered.
	statusCtx, stopStatus := context.WithCancel(context.Background())
	statusDone := make(chan error, 1)
	if conf.MQTTBrokerURL != "" {
		sink, err := status.NewMQTT(conf.MQTTBrokerURL, conf.ID)
		if err != nil {
			glog.Exitf("status: %v", err)
		}
		pub := status.NewPublisher(sink, conf.ID, clock)
		m.SetListener(pub)
		cycle.Listener = pub
		go func() { statusDone <- sink.Run(statusCtx) }()
	} else {
		statusDone <- nil
	}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(src.Runners...)
	glog.Infof("meter %s: %s variant, feed %s", conf.ID, cycle.Variant.Name, conf.FeedURL)
	stopped, err := serve(runner, cycle)
	if stopped {
		cycle.Shutdown()
	} else {
		glog.Warning("display still running, shutdown sequence skipped")
	}
	stopStatus()
	<-statusDone
	if err != nil {
		hw.Close()
		glog.Exitf("%v", err)
	}
}
