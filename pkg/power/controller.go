// Package power switches the shared power rail of the peripherals.
package power

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"

	fx "github.com/robotalks/meter.go/pkg/framework"
)

// Settle times are part of the peripheral contract.
const (
	DefaultSettleOn = 4 * time.Second
	DefaultHoldOff  = 2 * time.Second
)

// Rail is the logic-level output feeding the peripherals.
// gpio.PinOut satisfies it.
type Rail interface {
	Out(l gpio.Level) error
}

// Listener is notified on rail transitions.
type Listener interface {
	PowerChanged(on bool)
}

// Controller drives the rail.
type Controller struct {
	Rail     Rail
	Clock    fx.Clock
	SettleOn time.Duration
	HoldOff  time.Duration
	Listener Listener

	powered bool
	lock    sync.RWMutex
}

// NewController creates a Controller with default settle times.
// The rail is assumed to be low.
func NewController(rail Rail, clock fx.Clock) *Controller {
	return &Controller{
		Rail:     rail,
		Clock:    clock,
		SettleOn: DefaultSettleOn,
		HoldOff:  DefaultHoldOff,
	}
}

// Powered implements bus.RailGate.
func (c *Controller) Powered() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.powered
}

// On drives the rail high and waits for the peripherals to boot.
// Peripherals are reported powered only after the full settle time, an
// interrupted settle leaves them unpowered.
func (c *Controller) On(ctx context.Context) error {
	if err := c.Rail.Out(gpio.High); err != nil {
		return err
	}
	glog.Info("power rail on")
	if err := c.Clock.Sleep(ctx, c.SettleOn); err != nil {
		glog.Warningf("power settle interrupted: %v", err)
		return err
	}
	c.setPowered(true)
	return nil
}

// Off drives the rail low.
func (c *Controller) Off(ctx context.Context) error {
	c.setPowered(false)
	if err := c.Rail.Out(gpio.Low); err != nil {
		return err
	}
	glog.Info("power rail off")
	return nil
}

// Recover power-cycles the peripherals. It never fails: rail errors are
// logged and the cycle continues. If ctx is done during the hold-off the
// rail stays low.
func (c *Controller) Recover(ctx context.Context) {
	glog.Warning("power-cycling peripherals")
	if err := c.Off(ctx); err != nil {
		glog.Errorf("power off error: %v", err)
	}
	if err := c.Clock.Sleep(ctx, c.HoldOff); err != nil {
		glog.Warningf("recovery interrupted, rail left off: %v", err)
		return
	}
	if err := c.On(ctx); err != nil {
		glog.Errorf("power on error: %v", err)
	}
}

func (c *Controller) setPowered(on bool) {
	c.lock.Lock()
	changed := c.powered != on
	c.powered = on
	c.lock.Unlock()
	if changed && c.Listener != nil {
		c.Listener.PowerChanged(on)
	}
}
