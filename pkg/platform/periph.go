// Package platform opens the meter hardware through periph.io.
package platform

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ErrPinNotFound indicates the power pin is not registered.
var ErrPinNotFound = errors.New("pin not found")

// Hardware is the shared bus and the peripheral power rail.
type Hardware struct {
	Bus  i2c.BusCloser
	Rail gpio.PinOut
}

// Open initializes host drivers and looks up the hardware. An empty bus
// name opens the first available bus.
func Open(busName, pinName string) (*Hardware, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("host init: %v", err)
	}
	for _, failure := range state.Failed {
		glog.V(1).Infof("periph driver %s", failure)
	}
	return Lookup(busName, pinName)
}

// Lookup finds already registered hardware.
func Lookup(busName, pinName string) (*Hardware, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("%w: %q", ErrPinNotFound, pinName)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %v", busName, err)
	}
	glog.Infof("hardware: bus %s, power pin %s", bus, pin)
	return &Hardware{Bus: bus, Rail: pin}, nil
}

// Close releases the bus.
func (h *Hardware) Close() error {
	return h.Bus.Close()
}
