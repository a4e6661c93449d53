package bus

import (
	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
)

// Transport sends a single transfer to a peripheral.
// Any transport failure is returned as *BusFault.
type Transport interface {
	Send(addr Address, cmd byte, payload []byte) error
}

// TransportFunc is func form of Transport.
type TransportFunc func(addr Address, cmd byte, payload []byte) error

// Send implements Transport.
func (f TransportFunc) Send(addr Address, cmd byte, payload []byte) error {
	return f(addr, cmd, payload)
}

// I2C implements Transport on a periph.io I2C bus.
type I2C struct {
	Bus i2c.Bus
}

// NewI2C wraps an opened bus.
func NewI2C(b i2c.Bus) *I2C {
	return &I2C{Bus: b}
}

// Send implements Transport.
func (t *I2C) Send(addr Address, cmd byte, payload []byte) error {
	if len(payload) > MaxFrame {
		return &BusFault{Addr: addr, Cmd: cmd, Err: ErrFrameTooLarge}
	}
	pkt := Packet{Addr: addr, Cmd: cmd, Data: payload}
	if glog.V(3) {
		glog.Infof("TX %s", &pkt)
	}
	if err := t.Bus.Tx(uint16(addr), pkt.Bytes(), nil); err != nil {
		return &BusFault{Addr: addr, Cmd: cmd, Err: err}
	}
	return nil
}

// RailGate reports whether the peripherals are powered.
type RailGate interface {
	Powered() bool
}

// Gated skips transfers while the power rail is down.
type Gated struct {
	Transport Transport
	Gate      RailGate
}

// Send implements Transport.
func (t *Gated) Send(addr Address, cmd byte, payload []byte) error {
	if !t.Gate.Powered() {
		return ErrRailDown
	}
	return t.Transport.Send(addr, cmd, payload)
}
