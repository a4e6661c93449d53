package bus

import (
	"fmt"
	"io"
	"time"
)

// Address is the 7-bit address of a peripheral on the bus.
type Address uint16

// Peripheral addresses.
const (
	StepperAddr Address = 0x08
	MatrixAddr  Address = 0x06
)

// MaxFrame is the largest number of bytes following the command byte
// accepted in a single transfer.
const MaxFrame = 32

// String implements fmt.Stringer.
func (a Address) String() string {
	switch a {
	case StepperAddr:
		return "stepper(0x08)"
	case MatrixAddr:
		return "matrix(0x06)"
	}
	return fmt.Sprintf("0x%02x", uint16(a))
}

// Packet contains the information of a single transfer.
type Packet struct {
	Addr Address
	Cmd  byte
	Data []byte
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	b := make([]byte, len(p.Data)+1)
	b[0] = p.Cmd
	copy(b[1:], p.Data)
	return b
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (p *Packet) String() string {
	return fmt.Sprintf("%s <- % x", p.Addr, p.Bytes())
}

// WriteTimer records the last successful write on a channel.
type WriteTimer struct {
	LastWrite time.Time
}

// Allow reports whether a write at now is permitted given the minimum
// interval. A non-positive interval always allows.
func (t WriteTimer) Allow(now time.Time, minInterval time.Duration) bool {
	if minInterval <= 0 {
		return true
	}
	return now.Sub(t.LastWrite) > minInterval
}

// Elapsed returns the time since the last write.
func (t WriteTimer) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.LastWrite)
}
