package bus

import (
	"errors"
	"fmt"
)

var (
	// ErrRailDown indicates the peripherals are unpowered and the transfer
	// was skipped without touching the bus.
	ErrRailDown = errors.New("power rail down")
	// ErrFrameTooLarge indicates the payload doesn't fit a single transfer.
	ErrFrameTooLarge = errors.New("frame too large")
)

// BusFault wraps a failed transfer.
type BusFault struct {
	Addr Address
	Cmd  byte
	Err  error
}

// Error implements error.
func (e *BusFault) Error() string {
	return fmt.Sprintf("bus fault %s cmd 0x%02x: %v", e.Addr, e.Cmd, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *BusFault) Unwrap() error {
	return e.Err
}

// IsFault checks if err is (or wraps) a *BusFault.
func IsFault(err error) bool {
	var fault *BusFault
	return errors.As(err, &fault)
}
