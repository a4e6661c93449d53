// Package bus provides the write path to the peripherals on the shared bus.
package bus

// Two devices share the bus: the stepper gauge controller and the LED matrix
// controller. Both are write-only from the host side. A transfer is a single
// write transaction carrying a command byte followed by payload bytes:
//
//   [cmd] [payload ...]
//
// There is no acknowledgement beyond the bus transaction itself, so the only
// failure signal is a transport error, reported as *BusFault. The caller can
// not tell a busy peripheral from a missing one; both are recovered the same
// way (see package fault).
