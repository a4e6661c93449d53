package gauge

import "errors"

var (
	// ErrInvalidPosition indicates the position isn't 1-4 decimal digits.
	ErrInvalidPosition = errors.New("invalid position")
)
