package feed

import "errors"

var (
	// ErrUnknownScheme indicates the feed URL scheme is not supported.
	ErrUnknownScheme = errors.New("unknown feed scheme")
	// ErrBadSnapshot indicates a received snapshot can't be decoded.
	ErrBadSnapshot = errors.New("bad snapshot")
)
