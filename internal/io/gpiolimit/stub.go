//go:build !linux

package gpiolimit

import "errors"

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(pin int) (*RealReader, error) {
	return nil, errors.New("gpiolimit: not supported on this platform (requires Linux)")
}

func (r *RealReader) Triggered() bool { return false }

func (r *RealReader) Close() error { return nil }
