//go:build linux

package gpiolimit

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads a single limit switch line from a Linux GPIO character
// device. The switch is normally-closed wired through an optocoupler, so
// the raw line reads inverted: raw active (1) means the switch is open,
// i.e. not tripped.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealReader opens gpiochip0 and requests pin as an input with a
// pull-down, matching Raspberry Pi boot defaults.
func NewRealReader(pin int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("gpiolimit: open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("gpiolimit: request pin %d: %w", pin, err)
	}

	return &RealReader{chip: chip, line: line}, nil
}

// Triggered reports whether the limit switch is currently tripped. Returns
// false (not tripped) if the line read fails, on the theory that a wiring
// fault should surface as a missed trip rather than a spurious alarm; the
// dispatcher's integrity monitor covers the rest of the hardware-fault
// surface.
func (r *RealReader) Triggered() bool {
	raw, err := r.line.Value()
	if err != nil {
		return false
	}
	return raw == 0
}

// Close reconfigures the pin to input/pull-down and releases it.
func (r *RealReader) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("gpiolimit: close errors: %v", errs)
	}
	return nil
}
