package thermal

import (
	"math"

	"nccore/pkg/integrity"
)

// NewPID constructs a PID in the OFF mode with an empty integral/error
// history. Call On to enable it.
func NewPID(cfg PIDConfig) *PID {
	if cfg.Dt <= 0 {
		cfg.Dt = 0.1 // matches the 100ms heater tick interval
	}
	return &PID{
		Start: integrity.NewStart(),
		cfg:   cfg,
		mode:  PIDOff,
		End:   integrity.NewEnd(),
	}
}

// On enables the PID and resets its history, matching the Reset operation
// invoked on each HEATER_ON transition.
func (p *PID) On() {
	p.mode = PIDOn
	p.Reset()
}

// Off disables the PID; Calculate then always returns 0.
func (p *PID) Off() {
	p.mode = PIDOff
}

// Reset zeroes the integral and previous error.
func (p *PID) Reset() {
	p.integral = 0
	p.prevError = 0
	p.lastOutput = 0
	p.saturated = false
}

// Calculate is the pure PID step: error -> bounded output. Kept free of any
// side effect besides the receiver's own integral/error history, so it is
// independently testable from the heater supervisor that drives it.
func (p *PID) Calculate(setpoint, measured float64) float64 {
	if p.mode == PIDOff {
		return 0
	}

	err := setpoint - measured

	if math.Abs(err) > p.cfg.Epsilon {
		suppress := false
		if p.cfg.StrictAntiWindup && p.saturated {
			// Suppress integration only when the saturated output and the
			// current error point the same direction — continuing to
			// integrate here would just deepen the windup that caused the
			// saturation in the first place.
			atMax := p.lastOutput >= p.cfg.OutputMax-p.cfg.Epsilon
			atMin := p.lastOutput <= p.cfg.OutputMin+p.cfg.Epsilon
			suppress = (atMax && err > 0) || (atMin && err < 0)
		}
		if !suppress {
			p.integral += err * p.cfg.Dt
		}
	}

	derivative := (err - p.prevError) / p.cfg.Dt

	raw := p.cfg.Kp*err + p.cfg.Ki*p.integral + p.cfg.Kd*derivative

	output := raw
	saturated := false
	if output > p.cfg.OutputMax {
		output = p.cfg.OutputMax
		saturated = true
	} else if output < p.cfg.OutputMin {
		output = p.cfg.OutputMin
		saturated = true
	}

	p.prevError = err
	p.lastOutput = output
	p.saturated = saturated

	return output
}

// Mode reports whether the PID is currently enabled.
func (p *PID) Mode() PIDMode { return p.mode }

// LastOutput returns the most recent Calculate result.
func (p *PID) LastOutput() float64 { return p.lastOutput }
