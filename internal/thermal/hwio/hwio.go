// Package hwio defines the narrow PWM/ADC surfaces the thermal controller
// drives a heater and reads a thermocouple through, per the external
// interfaces named in the system spec, plus a software reference
// implementation for tests and cmd/nc-bench. Real hardware backends (SPI
// thermocouple amps, PWM-capable GPIO lines) are adapters implementing the
// same two interfaces and are not provided here.
package hwio

import "nccore/pkg/ncerr"

// PWM is the actuation surface for one heater output channel. Frequency is
// clamped to [MinFreq, MaxFreq]; duty is clamped to [0, 100], with 0
// meaning output low and 100 meaning output high.
type PWM interface {
	On(freqHz int, duty float64) error
	Off() error
	SetFreq(freqHz int) error
	SetDuty(duty float64) error
}

// ADC is the sampling surface for one thermocouple channel. Read returns a
// raw reading in the device's native units; callers apply the affine
// calibration (slope, offset) themselves via Convert.
type ADC interface {
	Read(channel int) (raw float64, err error)
}

// Convert applies the affine calibration T = raw*slope + offset named in
// the external interfaces section.
func Convert(raw, slope, offset float64) float64 {
	return raw*slope + offset
}

// SoftPWM is a software reference PWM: it has no real actuation effect but
// tracks the requested frequency/duty and clamps per the external interface
// contract, for use by tests and cmd/nc-bench.
type SoftPWM struct {
	MinFreq, MaxFreq int
	freq             int
	duty             float64
	enabled          bool
}

// NewSoftPWM returns a SoftPWM clamped to [minFreq, maxFreq].
func NewSoftPWM(minFreq, maxFreq int) *SoftPWM {
	return &SoftPWM{MinFreq: minFreq, MaxFreq: maxFreq}
}

func (p *SoftPWM) clampFreq(freqHz int) int {
	if freqHz < p.MinFreq {
		return p.MinFreq
	}
	if freqHz > p.MaxFreq {
		return p.MaxFreq
	}
	return freqHz
}

func clampDuty(duty float64) float64 {
	if duty < 0 {
		return 0
	}
	if duty > 100 {
		return 100
	}
	return duty
}

func (p *SoftPWM) On(freqHz int, duty float64) error {
	p.freq = p.clampFreq(freqHz)
	p.duty = clampDuty(duty)
	p.enabled = true
	return nil
}

func (p *SoftPWM) Off() error {
	p.enabled = false
	p.duty = 0
	return nil
}

func (p *SoftPWM) SetFreq(freqHz int) error {
	p.freq = p.clampFreq(freqHz)
	return nil
}

func (p *SoftPWM) SetDuty(duty float64) error {
	p.duty = clampDuty(duty)
	return nil
}

// Enabled, Freq and Duty let tests observe the last commanded state.
func (p *SoftPWM) Enabled() bool  { return p.enabled }
func (p *SoftPWM) Freq() int      { return p.freq }
func (p *SoftPWM) Duty() float64  { return p.duty }

// SoftADC is a software reference ADC driven by a scripted sequence of raw
// readings, one per Read call; the last value repeats once the sequence is
// exhausted. A zero-value SoftADC reads 0 forever.
type SoftADC struct {
	Samples []float64
	pos     int
	ReadErr error
}

func (a *SoftADC) Read(channel int) (float64, error) {
	if a.ReadErr != nil {
		return 0, ncerr.Wrap(a.ReadErr, ncerr.CodeRuntime, "adc read failed")
	}
	if len(a.Samples) == 0 {
		return 0, nil
	}
	idx := a.pos
	if idx >= len(a.Samples) {
		idx = len(a.Samples) - 1
	} else {
		a.pos++
	}
	return a.Samples[idx], nil
}
