package thermal

import (
	"math"

	"nccore/pkg/integrity"
	"nccore/pkg/ncerr"

	"nccore/internal/thermal/hwio"
)

// NewSensor constructs a Sensor in the OFF state.
func NewSensor(cfg SensorConfig) *Sensor {
	if cfg.SamplesPerReading < 1 {
		cfg.SamplesPerReading = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Sensor{
		Start: integrity.NewStart(),
		cfg:   cfg,
		state: SensorOff,
		End:   integrity.NewEnd(),
	}
}

// StartReading resets the sample counter to 0. Idempotent: calling it again
// before a reading completes just restarts the accumulation.
func (s *Sensor) StartReading() {
	if s.state == SensorShutdown {
		return
	}
	s.samples = 0
	s.accumulator = 0
	s.state = SensorReading
	s.code = SensorCodeNone
}

// Off disables the sensor. Idempotent: off(); off() == off().
func (s *Sensor) Off() {
	s.state = SensorOff
	s.samples = 0
	s.accumulator = 0
}

// Shutdown latches the sensor into SHUTDOWN; only a fresh construction or
// explicit re-init can recover from it, per the heater's sticky-shutdown
// semantics that this state feeds.
func (s *Sensor) Shutdown() {
	s.state = SensorShutdown
}

// State and Code are observers.
func (s *Sensor) State() SensorState { return s.state }
func (s *Sensor) Code() SensorCode   { return s.code }

// Temperature returns the last filtered reading when state is HAS_DATA,
// otherwise the hot sentinel, guaranteeing that any caller treating the
// return value as a real temperature drives its consumer toward shutdown
// rather than toward more heat.
func (s *Sensor) Temperature() float64 {
	if s.state != SensorHasData {
		return HotSentinelTemp
	}
	return s.filteredTemp
}

// Sample runs one tick's worth of the sampling algorithm against adc on the
// given channel: draw, variance-check (with retries), accumulate, and on
// the final sample of the reading, classify into HAS_DATA or NO_DATA.
// Invoked on every 10ms tick.
func (s *Sensor) Sample(adc hwio.ADC, channel int) error {
	if s.state == SensorOff || s.state == SensorShutdown {
		return nil
	}
	if s.code == SensorCodeReadingComplete {
		return nil
	}

	isNewPeriod := s.samples == 0
	if isNewPeriod {
		s.accumulator = 0
	}

	raw, err := adc.Read(channel)
	if err != nil {
		return ncerr.Wrap(err, ncerr.CodeSensorDisconnected, "adc read failed")
	}
	sample := hwio.Convert(raw, s.cfg.Slope, s.cfg.Offset)

	if isNewPeriod {
		s.previousTemp = sample
	} else {
		accepted := false
		for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
			if math.Abs(sample-s.previousTemp) < s.cfg.VarianceThreshold {
				accepted = true
				break
			}
			if attempt == s.cfg.Retries {
				break
			}
			raw, err = adc.Read(channel)
			if err != nil {
				return ncerr.Wrap(err, ncerr.CodeSensorDisconnected, "adc read failed")
			}
			sample = hwio.Convert(raw, s.cfg.Slope, s.cfg.Offset)
		}
		if !accepted {
			s.code = SensorCodeReadingFailedBadReadings
			s.state = SensorNoData
			return nil
		}
	}

	s.previousTemp = sample
	s.accumulator += sample
	s.samples++

	if s.samples >= s.cfg.SamplesPerReading {
		s.filteredTemp = s.accumulator / float64(s.samples)
		switch {
		case s.filteredTemp > s.cfg.DisconnectTemp:
			s.code = SensorCodeReadingFailedDisconnected
			s.state = SensorNoData
		case s.filteredTemp < s.cfg.NoPowerTemp:
			s.code = SensorCodeReadingFailedNoPower
			s.state = SensorNoData
		default:
			s.code = SensorCodeReadingComplete
			s.state = SensorHasData
		}
	}

	return nil
}
