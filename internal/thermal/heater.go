package thermal

import (
	"nccore/pkg/integrity"

	"nccore/internal/thermal/hwio"
)

// Heater ties a Sensor and a PID to one hwio.PWM output. Construct with
// NewHeater, then drive On/Off/Tick from the tick source's 100ms cascade.
type heaterDeps struct {
	sensor *Sensor
	pid    *PID
	pwm    hwio.PWM
	adc    hwio.ADC
	adcCh  int
}

// NewHeater constructs a Heater in the OFF state, wired to the given
// sensor, PID, PWM output, and ADC channel. The four collaborators are
// owned by the caller (normally cmd/nc-control's wiring) and may be the
// hwio software reference implementation in tests.
func NewHeater(cfg HeaterConfig, sensor *Sensor, pid *PID, pwm hwio.PWM, adc hwio.ADC, adcChannel int) *Heater {
	h := &Heater{
		Start: integrity.NewStart(),
		cfg:   cfg,
		state: HeaterOff,
		End:   integrity.NewEnd(),
	}
	h.deps = heaterDeps{sensor: sensor, pid: pid, pwm: pwm, adc: adc, adcCh: adcChannel}
	return h
}

// On starts heating toward setpoint. No-op if already HEATING or AT_TARGET.
// Otherwise: starts the sensor, resets the PID, enables PWM at the
// configured frequency with 0 duty, and clears the regulation timer.
func (h *Heater) On(setpoint float64) {
	if h.state == HeaterHeating || h.state == HeaterAtTarget {
		return
	}
	h.deps.sensor.StartReading()
	h.deps.pid.On()
	h.deps.pwm.On(h.cfg.PWMFreqHz, 0)
	h.setpoint = setpoint
	h.state = HeaterHeating
	h.code = HeaterCodeNone
	h.regulationTimer = 0
}

// Off disables PWM and the sensor and records newState/code. Used for both
// a normal off and a fault shutdown; a fault shutdown (newState ==
// HeaterShutdown) is sticky and only On can clear it.
func (h *Heater) Off(newState HeaterState, code HeaterCode) {
	h.deps.pwm.Off()
	h.deps.sensor.Off()
	h.state = newState
	h.code = code
}

// Tick runs one 100ms step: if OFF or SHUTDOWN, does nothing. Otherwise
// requests a sensor reading (arming it if it is currently idle), and
// returns if a filtered temperature isn't ready yet. Once a temperature is
// available, it is checked against the overheat cutoff first (an explicit
// threshold check layered on top of the hot-sentinel path that a sensor
// shutdown also drives through); otherwise computes duty via PID, applies
// it to PWM, re-arms the sensor for its next accumulation period, then
// advances and checks the supervisory timers while HEATING.
func (h *Heater) Tick(tickIntervalSec float64) {
	if h.state == HeaterOff || h.state == HeaterShutdown {
		return
	}

	if h.deps.sensor.State() == SensorOff {
		h.deps.sensor.StartReading()
	}
	if h.deps.sensor.State() != SensorHasData {
		return
	}

	h.currentTemp = h.deps.sensor.Temperature()

	if h.currentTemp >= h.cfg.OverheatTemp {
		h.Off(HeaterShutdown, HeaterCodeOverheat)
		return
	}

	duty := h.deps.pid.Calculate(h.setpoint, h.currentTemp)
	h.deps.pwm.SetDuty(duty)
	h.deps.sensor.StartReading()

	if h.currentTemp >= h.setpoint && h.state == HeaterHeating {
		h.state = HeaterAtTarget
	} else if h.currentTemp < h.setpoint && h.state == HeaterAtTarget {
		h.state = HeaterHeating
	}

	if h.state != HeaterHeating {
		return
	}

	h.regulationTimer += tickIntervalSec
	switch {
	case h.currentTemp < h.cfg.AmbientTemp && h.regulationTimer > h.cfg.AmbientTimeoutSec:
		h.Off(HeaterShutdown, HeaterCodeAmbientTimedOut)
	case h.currentTemp < h.setpoint && h.regulationTimer > h.cfg.RegulationTimeoutSec:
		h.Off(HeaterShutdown, HeaterCodeRegulationTimedOut)
	}
}

// State, Code, Temperature, and Setpoint are observers.
func (h *Heater) State() HeaterState    { return h.state }
func (h *Heater) Code() HeaterCode      { return h.code }
func (h *Heater) Temperature() float64  { return h.currentTemp }
func (h *Heater) Setpoint() float64     { return h.setpoint }
func (h *Heater) RegulationTimer() float64 { return h.regulationTimer }
