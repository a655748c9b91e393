// Package thermal implements the periodic PID loop regulating a heater
// against a thermocouple-derived temperature: sampling with variance-based
// outlier rejection, a pure PID regulator with anti-windup, and a heater
// supervisor enforcing ambient/regulation timeouts and overheat cutoff.
//
// Reshaped around this system's own explicit state enums and integrity
// sentinels rather than a callback-object shape.
package thermal

import "nccore/pkg/integrity"

// HotSentinelTemp is returned by Sensor.Temperature whenever the sensor
// cannot produce a trustworthy reading (SHUTDOWN/OFF state, or exhausted
// variance retries). It is deliberately far above any real disconnect
// threshold so that any downstream consumer treating it as a real
// temperature drives the heater toward shutdown rather than toward more
// heat, named for what it actually does rather than for the misleadingly
// cold name this kind of failure sentinel sometimes gets.
const HotSentinelTemp = 1.0e6

// SensorState enumerates the sensor sampler's lifecycle.
type SensorState int

const (
	SensorOff SensorState = iota
	SensorNoData
	SensorReading
	SensorHasData
	SensorShutdown
)

func (s SensorState) String() string {
	switch s {
	case SensorOff:
		return "OFF"
	case SensorNoData:
		return "NO_DATA"
	case SensorReading:
		return "READING"
	case SensorHasData:
		return "HAS_DATA"
	case SensorShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// SensorCode is the diagnostic subreason for SensorState.
type SensorCode int

const (
	SensorCodeNone SensorCode = iota
	SensorCodeReadingComplete
	SensorCodeReadingFailedBadReadings
	SensorCodeReadingFailedDisconnected
	SensorCodeReadingFailedNoPower
)

func (c SensorCode) String() string {
	switch c {
	case SensorCodeReadingComplete:
		return "READING_COMPLETE"
	case SensorCodeReadingFailedBadReadings:
		return "READING_FAILED_BAD_READINGS"
	case SensorCodeReadingFailedDisconnected:
		return "READING_FAILED_DISCONNECTED"
	case SensorCodeReadingFailedNoPower:
		return "READING_FAILED_NO_POWER"
	default:
		return "NONE"
	}
}

// SensorConfig holds the calibration and threshold values an operator sets
// once at startup (cmd/nc-control reads them from the sensor_* keys of each
// "heater <name>" config section).
type SensorConfig struct {
	SamplesPerReading  int
	VarianceThreshold  float64
	Retries            int
	DisconnectTemp     float64
	NoPowerTemp        float64
	Slope, Offset      float64 // affine ADC-to-temperature calibration
}

// Sensor holds the sampler's live data. Embeds integrity sentinels as
// its first and last fields per the system's memory-integrity invariant.
type Sensor struct {
	Start integrity.Block

	cfg SensorConfig

	state SensorState
	code  SensorCode

	samples      int
	accumulator  float64
	filteredTemp float64
	previousTemp float64

	End integrity.Block
}

// PIDMode is the PID controller's own ON/OFF state.
type PIDMode int

const (
	PIDOff PIDMode = iota
	PIDOn
)

// PIDConfig holds gains and output bounds, plus an anti-windup tunable.
type PIDConfig struct {
	Kp, Ki, Kd         float64
	OutputMin, OutputMax float64
	Epsilon            float64 // |error| threshold below which integration is skipped
	Dt                 float64 // fixed timestep in seconds, matches the heater tick interval

	// StrictAntiWindup additionally suppresses integration when the
	// previous output was saturated in the same direction as the current
	// error, a stricter form than the default epsilon-only skip. Default
	// false: the clean epsilon-only form is used.
	StrictAntiWindup bool
}

// PID holds live controller state between calls to Calculate.
type PID struct {
	Start integrity.Block

	cfg PIDConfig

	mode       PIDMode
	lastOutput float64
	prevError  float64
	integral   float64
	saturated  bool // true if lastOutput was clamped on the previous call

	End integrity.Block
}

// HeaterState is the heater's own linear state machine.
type HeaterState int

const (
	HeaterOff HeaterState = iota
	HeaterHeating
	HeaterAtTarget
	HeaterShutdown
)

func (s HeaterState) String() string {
	switch s {
	case HeaterOff:
		return "OFF"
	case HeaterHeating:
		return "HEATING"
	case HeaterAtTarget:
		return "AT_TARGET"
	case HeaterShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// HeaterCode is the diagnostic subreason for HeaterState.
type HeaterCode int

const (
	HeaterCodeNone HeaterCode = iota
	HeaterCodeAmbientTimedOut
	HeaterCodeRegulationTimedOut
	HeaterCodeSensorFault
	HeaterCodeOverheat
	HeaterCodeExplicitOff
)

func (c HeaterCode) String() string {
	switch c {
	case HeaterCodeAmbientTimedOut:
		return "AMBIENT_TIMED_OUT"
	case HeaterCodeRegulationTimedOut:
		return "REGULATION_TIMED_OUT"
	case HeaterCodeSensorFault:
		return "SENSOR_FAULT"
	case HeaterCodeOverheat:
		return "OVERHEAT"
	case HeaterCodeExplicitOff:
		return "EXPLICIT_OFF"
	default:
		return "NONE"
	}
}

// HeaterConfig holds the thresholds an operator configures once at
// startup: the ambient/regulation supervisory timeouts, the ambient
// temperature floor used by the ambient-timeout check, the overheat
// cutoff, and the PWM frequency the heater is driven at.
type HeaterConfig struct {
	AmbientTimeoutSec    float64
	RegulationTimeoutSec float64
	AmbientTemp          float64
	OverheatTemp         float64
	PWMFreqHz            int
}

// Heater holds live state for one heater/sensor/PID triple.
type Heater struct {
	Start integrity.Block

	cfg  HeaterConfig
	deps heaterDeps

	state HeaterState
	code  HeaterCode

	currentTemp     float64
	setpoint        float64
	regulationTimer float64 // seconds since the HEATING entry

	End integrity.Block
}

// Device holds the thermal mini-HSM's own tick bookkeeping.
type Device struct {
	Start integrity.Block

	PWMFreqHz     int
	TickFlag      bool
	Counter100ms  int
	Counter1Sec   int

	End integrity.Block
}
