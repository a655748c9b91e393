// Package motion implements the HSM dispatcher and command dispatcher that
// drive a CNC motion pipeline: a fixed priority-ordered list of handlers
// cooperatively scheduled over a single main loop, with the command
// dispatcher as one of those handlers.
//
// The state machine shape and the alarm/shutdown latch/disabler ordering
// follow the usual printer-firmware pattern, reshaped around this
// system's own explicit STARTUP/READY/ALARM/SHUTDOWN states and fixed
// 19-item priority list rather than goroutine-based coordination.
package motion

import "nccore/pkg/integrity"

// RunState is the motion controller's observed state machine:
// STARTUP -> READY on first successful command; any -> ALARM on
// limit-switch or assertion failure; ALARM -> SHUTDOWN on a subsequent
// fault; SHUTDOWN is terminal until reset.
type RunState int

const (
	StateStartup RunState = iota
	StateReady
	StateAlarm
	StateShutdown
)

func (s RunState) String() string {
	switch s {
	case StateStartup:
		return "STARTUP"
	case StateReady:
		return "READY"
	case StateAlarm:
		return "ALARM"
	case StateShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// CommMode is the command dispatcher's sticky response mode.
type CommMode int

const (
	ModeText CommMode = iota
	ModeJSON
)

// AlarmCode names the reason the controller entered ALARM/SHUTDOWN.
type AlarmCode int

const (
	AlarmNone AlarmCode = iota
	AlarmLimitSwitchHit
	AlarmIntegrityFailure
	AlarmAssertionFailure
)

func (c AlarmCode) String() string {
	switch c {
	case AlarmLimitSwitchHit:
		return "LIMIT_SWITCH_HIT"
	case AlarmIntegrityFailure:
		return "INTEGRITY_FAILURE"
	case AlarmAssertionFailure:
		return "ASSERTION_FAILURE"
	default:
		return "NONE"
	}
}

// inputLineMax bounds the command dispatcher's line buffer: longer lines are
// truncated to this length before dispatch. The JSON-wrapped form of a
// G-code line is built as a separate string and is not bounded by it.
const inputLineMax = 256

// State is the process-wide motion controller state block. Embeds
// integrity sentinels as its first and last fields.
type State struct {
	Start integrity.Block

	FirmwareVersion string
	HardwarePlatform string

	Run RunState

	PrimaryInputID   int
	SecondaryInputID int
	DefaultInputID   int

	lineBuf    [inputLineMax]byte
	lineLen    int
	lastLine   string

	HardResetRequested  bool
	BootloaderRequested bool

	LEDCounter int

	Mode      CommMode
	AlarmCode AlarmCode

	End integrity.Block
}

// NewState returns a zero-initialized State with startup defaults
// applied.
func NewState(firmwareVersion, hardwarePlatform string) *State {
	return &State{
		Start:            integrity.NewStart(),
		FirmwareVersion:  firmwareVersion,
		HardwarePlatform: hardwarePlatform,
		Run:              StateStartup,
		Mode:             ModeText,
		End:              integrity.NewEnd(),
	}
}

// LastLine returns the saved copy of the most recently dispatched line,
// for status reporting.
func (s *State) LastLine() string { return s.lastLine }
