package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() *Controller {
	state := NewState("test-fw", "test-hw")
	return New(state, nil)
}

func TestRunOnceSkipsRemainingHandlersOnEAGAIN(t *testing.T) {
	c := newTestController()
	c.State.Run = StateShutdown

	// handleShutdownIdler (priority 3) returns EAGAIN whenever RunState is
	// SHUTDOWN; the LED counter it increments must advance exactly once
	// per RunOnce call, and nothing past it (e.g. the normal idler at
	// priority 19) should run.
	before := c.State.LEDCounter
	status := c.RunOnce()

	assert.Equal(t, StatusEAGAIN, status)
	assert.Equal(t, before+1, c.State.LEDCounter)
}

func TestRunOnceReachesCommandDispatchWhenNothingPreempts(t *testing.T) {
	c := newTestController()
	c.TextParser = stubTextParser{resp: "ok\n"}
	c.JSONParser = stubJSONParser{}
	c.GCodeParser = stubGCodeParser{resp: "ok\n"}
	c.Primary = &scriptedInput{lines: []string{"G1 X1"}}

	status := c.RunOnce()

	// Nothing short-circuits, so RunOnce returns the last handler's status:
	// the normal idler (priority 19) runs after the command dispatcher and
	// returns NOOP.
	require.Equal(t, StatusNOOP, status)
	assert.Equal(t, StateReady, c.State.Run)
	assert.Equal(t, "G1 X1", c.State.LastLine())
}

func TestRunOnceLimitSwitchRaisesAlarmAndShortCircuits(t *testing.T) {
	c := newTestController()
	c.LimitSwitch = fakeLimitSwitch{triggered: true}
	c.Primary = &scriptedInput{lines: []string{"G1 X1"}}

	status := c.RunOnce()

	assert.Equal(t, StatusEAGAIN, status)
	assert.Equal(t, StateAlarm, c.State.Run)
	assert.Equal(t, AlarmLimitSwitchHit, c.State.AlarmCode)
	// The command dispatcher, lower priority than the limit-switch check,
	// must not have run.
	assert.Equal(t, "", c.State.LastLine())
}

func TestRunOnceSecondLimitSwitchHitWhileAlarmedStaysLatched(t *testing.T) {
	c := newTestController()
	c.LimitSwitch = fakeLimitSwitch{triggered: true}
	c.State.Run = StateAlarm

	status := c.RunOnce()

	// handleShutdownIdler (priority 3) already EAGAINs while ALARM, so the
	// cycle short-circuits before handleLimitSwitch's already-alarmed NOOP
	// branch is ever reached; the state stays latched at ALARM.
	assert.Equal(t, StatusEAGAIN, status)
	assert.Equal(t, StateAlarm, c.State.Run)
}

func TestBuildPriorityListHasNineteenHandlers(t *testing.T) {
	assert.Len(t, buildPriorityList(), 19)
}

// --- test doubles ---

type scriptedInput struct {
	lines []string
	pos   int
}

func (s *scriptedInput) ReadLine() (string, Status) {
	if s.pos >= len(s.lines) {
		return "", StatusEAGAIN
	}
	line := s.lines[s.pos]
	s.pos++
	return line, StatusOK
}

func (s *scriptedInput) Reset() error { s.pos = 0; return nil }

type stubTextParser struct{ resp string }

func (s stubTextParser) ParseText(line string) (string, error) { return s.resp, nil }

type stubJSONParser struct{}

func (stubJSONParser) ParseJSON(line string) (string, error) { return "", nil }

type stubGCodeParser struct{ resp string }

func (s stubGCodeParser) ParseGCode(line string) (string, error) { return s.resp, nil }

type fakeLimitSwitch struct{ triggered bool }

func (f fakeLimitSwitch) Triggered() bool { return f.triggered }
