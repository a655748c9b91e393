package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBootStateIsStartupWithValidSentinels checks that a freshly
// constructed controller starts in STARTUP with valid integrity
// sentinels, and the first integrity-monitor pass returns OK.
func TestBootStateIsStartupWithValidSentinels(t *testing.T) {
	c := newTestController()

	assert.Equal(t, StateStartup, c.State.Run)
	assert.Equal(t, StatusOK, handleIntegrityMonitor(c))
}

// TestTextModeGCodeLeavesStateUnchanged checks that a G-code line in TEXT
// mode is routed to the G-code parser, a text response is emitted, and run
// state only ever moves STARTUP -> READY (no further state change).
func TestTextModeGCodeLeavesStateUnchanged(t *testing.T) {
	c, _, rw := newDispatchController([]string{"G1 X10"})

	c.dispatchCommand()

	assert.Equal(t, ModeText, c.State.Mode)
	assert.Equal(t, StateReady, c.State.Run)
	assert.Equal(t, []string{"ok\n"}, rw.writes)

	// A second line must not flip the run state again.
	c.Primary = &scriptedInput{lines: []string{"G1 Y10"}}
	c.dispatchCommand()
	assert.Equal(t, StateReady, c.State.Run)
}

// TestJSONModeStaysJSONAcrossCommands checks that a JSON-wrapped G-code
// line switches into JSON mode and stays there for the next command.
func TestJSONModeStaysJSONAcrossCommands(t *testing.T) {
	c, input, _ := newDispatchController([]string{`{"gc":"G1 X10"}`})
	jp := &recordingJSONParser{}
	c.JSONParser = jp

	c.dispatchCommand()
	require.Equal(t, ModeJSON, c.State.Mode)

	input.lines = []string{"G1 Y10"}
	input.pos = 0
	c.dispatchCommand()

	assert.Equal(t, ModeJSON, c.State.Mode)
	require.Len(t, jp.seen, 2)
	assert.Equal(t, `{"gc":"G1 Y10"}`, jp.seen[1])
}

// TestLimitSwitchAlarmBlocksCommandDispatchAcrossCycles checks that a
// limit switch trip latches ALARM, and every subsequent cycle the
// shutdown idler (which also covers ALARM, not only the terminal SHUTDOWN)
// blinks the LED and EAGAINs before the command dispatcher ever runs.
func TestLimitSwitchAlarmBlocksCommandDispatchAcrossCycles(t *testing.T) {
	c := newTestController()
	limit := &toggleLimitSwitch{}
	c.LimitSwitch = limit
	c.Primary = &scriptedInput{lines: []string{"G1 X10"}}

	limit.triggered = true
	status := c.RunOnce()
	require.Equal(t, StatusEAGAIN, status)
	require.Equal(t, StateAlarm, c.State.Run)
	require.Equal(t, "", c.State.LastLine())

	ledBefore := c.State.LEDCounter
	status = c.RunOnce()
	assert.Equal(t, StatusEAGAIN, status)
	assert.Equal(t, StateAlarm, c.State.Run)
	assert.Equal(t, "", c.State.LastLine())
	assert.Greater(t, c.State.LEDCounter, ledBefore)

	ledBefore = c.State.LEDCounter
	status = c.RunOnce()
	assert.Equal(t, StatusEAGAIN, status)
	assert.Equal(t, StateAlarm, c.State.Run)
	assert.Greater(t, c.State.LEDCounter, ledBefore)
}

type toggleLimitSwitch struct{ triggered bool }

func (t *toggleLimitSwitch) Triggered() bool { return t.triggered }
