package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatchController(lines []string) (*Controller, *scriptedInput, *recordingWriter) {
	c := newTestController()
	input := &scriptedInput{lines: lines}
	rw := &recordingWriter{}
	c.Primary = input
	c.TextParser = stubTextParser{resp: "; text ok\n"}
	c.JSONParser = stubJSONParser{}
	c.GCodeParser = stubGCodeParser{resp: "ok\n"}
	c.SetResponseWriter(rw.write)
	return c, input, rw
}

func TestDispatchCommandEmptyLineRepliesOkInTextMode(t *testing.T) {
	c, _, rw := newDispatchController([]string{""})

	status := c.dispatchCommand()

	require.Equal(t, StatusOK, status)
	assert.Equal(t, []string{"ok\n"}, rw.writes)
}

func TestDispatchCommandTruncatesOverlongLine(t *testing.T) {
	long := make([]byte, inputLineMax+50)
	for i := range long {
		long[i] = 'a'
	}
	c, _, _ := newDispatchController([]string{string(long)})

	c.dispatchCommand()

	assert.Len(t, c.State.LastLine(), inputLineMax)
}

func TestDispatchCommandFeedholdCharacterReturnsOK(t *testing.T) {
	c, _, _ := newDispatchController([]string{"!"})
	c.Feedhold = recordingFeedhold{}

	status := c.dispatchCommand()

	assert.Equal(t, StatusOK, status)
}

func TestDispatchCommandQueueFlushCharacter(t *testing.T) {
	c, _, _ := newDispatchController([]string{"%"})
	flush := &recordingQueueFlusher{}
	c.QueueFlush = flush

	c.dispatchCommand()

	assert.True(t, flush.called)
}

func TestDispatchCommandCycleStartCharacter(t *testing.T) {
	c, _, _ := newDispatchController([]string{"~"})
	cs := &recordingCycleStarter{}
	c.CycleStart = cs

	c.dispatchCommand()

	assert.True(t, cs.called)
}

func TestDispatchCommandDollarSwitchesToTextModeAndParses(t *testing.T) {
	c, _, rw := newDispatchController([]string{"$H"})

	c.dispatchCommand()

	assert.Equal(t, ModeText, c.State.Mode)
	assert.Equal(t, []string{"; text ok\n"}, rw.writes)
}

func TestDispatchCommandBraceSwitchesToJSONMode(t *testing.T) {
	c, _, _ := newDispatchController([]string{`{"gc":"G1 X1"}`})

	c.dispatchCommand()

	assert.Equal(t, ModeJSON, c.State.Mode)
}

func TestDispatchCommandPlainGCodeWrappedAsJSONWhenInJSONMode(t *testing.T) {
	c, _, _ := newDispatchController([]string{"G1 X1"})
	c.State.Mode = ModeJSON
	jp := &recordingJSONParser{}
	c.JSONParser = jp

	c.dispatchCommand()

	require.Len(t, jp.seen, 1)
	assert.Equal(t, `{"gc":"G1 X1"}`, jp.seen[0])
}

func TestDispatchCommandPlainGCodeGoesToGCodeParserInTextMode(t *testing.T) {
	c, _, rw := newDispatchController([]string{"G1 X1"})

	c.dispatchCommand()

	assert.Equal(t, []string{"ok\n"}, rw.writes)
}

func TestDispatchCommandTransitionsStartupToReady(t *testing.T) {
	c, _, _ := newDispatchController([]string{"G1 X1"})
	require.Equal(t, StateStartup, c.State.Run)

	c.dispatchCommand()

	assert.Equal(t, StateReady, c.State.Run)
}

func TestDispatchCommandEOFResetsSourceAndEmitsNotice(t *testing.T) {
	c := newTestController()
	input := &eofInput{}
	rw := &recordingWriter{}
	c.Primary = input
	c.SetResponseWriter(rw.write)

	status := c.dispatchCommand()

	assert.Equal(t, StatusEOF, status)
	assert.True(t, input.resetCalled)
	require.Len(t, rw.writes, 1)
	assert.Contains(t, rw.writes[0], "EOF")
}

func TestEscapeJSONEscapesQuotesAndBackslashes(t *testing.T) {
	assert.Equal(t, `a\"b\\c`, escapeJSON(`a"b\c`))
}

// --- test doubles ---

type recordingWriter struct{ writes []string }

func (r *recordingWriter) write(s string) { r.writes = append(r.writes, s) }

type recordingFeedhold struct{}

func (recordingFeedhold) FeedholdSequence() Status { return StatusOK }
func (recordingFeedhold) FeedholdPlan() Status      { return StatusOK }

type recordingQueueFlusher struct{ called bool }

func (r *recordingQueueFlusher) FlushQueue() Status { r.called = true; return StatusOK }

type recordingCycleStarter struct{ called bool }

func (r *recordingCycleStarter) CycleStart() Status { r.called = true; return StatusOK }

type recordingJSONParser struct{ seen []string }

func (r *recordingJSONParser) ParseJSON(line string) (string, error) {
	r.seen = append(r.seen, line)
	return "", nil
}

type eofInput struct{ resetCalled bool }

func (e *eofInput) ReadLine() (string, Status) { return "", StatusEOF }
func (e *eofInput) Reset() error               { e.resetCalled = true; return nil }
