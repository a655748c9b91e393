package motion

import (
	"strings"
)

// dispatchCommand reads one line from the primary input source and routes
// on its first character. Only ever reached when every higher-priority
// invariant in the fixed handler list is satisfied.
func (c *Controller) dispatchCommand() Status {
	line, status := c.Primary.ReadLine()
	if status == StatusEOF {
		if err := c.Primary.Reset(); err != nil && c.Logger != nil {
			c.Logger.WithError(err).Error("failed to reset primary input source after EOF")
		}
		if c.State.Mode == ModeText {
			c.writeResponse("; EOF on primary input\n")
		} else {
			c.writeResponse(`{"exception":"eof"}` + "\n")
		}
		return status
	}
	if status != StatusOK {
		return status
	}

	if len(line) > inputLineMax {
		line = line[:inputLineMax]
	}
	c.State.lineLen = len(line)
	c.State.lastLine = line

	if line == "" {
		if c.State.Mode == ModeText {
			c.writeResponse("ok\n")
		}
		return StatusOK
	}

	first := line[0]
	switch {
	case first == '!':
		c.Feedhold.FeedholdSequence()
	case first == '%':
		c.QueueFlush.FlushQueue()
	case first == '~':
		c.CycleStart.CycleStart()
	case first == '$' || first == '?' || first == 'H' || first == 'h':
		c.State.Mode = ModeText
		resp, err := c.TextParser.ParseText(line)
		if err != nil {
			c.writeResponse("; error: " + err.Error() + "\n")
		} else {
			c.writeResponse(resp)
		}
	case first == '{':
		c.State.Mode = ModeJSON
		if _, err := c.JSONParser.ParseJSON(line); err != nil && c.Logger != nil {
			c.Logger.WithError(err).Warn("json parse failed")
		}
	default:
		if c.State.Mode == ModeJSON {
			wrapped := `{"gc":"` + escapeJSON(line) + `"}`
			if _, err := c.JSONParser.ParseJSON(wrapped); err != nil && c.Logger != nil {
				c.Logger.WithError(err).Warn("json-wrapped gcode parse failed")
			}
		} else {
			resp, err := c.GCodeParser.ParseGCode(line)
			if err != nil {
				c.writeResponse("; error: " + err.Error() + "\n")
			} else {
				c.writeResponse(resp)
			}
		}
	}

	if c.State.Run == StateStartup {
		c.State.Run = StateReady
	}

	return StatusOK
}

func (c *Controller) writeResponse(s string) {
	if c.respWriter != nil {
		c.respWriter(s)
	}
}

// escapeJSON escapes the minimum needed to embed line as a JSON string
// value: quote and backslash. The line is truncated to inputLineMax before
// wrapping, with no room reserved for `{"gc":""}` or the added escapes, so
// the wrapped string can be longer than inputLineMax.
func escapeJSON(line string) string {
	var sb strings.Builder
	for _, r := range line {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
