package executor

import "bytes"

const stderrTruncatedMarker = "\n[stderr truncated]"

// cappedBuffer keeps at most limit bytes. Writes never fail so the child's
// pipe keeps draining; onExceed fires once when the limit is crossed.
type cappedBuffer struct {
	buf      bytes.Buffer
	limit    int
	exceeded bool
	onExceed func()
}

func newCappedBuffer(limit int, onExceed func()) *cappedBuffer {
	return &cappedBuffer{limit: limit, onExceed: onExceed}
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if c.exceeded {
		return len(p), nil
	}

	if remaining := c.limit - c.buf.Len(); len(p) > remaining {
		c.buf.Write(p[:remaining])
		c.exceeded = true
		if c.onExceed != nil {
			c.onExceed()
		}
		return len(p), nil
	}

	return c.buf.Write(p)
}

func (c *cappedBuffer) String() string {
	return c.buf.String()
}

// stderrText returns the captured stderr, marked when it was cut short.
func (c *cappedBuffer) stderrText() string {
	if c.exceeded {
		return c.buf.String() + stderrTruncatedMarker
	}
	return c.buf.String()
}
