package protocol

import (
	"bytes"
)

// MaxMessageSize bounds a single inbound line. The daemon uses the same limit.
const MaxMessageSize = 64 * 1024

// LineBuffer reassembles newline-delimited frames from arbitrary read chunks.
// The zero value is ready to use.
type LineBuffer struct {
	buf      []byte
	skipping bool
	dropped  int
}

// Write appends a read chunk and returns the complete lines it finished, without
// their terminators. A trailing '\r' is trimmed and blank lines are skipped.
//
// A frame longer than MaxMessageSize is dropped: once the limit is exceeded the
// pending bytes are released and everything up to the next newline is ignored.
func (b *LineBuffer) Write(chunk []byte) [][]byte {
	var lines [][]byte
	for len(chunk) > 0 {
		idx := bytes.IndexByte(chunk, '\n')
		if idx < 0 {
			if b.skipping {
				return lines
			}
			b.buf = append(b.buf, chunk...)
			if len(b.buf) > MaxMessageSize {
				b.buf = nil
				b.skipping = true
				b.dropped++
			}
			return lines
		}

		if b.skipping {
			b.skipping = false
			chunk = chunk[idx+1:]
			continue
		}

		line := chunk[:idx]
		if len(b.buf) > 0 {
			line = append(b.buf, line...)
		}
		chunk = chunk[idx+1:]

		switch {
		case len(line) > MaxMessageSize:
			b.dropped++
		default:
			line = bytes.TrimSuffix(line, []byte{'\r'})
			if len(bytes.TrimSpace(line)) > 0 {
				lines = append(lines, bytes.Clone(line))
			}
		}
		b.buf = b.buf[:0]
	}
	return lines
}

// Buffered returns the number of bytes held for an unfinished line.
func (b *LineBuffer) Buffered() int {
	return len(b.buf)
}

// Dropped returns how many oversized frames were discarded.
func (b *LineBuffer) Dropped() int {
	return b.dropped
}
