package sse

import (
	"bytes"
	"errors"
	"strings"
)

// MaxBufferSize caps the framer's internal buffer. A stream whose pending
// unterminated data would exceed this limit is aborted with ErrBufferLimit.
const MaxBufferSize = 10 * 1024 * 1024

// ErrBufferLimit is returned when a stream exceeds MaxBufferSize without
// producing a line terminator.
var ErrBufferLimit = errors.New("sse: response too large, exceeded buffer limit")

const dataPrefix = "data: "

// Framer incrementally splits a byte stream into SSE data payloads. Chunks
// are appended to an internal buffer which is drained line by line; complete
// lines are trimmed of a trailing \r and reduced to the portion following the
// "data: " prefix. Comment, event and blank lines are discarded.
type Framer struct {
	buf []byte
	max int
}

// NewFramer constructs a framer with the given buffer cap; max <= 0 uses
// MaxBufferSize.
func NewFramer(max int) *Framer {
	if max <= 0 {
		max = MaxBufferSize
	}
	return &Framer{max: max}
}

// Push appends a received chunk and returns the data payloads of every line
// completed by it, in wire order. It fails with ErrBufferLimit when buffered
// bytes plus the chunk would exceed the cap.
func (f *Framer) Push(chunk []byte) ([]string, error) {
	if len(f.buf)+len(chunk) > f.max {
		return nil, ErrBufferLimit
	}
	f.buf = append(f.buf, chunk...)

	var payloads []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			return payloads, nil
		}
		line := strings.TrimSuffix(string(f.buf[:i]), "\r")
		f.buf = f.buf[i+1:]
		if line == "" {
			continue
		}
		if data, ok := strings.CutPrefix(line, dataPrefix); ok {
			payloads = append(payloads, data)
		}
	}
}
