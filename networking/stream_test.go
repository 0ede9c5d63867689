package networking

import (
	"bytes"
	"time"
)

// bufferStream is an in-memory Stream; deadlines are recorded but never fire.
type bufferStream struct {
	bytes.Buffer
	deadlines []time.Time
}

func (b *bufferStream) SetReadDeadline(t time.Time) error {
	b.deadlines = append(b.deadlines, t)
	return nil
}

func newBufferStream(s string) *bufferStream {
	b := new(bufferStream)
	b.WriteString(s)
	return b
}

// shortWriter accepts at most limit bytes per write without reporting an error.
type shortWriter struct {
	limit int
}

func (s shortWriter) Write(p []byte) (int, error) {
	if len(p) > s.limit {
		return s.limit, nil
	}
	return len(p), nil
}
