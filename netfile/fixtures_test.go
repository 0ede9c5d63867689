package netfile

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"time"
)

// memFile is an in-memory File.
type memFile struct {
	data       []byte
	modTime    time.Time
	statErr    error
	writeLimit int // accept at most this many bytes per Write when > 0
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	if m.writeLimit > 0 && len(p) > m.writeLimit {
		m.data = append(m.data, p[:m.writeLimit]...)
		return m.writeLimit, nil
	}
	m.data = append(m.data, p...)
	return len(p), nil
}

func (m *memFile) Stat() (fs.FileInfo, error) {
	if m.statErr != nil {
		return nil, m.statErr
	}
	return memInfo{size: int64(len(m.data)), modTime: m.modTime}, nil
}

type memInfo struct {
	size    int64
	modTime time.Time
}

func (i memInfo) Name() string       { return "mem" }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return 0o644 }
func (i memInfo) ModTime() time.Time { return i.modTime }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }

// hugeFile stats as larger than the header can carry.
type hugeFile struct{ memFile }

func (h *hugeFile) Stat() (fs.FileInfo, error) {
	return memInfo{size: 1 << 33}, nil
}

// recordingStream keeps what was written and replays reads from in,
// noting the size of every write and every read request.
type recordingStream struct {
	in       bytes.Buffer
	out      bytes.Buffer
	writes   []int
	reads    []int
	writeErr error
}

func (r *recordingStream) Read(p []byte) (int, error) {
	r.reads = append(r.reads, len(p))
	return r.in.Read(p)
}

func (r *recordingStream) Write(p []byte) (int, error) {
	if r.writeErr != nil {
		return 0, r.writeErr
	}
	r.writes = append(r.writes, len(p))
	return r.out.Write(p)
}

func (r *recordingStream) SetReadDeadline(time.Time) error { return nil }

var errBrokenPipe = errors.New("broken pipe")
