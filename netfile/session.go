package netfile

import (
	"io"
	"io/fs"
	"math"
	"time"

	"github.com/rs/zerolog"

	"go_netfile/constants"
	"go_netfile/networking"
)

// Unset is reported by Size and Timestamp until a header has been received.
const Unset uint32 = math.MaxUint32

// File is the storage side of a session. Transmit reads and stats it,
// Receive writes to it. *os.File satisfies it.
type File interface {
	io.ReaderAt
	io.Writer
	Stat() (fs.FileInfo, error)
}

// Session binds one connection to the state of its file transfers.
// It is not safe for concurrent use.
type Session struct {
	conn      networking.Stream
	file      File
	deadline  time.Duration
	size      uint32
	timestamp uint32
	hasHeader bool
	moved     int64
	status    Kind
	err       error
	logger    zerolog.Logger
}

// NewSession creates a session on an established connection. file may be nil
// and attached later with SetFile.
func NewSession(conn networking.Stream, file File) *Session {
	return &Session{
		conn:      conn,
		file:      file,
		size:      Unset,
		timestamp: Unset,
		logger:    zerolog.Nop(),
	}
}

// WithLogger attaches a logger used for per-chunk trace output
func (s *Session) WithLogger(logger zerolog.Logger) *Session {
	s.logger = logger
	return s
}

// SetFile replaces the file used by the next Transmit or Receive
func (s *Session) SetFile(file File) {
	s.file = file
}

// Conn returns the connection the session runs on
func (s *Session) Conn() networking.Stream {
	return s.conn
}

// EnableTimer bounds every receive by d. Non-positive values are ignored.
func (s *Session) EnableTimer(d time.Duration) {
	if d > 0 {
		s.deadline = d
	}
}

// DisableTimer makes receives block indefinitely
func (s *Session) DisableTimer() {
	s.deadline = 0
}

// Deadline returns the receive deadline, 0 when disabled
func (s *Session) Deadline() time.Duration {
	return s.deadline
}

// Size returns the declared size of the last received file, or Unset
func (s *Session) Size() uint32 {
	return s.size
}

// Timestamp returns the declared modification time of the last received file, or Unset
func (s *Session) Timestamp() uint32 {
	return s.timestamp
}

// HasHeader reports whether Size and Timestamp hold a received header
func (s *Session) HasHeader() bool {
	return s.hasHeader
}

// Transferred returns the content bytes moved by the most recent Transmit or
// Receive, including a partial count when it failed.
func (s *Session) Transferred() int64 {
	return s.moved
}

// ModTime returns Timestamp as a time. Only the low 32 bits of the sender's
// Unix seconds survive the wire, so dates after 2106 wrap.
func (s *Session) ModTime() time.Time {
	return time.Unix(int64(s.timestamp), 0)
}

// SetStatus records an outcome determined by the caller, e.g. a negative reply.
func (s *Session) SetStatus(kind Kind) {
	s.status = kind
	if kind == Success || kind == None {
		s.err = nil
		return
	}
	s.err = &Error{Kind: kind}
}

// Status returns the outcome of the most recent operation
func (s *Session) Status() Kind {
	return s.status
}

// StatusText returns the label of Status
func (s *Session) StatusText() string {
	return s.status.String()
}

// Err returns the error of the most recent operation, nil after a success
func (s *Session) Err() error {
	return s.err
}

// Close detaches the connection and file. Both stay owned by the caller;
// later operations fail with NoConnection.
func (s *Session) Close() {
	s.conn = nil
	s.file = nil
}

func (s *Session) succeed() error {
	s.status = Success
	s.err = nil
	return nil
}

func (s *Session) fail(op string, kind Kind, cause error) error {
	err := newError(op, kind, cause)
	s.status = kind
	s.err = err
	return err
}

// allocChunk returns a scratch buffer for one bulk transfer call.
func allocChunk(chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = constants.DEFAULT_CHUNK_SIZE
	}
	if chunkSize > constants.MAX_CHUNK_SIZE {
		return nil, ErrChunkTooLarge
	}
	return make([]byte, chunkSize), nil
}
