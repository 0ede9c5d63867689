package networking

import (
	"errors"
	"io"
	"net"
	"os"
	"time"
)

var (
	ErrTimeout          = errors.New("networking: receive deadline expired")
	ErrConnectionClosed = errors.New("networking: connection closed by peer")
)

// Stream is the established byte-stream connection. net.Conn satisfies it.
type Stream interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
}

// ReadMode selects how a single Read consumes the stream
type ReadMode int

const (
	ModeRaw  ReadMode = iota // Whatever one underlying read returns
	ModeLine                 // Byte by byte, up to and including '\n'
)

// Read is the only place a receive may block. A zero deadline blocks until the peer
// sends something or goes away; a positive one fails with ErrTimeout once it expires.
func Read(stream Stream, buf []byte, mode ReadMode, deadline time.Duration) (int, error) {
	if deadline > 0 {
		if err := stream.SetReadDeadline(time.Now().Add(deadline)); err != nil {
			return 0, err
		}
		// Clear the deadline so the next caller starts from a blocking stream.
		defer stream.SetReadDeadline(time.Time{})
	}

	var n int
	var err error
	switch mode {
	case ModeLine:
		n, err = readLine(stream, buf)
	default:
		n, err = stream.Read(buf)
	}

	if err != nil && isTimeout(err) {
		return n, ErrTimeout
	}
	return n, err
}

// ReadFull fills buf completely, applying deadline to every wait. A peer that closes
// before the first byte yields ErrConnectionClosed, one that closes midway io.ErrUnexpectedEOF.
func ReadFull(stream Stream, buf []byte, deadline time.Duration) (int, error) {
	got := 0
	for got < len(buf) {
		n, err := Read(stream, buf[got:], ModeRaw, deadline)
		got += n
		if got == len(buf) {
			break
		}
		if err == nil && n > 0 {
			continue
		}
		if err == nil || errors.Is(err, io.EOF) {
			if got == 0 {
				return 0, ErrConnectionClosed
			}
			return got, io.ErrUnexpectedEOF
		}
		return got, err
	}
	return got, nil
}

// readLine reads one byte at a time so nothing past the line terminator is consumed.
// It stops when buf is full, which callers treat as truncation.
func readLine(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		c, err := r.Read(buf[n : n+1])
		if c == 1 {
			n++
			if buf[n-1] == '\n' {
				return n, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				// Unterminated last line.
				return n, nil
			}
			return n, err
		}
		if c == 0 {
			// Reader made no progress; report what we have.
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
	}
	return n, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
