package networking

import (
	"errors"
	"io"
	"strings"
	"time"

	"go_netfile/constants"
)

var ErrBufferSize = errors.New("networking: invalid buffer size")

// Inbox is a fixed-size buffer reused for every control line of a session.
// It is not safe for concurrent use.
type Inbox struct {
	msg      []byte
	deadline time.Duration
}

// NewInbox allocates an inbox holding lines of up to capacity-1 bytes.
// Zero selects the default capacity.
func NewInbox(capacity int) (*Inbox, error) {
	if capacity == 0 {
		capacity = constants.DEFAULT_INBOX_SIZE
	}
	if capacity < 2 || capacity > constants.MAX_INBOX_SIZE {
		return nil, ErrBufferSize
	}
	return &Inbox{msg: make([]byte, capacity)}, nil
}

// Capacity returns the size the inbox was created with
func (i *Inbox) Capacity() int {
	return len(i.msg)
}

// EnableTimer bounds each ReceiveMessage by d. Non-positive values are ignored.
func (i *Inbox) EnableTimer(d time.Duration) {
	if d > 0 {
		i.deadline = d
	}
}

// DisableTimer makes ReceiveMessage block indefinitely
func (i *Inbox) DisableTimer() {
	i.deadline = 0
}

// Deadline returns the current receive deadline, 0 when disabled
func (i *Inbox) Deadline() time.Duration {
	return i.deadline
}

// ReceiveMessage reads one control line into inbox and returns it without its terminator.
// A line longer than Capacity()-1 bytes is truncated; the rest stays on the stream.
func ReceiveMessage(stream Stream, inbox *Inbox) (string, error) {
	// Last slot is reserved for the terminator.
	limit := len(inbox.msg) - 1
	n, err := Read(stream, inbox.msg[:limit], ModeLine, inbox.deadline)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return "", ErrConnectionClosed
		}
		return "", err
	}
	if n == 0 {
		return "", ErrConnectionClosed
	}
	inbox.msg[n] = 0

	line := string(inbox.msg[:n])
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
