package netfile

import (
	"errors"

	"go_netfile/networking"
)

// Kind classifies the outcome of a session operation
type Kind int

const (
	None               Kind = iota // No operation completed yet
	Success                        // Transfer completed
	NoConnection                   // Peer gone or session closed
	NegativeResponse               // Server replied -ERR
	FileStat                       // Could not stat (or represent) the local file
	FileIO                         // Local file or stream I/O failed
	MemoryAllocation               // Buffer size rejected before any I/O
	Timeout                        // Receive deadline expired
	IncompleteTransfer             // Peer closed before the declared size arrived
	Unrecognized                   // Anything else
)

var labels = map[Kind]string{
	None:               "",
	Success:            "DONE",
	NoConnection:       "NO_CONNECTION_ERR",
	NegativeResponse:   "NEGATIVE_RESPONSE_ERR",
	FileStat:           "NO_FILE_STAT_ERR",
	FileIO:             "FILE_IO_ERR",
	MemoryAllocation:   "MEMORY_ERR",
	Timeout:            "TIMEOUT_ERR",
	IncompleteTransfer: "INCOMPLETE_TRANSFER_ERR",
}

// String returns the stable label of k. Unknown kinds share one generic label.
func (k Kind) String() string {
	if label, ok := labels[k]; ok {
		return label
	}
	return "ERROR_NOT_HANDLED"
}

// Error is returned by every failed session operation
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := "netfile: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare kind sentinels below, so errors.Is(err, ErrTimeout) works
// regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNoConnection       = &Error{Kind: NoConnection}
	ErrNegativeResponse   = &Error{Kind: NegativeResponse}
	ErrFileStat           = &Error{Kind: FileStat}
	ErrFileIO             = &Error{Kind: FileIO}
	ErrMemoryAllocation   = &Error{Kind: MemoryAllocation}
	ErrTimeout            = &Error{Kind: Timeout}
	ErrIncompleteTransfer = &Error{Kind: IncompleteTransfer}
)

var (
	ErrNoFile        = errors.New("no file attached to session")
	ErrFileTooLarge  = errors.New("file size exceeds 32-bit header field")
	ErrChunkTooLarge = errors.New("chunk size exceeds limit")
	ErrFileChanged   = errors.New("file shrank during transfer")
)

// KindOf reports the Kind carried by err. nil is Success.
func KindOf(err error) Kind {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, networking.ErrTimeout):
		return Timeout
	case errors.Is(err, networking.ErrConnectionClosed):
		return NoConnection
	case errors.Is(err, networking.ErrBufferSize):
		return MemoryAllocation
	}
	return Unrecognized
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
