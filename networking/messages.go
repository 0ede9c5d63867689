package networking

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"

	"go_netfile/constants"
	"go_netfile/networking/verb"
)

var (
	ErrShortWrite      = errors.New("networking: short write")
	ErrMessageTooLong  = errors.New("networking: control line exceeds limit")
	ErrInvalidFilename = errors.New("networking: invalid file name")
	ErrUnknownCommand  = errors.New("networking: unknown command")
	ErrInvalidHeader   = errors.New("networking: file header must be 8 bytes")
)

// MaxMessageLen is the longest control line (terminator included) a default Inbox accepts whole.
const MaxMessageLen = constants.DEFAULT_INBOX_SIZE - 1

// FileHeaderLen is the size of the binary header preceding file contents.
const FileHeaderLen = 8

// FileHeader contains the declared size and modification time of the file that follows
type FileHeader struct {
	Size      uint32
	Timestamp uint32 // Unix seconds, low 32 bits
	// Followed by Size * bytes of content.
}

// Request is a decoded client control line
type Request struct {
	Verb string
	Name string
}

// SendMessage writes text as one CRLF-terminated control line.
func SendMessage(w io.Writer, text string) error {
	return writeLine(w, text+verb.CRLF)
}

// SendRequest writes a GET request line for filename.
func SendRequest(w io.Writer, filename string) error {
	if filename == "" || strings.ContainsAny(filename, "\r\n") {
		return ErrInvalidFilename
	}
	return writeLine(w, verb.GET+" "+filename+verb.CRLF)
}

// ParseRequest decodes a control line received by the server
func ParseRequest(line string) (Request, error) {
	switch {
	case line == verb.QUIT:
		return Request{Verb: verb.QUIT}, nil
	case strings.HasPrefix(line, verb.GET+" "):
		name := strings.TrimSpace(line[len(verb.GET)+1:])
		if name == "" {
			return Request{}, ErrInvalidFilename
		}
		return Request{Verb: verb.GET, Name: name}, nil
	}
	return Request{}, ErrUnknownCommand
}

// EncodeFileHeader encodes header as two big-endian uint32 fields
func EncodeFileHeader(header FileHeader) []byte {
	buffer := bytes.NewBuffer(make([]byte, 0, FileHeaderLen))
	binary.Write(buffer, binary.BigEndian, header)
	return buffer.Bytes()
}

// DecodeFileHeader decodes 8 bytes as FileHeader
func DecodeFileHeader(message []byte) (FileHeader, error) {
	var header FileHeader
	if len(message) != FileHeaderLen {
		return header, ErrInvalidHeader
	}
	err := binary.Read(bytes.NewReader(message), binary.BigEndian, &header)
	return header, err
}

func writeLine(w io.Writer, line string) error {
	if len(line) > MaxMessageLen {
		return ErrMessageTooLong
	}
	n, err := io.WriteString(w, line)
	if err != nil {
		return err
	}
	if n != len(line) {
		return ErrShortWrite
	}
	return nil
}
