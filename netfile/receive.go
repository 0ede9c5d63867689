package netfile

import (
	"errors"
	"io"

	"go_netfile/networking"
)

// Receive reads the binary header into the session and then writes exactly the
// declared number of content bytes to the attached file, reading at most chunkSize
// bytes per step. Zero selects the default. Every wait is bounded by the session deadline.
func (s *Session) Receive(chunkSize int) error {
	const op = "receive"
	s.moved = 0

	if s.conn == nil {
		return s.fail(op, NoConnection, nil)
	}
	if s.file == nil {
		return s.fail(op, FileIO, ErrNoFile)
	}
	buf, err := allocChunk(chunkSize)
	if err != nil {
		return s.fail(op, MemoryAllocation, err)
	}

	// Size and timestamp arrive as two separate 4-byte fields.
	var raw [networking.FileHeaderLen]byte
	if _, err := networking.ReadFull(s.conn, raw[:4], s.deadline); err != nil {
		return s.fail(op, headerKind(err), err)
	}
	if _, err := networking.ReadFull(s.conn, raw[4:], s.deadline); err != nil {
		return s.fail(op, headerKind(err), err)
	}
	header, err := networking.DecodeFileHeader(raw[:])
	if err != nil {
		return s.fail(op, FileIO, err)
	}
	s.size, s.timestamp, s.hasHeader = header.Size, header.Timestamp, true

	s.logger.Debug().Uint32("size", header.Size).Uint32("timestamp", header.Timestamp).Msg("header received")

	remaining := int64(header.Size)

	for remaining > 0 {
		// Never read past the declared size; the next control line follows it.
		want := min(int64(len(buf)), remaining)
		got, err := networking.Read(s.conn, buf[:want], networking.ModeRaw, s.deadline)

		if got > 0 {
			written, werr := s.file.Write(buf[:got])
			if werr != nil || written != got {
				return s.fail(op, FileIO, writeErr(werr))
			}
			remaining -= int64(written)
			s.moved += int64(written)
			s.logger.Trace().Int("received", written).Int64("remaining", remaining).Msg("chunk")
		}

		if remaining == 0 {
			break
		}
		switch {
		case err == nil && got == 0, errors.Is(err, io.EOF):
			// Peer half-closed before sending everything it declared.
			return s.fail(op, IncompleteTransfer, io.ErrUnexpectedEOF)
		case errors.Is(err, networking.ErrTimeout):
			return s.fail(op, Timeout, err)
		case err != nil:
			return s.fail(op, FileIO, err)
		}
	}

	return s.succeed()
}

func headerKind(err error) Kind {
	if errors.Is(err, networking.ErrTimeout) {
		return Timeout
	}
	return FileIO
}
