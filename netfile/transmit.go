package netfile

import (
	"errors"
	"io"
	"math"

	"go_netfile/networking"
)

// Transmit sends the binary header (size, modification time) of the attached file
// followed by its contents in chunks of chunkSize bytes. Zero selects the default.
func (s *Session) Transmit(chunkSize int) error {
	const op = "transmit"
	s.moved = 0

	if s.conn == nil {
		return s.fail(op, NoConnection, nil)
	}
	if s.file == nil {
		return s.fail(op, FileStat, ErrNoFile)
	}
	buf, err := allocChunk(chunkSize)
	if err != nil {
		return s.fail(op, MemoryAllocation, err)
	}

	info, err := s.file.Stat()
	if err != nil {
		return s.fail(op, FileStat, err)
	}
	if info.Size() > math.MaxUint32 {
		return s.fail(op, FileStat, ErrFileTooLarge)
	}

	header := networking.FileHeader{
		Size:      uint32(info.Size()),
		Timestamp: uint32(info.ModTime().Unix()),
	}
	raw := networking.EncodeFileHeader(header)
	if n, err := s.conn.Write(raw); err != nil || n != len(raw) {
		return s.fail(op, FileIO, writeErr(err))
	}

	remaining := int64(header.Size)
	var offset int64

	for remaining > 0 {
		want := min(int64(len(buf)), remaining)
		read, err := s.file.ReadAt(buf[:want], offset)
		if err != nil && !errors.Is(err, io.EOF) {
			return s.fail(op, FileIO, err)
		}
		if read == 0 {
			return s.fail(op, FileIO, ErrFileChanged)
		}

		sent, err := s.conn.Write(buf[:read])
		if err != nil || sent != read {
			return s.fail(op, FileIO, writeErr(err))
		}

		remaining -= int64(sent)
		offset += int64(sent)
		s.moved = offset

		s.logger.Trace().Int("sent", sent).Int64("remaining", remaining).Msg("chunk")
	}

	s.logger.Debug().Uint32("size", header.Size).Uint32("timestamp", header.Timestamp).Msg("file sent")
	return s.succeed()
}

func writeErr(err error) error {
	if err == nil {
		return networking.ErrShortWrite
	}
	return err
}
