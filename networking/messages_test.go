package networking

import (
	"bytes"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestSendRequest(t *testing.T) {
	c := qt.New(t)
	var out bytes.Buffer

	c.Assert(SendRequest(&out, "test.txt"), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "GET test.txt\r\n")

	c.Assert(SendRequest(&out, ""), qt.ErrorIs, ErrInvalidFilename)
	c.Assert(SendRequest(&out, "a\r\nQUIT"), qt.ErrorIs, ErrInvalidFilename)
	c.Assert(SendRequest(&out, strings.Repeat("x", MaxMessageLen)), qt.ErrorIs, ErrMessageTooLong)
}

func TestSendMessage(t *testing.T) {
	c := qt.New(t)
	var out bytes.Buffer

	c.Assert(SendMessage(&out, "-ERR"), qt.IsNil)
	c.Assert(SendMessage(&out, "QUIT"), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "-ERR\r\nQUIT\r\n")

	c.Assert(SendMessage(shortWriter{limit: 2}, "QUIT"), qt.ErrorIs, ErrShortWrite)
}

func TestParseRequest(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		line string
		want Request
		err  error
	}{
		{line: "GET test.txt", want: Request{Verb: "GET", Name: "test.txt"}},
		{line: "GET dir/with space.bin", want: Request{Verb: "GET", Name: "dir/with space.bin"}},
		{line: "QUIT", want: Request{Verb: "QUIT"}},
		{line: "GET ", err: ErrInvalidFilename},
		{line: "GETX", err: ErrUnknownCommand},
		{line: "PUT a", err: ErrUnknownCommand},
		{line: "", err: ErrUnknownCommand},
	}
	for _, test := range tests {
		got, err := ParseRequest(test.line)
		if test.err != nil {
			c.Assert(err, qt.ErrorIs, test.err, qt.Commentf("line %q", test.line))
			continue
		}
		c.Assert(err, qt.IsNil, qt.Commentf("line %q", test.line))
		c.Assert(got, qt.Equals, test.want)
	}
}

func TestFileHeaderIsBigEndian(t *testing.T) {
	c := qt.New(t)
	ts := time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	raw := EncodeFileHeader(FileHeader{Size: 10, Timestamp: uint32(ts)})
	c.Assert(raw, qt.HasLen, FileHeaderLen)
	c.Assert(raw[:4], qt.DeepEquals, []byte{0, 0, 0, 10})

	header, err := DecodeFileHeader(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(header.Size, qt.Equals, uint32(10))
	c.Assert(int64(header.Timestamp), qt.Equals, ts&0xFFFFFFFF)

	_, err = DecodeFileHeader(raw[:5])
	c.Assert(err, qt.ErrorIs, ErrInvalidHeader)
}

func TestNewInbox(t *testing.T) {
	c := qt.New(t)

	inbox, err := NewInbox(0)
	c.Assert(err, qt.IsNil)
	c.Assert(inbox.Capacity(), qt.Equals, 256)

	_, err = NewInbox(1)
	c.Assert(err, qt.ErrorIs, ErrBufferSize)

	inbox.EnableTimer(-time.Second)
	c.Assert(inbox.Deadline(), qt.Equals, time.Duration(0))
	inbox.EnableTimer(time.Second)
	c.Assert(inbox.Deadline(), qt.Equals, time.Second)
	inbox.DisableTimer()
	c.Assert(inbox.Deadline(), qt.Equals, time.Duration(0))
}

func TestReceiveMessageReusesInbox(t *testing.T) {
	c := qt.New(t)
	inbox, err := NewInbox(0)
	c.Assert(err, qt.IsNil)
	stream := newBufferStream("GET test.txt\r\nQUIT\r\n")

	line, err := ReceiveMessage(stream, inbox)
	c.Assert(err, qt.IsNil)
	c.Assert(line, qt.Equals, "GET test.txt")

	line, err = ReceiveMessage(stream, inbox)
	c.Assert(err, qt.IsNil)
	c.Assert(line, qt.Equals, "QUIT")
	c.Assert(inbox.Capacity(), qt.Equals, 256)

	_, err = ReceiveMessage(stream, inbox)
	c.Assert(err, qt.ErrorIs, ErrConnectionClosed)
}

func TestReceiveMessageTruncatesLongLine(t *testing.T) {
	c := qt.New(t)
	inbox, err := NewInbox(8)
	c.Assert(err, qt.IsNil)
	stream := newBufferStream("GET averylongname\r\n")

	line, err := ReceiveMessage(stream, inbox)
	c.Assert(err, qt.IsNil)
	c.Assert(line, qt.Equals, "GET ave")
	c.Assert(inbox.msg[7], qt.Equals, byte(0))
	c.Assert(stream.String(), qt.Equals, "rylongname\r\n")
}
