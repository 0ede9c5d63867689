package server

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"

	"go_netfile/config"
	"go_netfile/fileio"
	"go_netfile/netfile"
	"go_netfile/networking"
)

var modTime = time.Unix(1600000000, 0)

func newRoot(c *qt.C) string {
	root := c.TempDir()
	path := filepath.Join(root, "test.txt")
	c.Assert(os.WriteFile(path, []byte("0123456789"), 0o644), qt.IsNil)
	c.Assert(os.Chtimes(path, modTime, modTime), qt.IsNil)
	return root
}

func newHandler(root string, deadline time.Duration) *Handler {
	return &Handler{
		root:      root,
		factory:   fileio.OSFactory{},
		chunkSize: 4,
		deadline:  deadline,
		logger:    zerolog.Nop(),
	}
}

// serveInBackground runs the handler on one end of a pipe and returns the other.
func serveInBackground(c *qt.C, h *Handler) (net.Conn, chan struct{}) {
	client, server := net.Pipe()
	c.Cleanup(func() { client.Close() })
	done := make(chan struct{})
	go func() {
		h.Serve(server)
		close(done)
	}()
	return client, done
}

func waitDone(c *qt.C, done chan struct{}) {
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.Fatal("handler did not return")
	}
}

func TestHandlerSession(t *testing.T) {
	c := qt.New(t)
	conn, done := serveInBackground(c, newHandler(newRoot(c), 0))
	inbox, err := networking.NewInbox(0)
	c.Assert(err, qt.IsNil)

	// Granted request.
	c.Assert(networking.SendRequest(conn, "test.txt"), qt.IsNil)
	reply, err := networking.ReceiveMessage(conn, inbox)
	c.Assert(err, qt.IsNil)
	c.Assert(reply, qt.Equals, "+OK")

	dst, err := os.Create(filepath.Join(c.TempDir(), "test.txt"))
	c.Assert(err, qt.IsNil)
	defer dst.Close()
	session := netfile.NewSession(conn, dst)
	c.Assert(session.Receive(4), qt.IsNil)
	c.Assert(session.Size(), qt.Equals, uint32(10))
	c.Assert(session.Timestamp(), qt.Equals, uint32(modTime.Unix()))

	// Denied requests keep the session going.
	for _, line := range []string{"GET missing.txt", "GET ../test.txt", "HELLO"} {
		c.Assert(networking.SendMessage(conn, line), qt.IsNil)
		reply, err = networking.ReceiveMessage(conn, inbox)
		c.Assert(err, qt.IsNil)
		c.Assert(reply, qt.Equals, "-ERR", qt.Commentf("line %q", line))
	}

	c.Assert(networking.SendMessage(conn, "QUIT"), qt.IsNil)
	waitDone(c, done)

	got, err := os.ReadFile(dst.Name())
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "0123456789")
}

func TestHandlerRefusesFileBeyondHeaderRange(t *testing.T) {
	c := qt.New(t)
	root := newRoot(c)
	big, err := os.Create(filepath.Join(root, "big.bin"))
	c.Assert(err, qt.IsNil)
	// Sparse, so no disk space is used.
	c.Assert(big.Truncate(1<<32), qt.IsNil)
	c.Assert(big.Close(), qt.IsNil)

	conn, done := serveInBackground(c, newHandler(root, 0))
	inbox, err := networking.NewInbox(0)
	c.Assert(err, qt.IsNil)

	c.Assert(networking.SendRequest(conn, "big.bin"), qt.IsNil)
	reply, err := networking.ReceiveMessage(conn, inbox)
	c.Assert(err, qt.IsNil)
	c.Assert(reply, qt.Equals, "-ERR")

	// The session is still in sync for the next request.
	c.Assert(networking.SendRequest(conn, "test.txt"), qt.IsNil)
	reply, err = networking.ReceiveMessage(conn, inbox)
	c.Assert(err, qt.IsNil)
	c.Assert(reply, qt.Equals, "+OK")

	dst := new(bytes.Buffer)
	session := netfile.NewSession(conn, &bufferFile{Buffer: dst})
	c.Assert(session.Receive(0), qt.IsNil)
	c.Assert(dst.String(), qt.Equals, "0123456789")

	c.Assert(networking.SendMessage(conn, "QUIT"), qt.IsNil)
	waitDone(c, done)
}

func TestHandlerStopsOnDisconnect(t *testing.T) {
	c := qt.New(t)
	conn, done := serveInBackground(c, newHandler(newRoot(c), 0))
	conn.Close()
	waitDone(c, done)
}

func TestHandlerIdleDeadline(t *testing.T) {
	c := qt.New(t)
	_, done := serveInBackground(c, newHandler(newRoot(c), 50*time.Millisecond))
	waitDone(c, done)
}

func TestServerLifecycle(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default().Server
	cfg.Listen = "127.0.0.1"
	cfg.Port = 0
	cfg.Root = newRoot(c)
	cfg.Workers = 2

	s, err := New(cfg, false, zerolog.Nop())
	c.Assert(err, qt.IsNil)
	c.Assert(s.Addr(), qt.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Assert(s.Listen(ctx), qt.IsNil)

	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx) }()

	conn, err := net.Dial("tcp", s.Addr().String())
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	inbox, err := networking.NewInbox(0)
	c.Assert(err, qt.IsNil)
	c.Assert(networking.SendRequest(conn, "missing.txt"), qt.IsNil)
	reply, err := networking.ReceiveMessage(conn, inbox)
	c.Assert(err, qt.IsNil)
	c.Assert(reply, qt.Equals, "-ERR")

	// Shutdown closes the idle session.
	cancel()
	select {
	case err := <-served:
		c.Assert(err, qt.IsNil)
	case <-time.After(5 * time.Second):
		c.Fatal("server did not stop")
	}
	_, err = io.ReadAll(conn)
	c.Assert(err, qt.IsNil)
}

func TestNewRejectsMissingRoot(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default().Server
	cfg.Root = filepath.Join(c.TempDir(), "nope")

	_, err := New(cfg, false, zerolog.Nop())
	c.Assert(err, qt.ErrorMatches, "invalid root folder: .*")
}

// bufferFile is a write-only netfile.File backed by memory.
type bufferFile struct {
	*bytes.Buffer
}

func (bufferFile) ReadAt([]byte, int64) (int, error) { return 0, io.EOF }

func (bufferFile) Stat() (fs.FileInfo, error) { return nil, fs.ErrInvalid }
