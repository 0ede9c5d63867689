package comms

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"

	"go_netfile/fileio"
	"go_netfile/netfile"
	"go_netfile/networking"
	"go_netfile/networking/verb"
)

var ErrUnexpectedReply = errors.New("comms: unexpected reply")

// Options tune one client connection
type Options struct {
	ChunkSize int
	Deadline  time.Duration
	InboxSize int
	DSCP      int
	MPTCP     bool
	Logger    zerolog.Logger
}

// Result describes one received file
type Result struct {
	Path    string
	Size    uint32
	ModTime time.Time
}

// Client fetches files over a single connection, one after another
type Client struct {
	conn      net.Conn
	inbox     *networking.Inbox
	session   *netfile.Session
	factory   fileio.IOFactory
	chunkSize int
	logger    zerolog.Logger
}

// Connect opens TCP connection to target host address
func Connect(address string, opts Options) (*Client, error) {
	_, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}
	dial := new(net.Dialer)
	// Set MPTCP.
	dial.SetMultipathTCP(opts.MPTCP)
	// Connect to host.
	conn, err := dial.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// Set TCP_NODELAY to always immediately send.
		tcp.SetNoDelay(true)
	}
	// Set DSCP. NOTE: On Windows by default it will not apply the value.
	if err := ipv4.NewConn(conn).SetTOS(opts.DSCP << 2); err != nil {
		opts.Logger.Debug().Err(err).Msg("could not set DSCP")
	}

	client, err := NewClient(conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// NewClient runs the protocol over an already established connection
func NewClient(conn net.Conn, opts Options) (*Client, error) {
	inbox, err := networking.NewInbox(opts.InboxSize)
	if err != nil {
		return nil, err
	}
	inbox.EnableTimer(opts.Deadline)

	session := netfile.NewSession(conn, nil).WithLogger(opts.Logger)
	session.EnableTimer(opts.Deadline)

	return &Client{
		conn:      conn,
		inbox:     inbox,
		session:   session,
		factory:   fileio.OSFactory{},
		chunkSize: opts.ChunkSize,
		logger:    opts.Logger,
	}, nil
}

// Fetch requests remote and stores it under dir. A denied request returns an error
// matching netfile.ErrNegativeResponse and leaves the connection usable.
func (c *Client) Fetch(remote, dir string) (*Result, error) {
	if err := networking.SendRequest(c.conn, remote); err != nil {
		if !errors.Is(err, networking.ErrInvalidFilename) && !errors.Is(err, networking.ErrMessageTooLong) {
			c.session.SetStatus(netfile.NoConnection)
		}
		return nil, fmt.Errorf("fetch %s: %w", remote, err)
	}

	reply, err := networking.ReceiveMessage(c.conn, c.inbox)
	if err != nil {
		kind := netfile.KindOf(err)
		if kind == netfile.Unrecognized {
			// Raw socket failure, e.g. a reset.
			kind = netfile.NoConnection
		}
		c.session.SetStatus(kind)
		return nil, fmt.Errorf("fetch %s: %w", remote, err)
	}

	switch reply {
	case verb.OK:
	case verb.ERR:
		c.session.SetStatus(netfile.NegativeResponse)
		return nil, fmt.Errorf("fetch %s: %w", remote, c.session.Err())
	default:
		c.session.SetStatus(netfile.Unrecognized)
		return nil, fmt.Errorf("fetch %s: %w: %q", remote, ErrUnexpectedReply, reply)
	}

	file, err := c.factory.CreateSink(dir, remote)
	if err != nil {
		c.session.SetStatus(netfile.FileIO)
		return nil, fmt.Errorf("fetch %s: %w", remote, err)
	}
	path := file.Name()

	c.session.SetFile(file)
	err = c.session.Receive(c.chunkSize)
	c.session.SetFile(nil)

	closeErr := file.Close()
	if err == nil && closeErr != nil {
		c.session.SetStatus(netfile.FileIO)
		err = closeErr
	}
	if err != nil {
		// Do not leave a truncated copy behind.
		os.Remove(path)
		return nil, fmt.Errorf("fetch %s: %w", remote, err)
	}

	mtime := c.session.ModTime()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		c.logger.Debug().Err(err).Str("file", path).Msg("could not set modification time")
	}

	return &Result{
		Path:    filepath.Clean(path),
		Size:    c.session.Size(),
		ModTime: mtime,
	}, nil
}

// Status returns the label of the last operation's outcome
func (c *Client) Status() string {
	return c.session.StatusText()
}

// Quit tells the server the session is over
func (c *Client) Quit() error {
	return networking.SendMessage(c.conn, verb.QUIT)
}

// Close closes socket
func (c *Client) Close() error {
	c.session.Close()
	return c.conn.Close()
}
