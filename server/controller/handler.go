package server

import (
	"errors"
	"math"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go_netfile/fileio"
	"go_netfile/netfile"
	"go_netfile/networking"
	"go_netfile/networking/verb"
	"go_netfile/observability"
)

type Handler struct {
	root      string
	factory   fileio.IOFactory
	chunkSize int
	deadline  time.Duration
	inboxSize int
	logger    zerolog.Logger
}

// Serve runs one client session until QUIT, disconnect or a failed transfer
func (h *Handler) Serve(conn net.Conn) {
	defer conn.Close()

	logger := h.logger.With().
		Str("session", uuid.NewString()).
		Str("peer", conn.RemoteAddr().String()).
		Logger()

	observability.SessionStarted()
	defer observability.SessionEnded()

	inbox, err := networking.NewInbox(h.inboxSize)
	if err != nil {
		logger.Error().Err(err).Msg("could not allocate inbox")
		return
	}
	inbox.EnableTimer(h.deadline)

	session := netfile.NewSession(conn, nil).WithLogger(logger)
	session.EnableTimer(h.deadline)
	defer session.Close()

	logger.Info().Msg("client connected")

	for {
		line, err := networking.ReceiveMessage(conn, inbox)
		if err != nil {
			switch {
			case errors.Is(err, networking.ErrConnectionClosed):
				logger.Info().Msg("client disconnected")
			case errors.Is(err, networking.ErrTimeout):
				logger.Info().Msg("client idle, closing")
			default:
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}

		req, err := networking.ParseRequest(line)
		if err != nil {
			logger.Warn().Err(err).Str("line", line).Msg("bad request")
			if err := networking.SendMessage(conn, verb.ERR); err != nil {
				return
			}
			continue
		}

		if req.Verb == verb.QUIT {
			logger.Info().Msg("client quit")
			return
		}

		if err := h.serveFile(session, req.Name, logger); err != nil {
			// Stream state is unknown after a failed reply.
			logger.Warn().Err(err).Msg("dropping connection")
			return
		}
	}
}

// serveFile answers one GET. A denied request is not an error for the session.
func (h *Handler) serveFile(session *netfile.Session, name string, logger zerolog.Logger) error {
	begin := time.Now()
	conn := session.Conn()

	file, err := h.factory.OpenSource(h.root, name)
	if err == nil {
		defer file.Close()
		// The header carries a 32-bit size; refuse before committing to +OK.
		var info os.FileInfo
		if info, err = file.Stat(); err == nil && info.Size() > math.MaxUint32 {
			err = netfile.ErrFileTooLarge
		}
	}
	if err != nil {
		session.SetStatus(netfile.FileStat)
		logger.Info().Err(err).Str("file", name).Msg("request denied")
		observability.RecordTransfer(session.StatusText(), 0, time.Since(begin))
		return networking.SendMessage(conn, verb.ERR)
	}

	if err := networking.SendMessage(conn, verb.OK); err != nil {
		session.SetStatus(netfile.NoConnection)
		return err
	}

	session.SetFile(file)
	err = session.Transmit(h.chunkSize)
	session.SetFile(nil)

	sent := session.Transferred()
	observability.RecordTransfer(session.StatusText(), sent, time.Since(begin))

	if err != nil {
		return err
	}
	logger.Info().Str("file", name).Int64("bytes", sent).Dur("took", time.Since(begin)).Msg("file sent")
	return nil
}
