package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/akamensky/argparse"
	"github.com/rs/zerolog"

	"go_netfile/client/comms"
	"go_netfile/config"
	"go_netfile/constants"
	"go_netfile/fileio"
	"go_netfile/logging"
	"go_netfile/netfile"
)

func main() {
	args := argparse.NewParser("client", constants.Title)

	bind := args.String("a", "address", &argparse.Options{Required: false, Help: "Target host address"})
	chunk := args.Int("c", "chunksize", &argparse.Options{Required: false, Help: "Transfer chunk size in KB (default " +
		strconv.Itoa(constants.DEFAULT_CHUNK_SIZE/1024) + ")"})
	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS", Default: -1})
	files := args.StringList("f", "file", &argparse.Options{Required: true, Help: "Remote file name (repeatable)"})
	cfgPath := args.String("g", "config", &argparse.Options{Required: false, Help: "TOML configuration file"})
	mptcp := args.Flag("m", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	omit := args.Flag("n", "nochecksum", &argparse.Options{Help: "Omit checksum calculation"})
	out := args.String("o", "output", &argparse.Options{Required: false, Help: "Directory to store files in"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Target port"})
	sha := args.Flag("s", "sha", &argparse.Options{Help: "Use SHA256 checksum instead of CRC32"})
	deadline := args.Int("w", "wait", &argparse.Options{Required: false, Help: "Receive deadline in seconds (0 disables)",
		Default: -1})
	lz4 := args.Flag("z", "lz4", &argparse.Options{Help: "Keep an LZ4 compressed copy of every received file"})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	logger := logging.Configure("client", logging.ProfileRuntime)

	if err := config.LoadEnv(); err != nil {
		logger.Warn().Err(err).Msg("could not read .env")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration")
	}

	// Flags win over the config file.
	cli := cfg.Client
	if *bind != "" {
		cli.Address = *bind
	}
	if *port > 0 {
		cli.Port = *port
	}
	if *out != "" {
		cli.OutputDir = *out
	}
	if *chunk > 0 {
		cli.ChunkSize = *chunk * 1024
	}
	if *dscp >= 0 {
		cli.DSCP = *dscp
	}
	if *deadline >= 0 {
		cli.Deadline = time.Duration(*deadline) * time.Second
	}
	if *sha {
		cli.Checksum = "sha256"
	} else if cli.Checksum == "" {
		cli.Checksum = "crc32"
	}
	if *omit {
		cli.Checksum = ""
	}
	if *lz4 {
		cli.LZ4 = true
	}

	addr := net.JoinHostPort(cli.Address, strconv.Itoa(cli.Port))

	client, err := comms.Connect(addr, comms.Options{
		ChunkSize: cli.ChunkSize,
		Deadline:  cli.Deadline,
		InboxSize: cli.InboxSize,
		DSCP:      cli.DSCP,
		MPTCP:     *mptcp,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("could not connect")
	}
	logger.Info().Str("addr", addr).Msg("connected")

	failed := 0
	for _, name := range *files {
		begin := time.Now()
		res, err := client.Fetch(name, cli.OutputDir)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("status", client.Status()).Msg("transfer failed")
			if errors.Is(err, netfile.ErrNegativeResponse) {
				// Server refused this one; the session is still in sync.
				continue
			}
			break
		}

		logger.Info().
			Str("file", res.Path).
			Uint32("size", res.Size).
			Time("modified", res.ModTime).
			Dur("took", time.Since(begin)).
			Str("status", client.Status()).
			Msg("received")

		report(logger, cli, res.Path)
	}

	if err := client.Quit(); err != nil {
		logger.Warn().Err(err).Msg("could not send QUIT")
	}
	client.Close()
	logger.Info().Msg("disconnected")

	if failed > 0 {
		os.Exit(2)
	}
}

// report prints the checksum of a received file and archives it when asked to
func report(logger zerolog.Logger, cli config.ClientConfig, path string) {
	var hash []byte
	var err error
	switch cli.Checksum {
	case "sha256":
		hash, err = fileio.ChecksumSHA256(path)
	case "crc32":
		hash, err = fileio.ChecksumCRC32(path)
	}
	if err != nil {
		logger.Warn().Err(err).Str("file", path).Msg("checksum failed")
	} else if hash != nil {
		logger.Info().Str("file", path).Str(cli.Checksum, hex.EncodeToString(hash)).Msg("checksum")
	}

	if cli.LZ4 {
		size, err := fileio.CompressFile(path, path+".lz4")
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("lz4 archive failed")
			return
		}
		logger.Info().Str("archive", path+".lz4").Int64("bytes", size).Msg("archived")
	}
}
