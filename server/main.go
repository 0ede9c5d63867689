package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"

	"go_netfile/config"
	"go_netfile/constants"
	"go_netfile/logging"
	"go_netfile/observability"
	server "go_netfile/server/controller"
)

func main() {
	args := argparse.NewParser("server", constants.Title)

	chunk := args.Int("c", "chunksize", &argparse.Options{Required: false, Help: "Transfer chunk size in KB (default " +
		fmt.Sprint(constants.DEFAULT_CHUNK_SIZE/1024) + ")"})
	cfgPath := args.String("f", "config", &argparse.Options{Required: false, Help: "TOML configuration file"})
	bind := args.String("l", "listen", &argparse.Options{Required: false, Help: "Listen on address"})
	metrics := args.String("M", "metrics", &argparse.Options{Required: false, Help: "Serve Prometheus metrics on address"})
	mptcp := args.Flag("m", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Listening port"})
	path := args.String("r", "root", &argparse.Options{Required: false, Help: "Root path of served files"})
	workers := args.Int("t", "threads", &argparse.Options{Required: false, Help: "Number of concurrent sessions"})
	deadline := args.Int("w", "wait", &argparse.Options{Required: false, Help: "Receive deadline in seconds (0 disables)",
		Default: -1})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	logger := logging.Configure("server", logging.ProfileRuntime)

	if err := config.LoadEnv(); err != nil {
		logger.Warn().Err(err).Msg("could not read .env")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration")
	}

	// Flags win over the config file.
	srv := cfg.Server
	if *bind != "" {
		srv.Listen = *bind
	}
	if *port > 0 {
		srv.Port = *port
	}
	if *path != "" {
		srv.Root = *path
	}
	if *chunk > 0 {
		srv.ChunkSize = *chunk * 1024
	}
	if *workers > 0 {
		srv.Workers = *workers
	}
	if *deadline >= 0 {
		srv.Deadline = time.Duration(*deadline) * time.Second
	}
	if *metrics != "" {
		srv.MetricsAddr = *metrics
	}
	if srv.Root == "" {
		fmt.Print(args.Usage("root path is required"))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if srv.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			logger.Info().Str("addr", srv.MetricsAddr).Msg("metrics listening")
			if err := http.ListenAndServe(srv.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	s, err := server.New(srv, *mptcp, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
	if err := s.Listen(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
	if err := s.Serve(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
	logger.Info().Msg("server stopped")
}
