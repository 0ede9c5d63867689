package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"go_netfile/constants"
)

// EnvConfigPath names a config file used when no --config flag is given.
const EnvConfigPath = "NETFILE_CONFIG"

type ServerConfig struct {
	Listen      string
	Port        int
	Root        string
	ChunkSize   int
	Workers     int
	Deadline    time.Duration
	InboxSize   int
	MetricsAddr string
}

type ClientConfig struct {
	Address   string
	Port      int
	OutputDir string
	ChunkSize int
	Deadline  time.Duration
	InboxSize int
	DSCP      int
	Checksum  string
	LZ4       bool
}

type Config struct {
	Server ServerConfig
	Client ClientConfig
}

type fileConfig struct {
	Server struct {
		Listen      string `toml:"listen"`
		Port        int    `toml:"port"`
		Root        string `toml:"root"`
		ChunkSize   int    `toml:"chunk_size"`
		Workers     int    `toml:"workers"`
		Deadline    string `toml:"deadline"`
		InboxSize   int    `toml:"inbox_size"`
		MetricsAddr string `toml:"metrics_addr"`
	} `toml:"server"`
	Client struct {
		Address   string `toml:"address"`
		Port      int    `toml:"port"`
		OutputDir string `toml:"output_dir"`
		ChunkSize int    `toml:"chunk_size"`
		Deadline  string `toml:"deadline"`
		InboxSize int    `toml:"inbox_size"`
		DSCP      int    `toml:"dscp"`
		Checksum  string `toml:"checksum"`
		LZ4       bool   `toml:"lz4"`
	} `toml:"client"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:    "0.0.0.0",
			Port:      constants.DEFAULT_PORT,
			ChunkSize: constants.DEFAULT_CHUNK_SIZE,
			Workers:   constants.DEFAULT_NUM_WORKERS,
			Deadline:  constants.DEFAULT_DEADLINE_SECS * time.Second,
			InboxSize: constants.DEFAULT_INBOX_SIZE,
		},
		Client: ClientConfig{
			Address:   "127.0.0.1",
			Port:      constants.DEFAULT_PORT,
			OutputDir: ".",
			ChunkSize: constants.DEFAULT_CHUNK_SIZE,
			Deadline:  constants.DEFAULT_DEADLINE_SECS * time.Second,
			InboxSize: constants.DEFAULT_INBOX_SIZE,
			DSCP:      constants.DEFAULT_DSCP,
		},
	}
}

// LoadEnv reads a .env file from the working directory if there is one.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load returns defaults overridden by the TOML file at path. An empty path falls back
// to $NETFILE_CONFIG, and to plain defaults when that is unset too.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	srv := &cfg.Server
	if meta.IsDefined("server", "listen") {
		srv.Listen = strings.TrimSpace(raw.Server.Listen)
	}
	if meta.IsDefined("server", "port") {
		srv.Port = raw.Server.Port
	}
	if meta.IsDefined("server", "root") {
		srv.Root = strings.TrimSpace(raw.Server.Root)
	}
	if meta.IsDefined("server", "chunk_size") {
		srv.ChunkSize = raw.Server.ChunkSize
	}
	if meta.IsDefined("server", "workers") {
		srv.Workers = raw.Server.Workers
	}
	if meta.IsDefined("server", "deadline") {
		d, err := parseDeadline(raw.Server.Deadline)
		if err != nil {
			return Config{}, fmt.Errorf("parse server.deadline: %w", err)
		}
		srv.Deadline = d
	}
	if meta.IsDefined("server", "inbox_size") {
		srv.InboxSize = raw.Server.InboxSize
	}
	if meta.IsDefined("server", "metrics_addr") {
		srv.MetricsAddr = strings.TrimSpace(raw.Server.MetricsAddr)
	}

	cli := &cfg.Client
	if meta.IsDefined("client", "address") {
		cli.Address = strings.TrimSpace(raw.Client.Address)
	}
	if meta.IsDefined("client", "port") {
		cli.Port = raw.Client.Port
	}
	if meta.IsDefined("client", "output_dir") {
		cli.OutputDir = strings.TrimSpace(raw.Client.OutputDir)
	}
	if meta.IsDefined("client", "chunk_size") {
		cli.ChunkSize = raw.Client.ChunkSize
	}
	if meta.IsDefined("client", "deadline") {
		d, err := parseDeadline(raw.Client.Deadline)
		if err != nil {
			return Config{}, fmt.Errorf("parse client.deadline: %w", err)
		}
		cli.Deadline = d
	}
	if meta.IsDefined("client", "inbox_size") {
		cli.InboxSize = raw.Client.InboxSize
	}
	if meta.IsDefined("client", "dscp") {
		cli.DSCP = raw.Client.DSCP
	}
	if meta.IsDefined("client", "checksum") {
		cli.Checksum = strings.ToLower(strings.TrimSpace(raw.Client.Checksum))
	}
	if meta.IsDefined("client", "lz4") {
		cli.LZ4 = raw.Client.LZ4
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Server.Deadline < 0 || c.Client.Deadline < 0 {
		return errors.New("config: deadline must not be negative")
	}
	if c.Server.ChunkSize < 0 || c.Client.ChunkSize < 0 || c.Server.ChunkSize > constants.MAX_CHUNK_SIZE || c.Client.ChunkSize > constants.MAX_CHUNK_SIZE {
		return fmt.Errorf("config: chunk_size must be between 0 and %d", constants.MAX_CHUNK_SIZE)
	}
	if c.Server.Workers < 1 {
		return errors.New("config: server.workers must be at least 1")
	}
	switch c.Client.Checksum {
	case "", "crc32", "sha256":
	default:
		return fmt.Errorf("config: unknown checksum %q", c.Client.Checksum)
	}
	return nil
}

// parseDeadline accepts a Go duration ("2.5s") or whole seconds ("30").
func parseDeadline(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid deadline %q", raw)
	}
	return time.Duration(secs) * time.Second, nil
}
