package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "NETFILE_LOG_LEVEL"
	EnvLogNoColor = "NETFILE_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

// Configure sets the global logger once per process. Later calls are no-ops.
func Configure(app string, profile Profile) zerolog.Logger {
	configureOnce.Do(func() {
		log.Logger = newLogger(os.Stdout, app, profile, os.Getenv(EnvLogLevel), os.Getenv(EnvLogNoColor))
	})
	return log.Logger
}

func newLogger(out io.Writer, app string, profile Profile, rawLevel, rawNoColor string) zerolog.Logger {
	level := zerolog.InfoLevel
	if profile == ProfileTest {
		level = zerolog.DebugLevel
	}
	if lvl, ok := parseLevel(rawLevel); ok {
		level = lvl
	}
	noColor, _ := parseBool(rawNoColor)

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
