package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RackSec/srslog"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "PAMRFID_LOG_LEVEL"
	EnvLogTimestamp = "PAMRFID_LOG_TIMESTAMP"
	EnvLogNoColor   = "PAMRFID_LOG_NOCOLOR"
	EnvLogBypass    = "PAMRFID_LOG_BYPASS"
)

const DefaultSyslogTag = "pamrfid"

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config selects the sinks and verbosity of the process logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	// Bypass skips console formatting and writes raw JSON lines.
	Bypass    bool
	Output    io.Writer
	Syslog    bool
	SyslogTag string
}

var (
	configureOnce sync.Once

	mu      sync.RWMutex
	current = zerolog.Nop()
	closer  io.Closer
)

func ConfigureRuntime(overrides ...func(*Config)) zerolog.Logger {
	return Configure(ProfileRuntime, overrides...)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure builds the process logger once. Overrides run before the
// environment is consulted, so env variables always win.
func Configure(profile Profile, overrides ...func(*Config)) zerolog.Logger {
	configureOnce.Do(func() {
		cfg := DefaultConfig(profile)
		for _, o := range overrides {
			o(&cfg)
		}
		applyEnvOverrides(&cfg)

		logger, c, err := New(cfg)
		if err != nil {
			// syslog is optional; keep the console sink.
			cfg.Syslog = false
			logger, c, _ = New(cfg)
			logger.Warn().Err(err).Msg("syslog sink unavailable")
		}

		mu.Lock()
		current = logger
		closer = c
		mu.Unlock()
	})
	return Logger()
}

// Logger returns the configured process logger, or a no-op logger before
// Configure has run.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Close releases the syslog connection, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

func DefaultConfig(profile Profile) Config {
	cfg := Config{
		Output:    os.Stderr,
		SyslogTag: DefaultSyslogTag,
	}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

// New builds a logger from cfg. The returned closer is non-nil when a
// syslog connection was opened.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !cfg.Bypass {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		}
	}

	var c io.Closer
	if cfg.Syslog {
		tag := cfg.SyslogTag
		if tag == "" {
			tag = DefaultSyslogTag
		}
		w, err := srslog.New(srslog.LOG_AUTH|srslog.LOG_INFO, tag)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		out = zerolog.MultiLevelWriter(out, zerolog.SyslogLevelWriter(w))
		c = w
	}

	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger(), c, nil
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogBypass)); ok {
		cfg.Bypass = v
	}
}

// ParseLevel accepts the level names used in config files and env vars.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
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
