package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/moby/sys/atomicwriter"
	pelletier "github.com/pelletier/go-toml/v2"
)

const (
	DefaultPath = "/etc/pamrfid.toml"
	EnvPath     = "PAMRFID_CONFIG"
)

const (
	DriverSerial = "serial"
	DriverFile   = "file"
)

var (
	ErrInvalidReader = errors.New("config: invalid reader settings")
	ErrInvalidUser   = errors.New("config: invalid user entry")
)

// Reader configures the byte source and the caller-side read policy.
type Reader struct {
	Driver      string
	Port        string
	BaudRate    int
	ByteTimeout time.Duration
	WaitTimeout time.Duration
	MaxAttempts int
}

type Log struct {
	Level     string
	Syslog    bool
	SyslogTag string
}

type Audit struct {
	Path string
}

// Metrics configures the diagnostics HTTP surface served by `pamrfid watch`.
type Metrics struct {
	Addr        string
	CORSOrigins []string
}

// Config is the whole pamrfid configuration file.
type Config struct {
	Reader  Reader
	Log     Log
	Audit   Audit
	Metrics Metrics
	// Users maps a login name to its `salt,hash` credential.
	Users map[string]string
}

func Default() Config {
	return Config{
		Reader: Reader{
			Driver:      DriverSerial,
			Port:        "/dev/ttyUSB0",
			BaudRate:    9600,
			ByteTimeout: 2 * time.Second,
			WaitTimeout: 30 * time.Second,
			MaxAttempts: 3,
		},
		Log: Log{
			Level:     "info",
			Syslog:    true,
			SyslogTag: "pamrfid",
		},
		Audit:   Audit{Path: "/var/lib/pamrfid/audit.db"},
		Metrics: Metrics{Addr: "127.0.0.1:9105"},
		Users:   map[string]string{},
	}
}

// ResolvePath picks the config path from an explicit value, the
// environment, or the default.
func ResolvePath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	return DefaultPath
}

type fileReader struct {
	Driver      string `toml:"driver"`
	Port        string `toml:"port"`
	BaudRate    int    `toml:"baud_rate"`
	ByteTimeout string `toml:"byte_timeout"`
	WaitTimeout string `toml:"wait_timeout"`
	MaxAttempts int    `toml:"max_attempts"`
}

type fileLog struct {
	Level     string `toml:"level"`
	Syslog    bool   `toml:"syslog"`
	SyslogTag string `toml:"syslog_tag"`
}

type fileAudit struct {
	Path string `toml:"path"`
}

type fileMetrics struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins,omitempty"`
}

type fileConfig struct {
	Reader  fileReader        `toml:"reader"`
	Log     fileLog           `toml:"log"`
	Audit   fileAudit         `toml:"audit"`
	Metrics fileMetrics       `toml:"metrics"`
	Users   map[string]string `toml:"users"`
}

// Load reads path and overlays every key it defines onto Default().
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("reader", "driver") {
		cfg.Reader.Driver = strings.ToLower(strings.TrimSpace(raw.Reader.Driver))
	}
	if meta.IsDefined("reader", "port") {
		cfg.Reader.Port = strings.TrimSpace(raw.Reader.Port)
	}
	if meta.IsDefined("reader", "baud_rate") {
		cfg.Reader.BaudRate = raw.Reader.BaudRate
	}
	if meta.IsDefined("reader", "byte_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Reader.ByteTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse reader.byte_timeout: %w", err)
		}
		cfg.Reader.ByteTimeout = d
	}
	if meta.IsDefined("reader", "wait_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Reader.WaitTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse reader.wait_timeout: %w", err)
		}
		cfg.Reader.WaitTimeout = d
	}
	if meta.IsDefined("reader", "max_attempts") {
		cfg.Reader.MaxAttempts = raw.Reader.MaxAttempts
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "syslog") {
		cfg.Log.Syslog = raw.Log.Syslog
	}
	if meta.IsDefined("log", "syslog_tag") {
		cfg.Log.SyslogTag = strings.TrimSpace(raw.Log.SyslogTag)
	}

	if meta.IsDefined("audit", "path") {
		cfg.Audit.Path = strings.TrimSpace(raw.Audit.Path)
	}
	if meta.IsDefined("metrics", "addr") {
		cfg.Metrics.Addr = strings.TrimSpace(raw.Metrics.Addr)
	}
	if meta.IsDefined("metrics", "cors_origins") && len(raw.Metrics.CORSOrigins) > 0 {
		cfg.Metrics.CORSOrigins = raw.Metrics.CORSOrigins
	}

	for name, cred := range raw.Users {
		cfg.Users[strings.TrimSpace(name)] = strings.TrimSpace(cred)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	r := cfg.Reader
	switch r.Driver {
	case DriverSerial, DriverFile:
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidReader, r.Driver)
	}
	if r.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalidReader)
	}
	if r.Driver == DriverSerial && r.BaudRate <= 0 {
		return fmt.Errorf("%w: baud_rate must be positive", ErrInvalidReader)
	}
	if r.ByteTimeout <= 0 {
		return fmt.Errorf("%w: byte_timeout must be positive", ErrInvalidReader)
	}
	if r.WaitTimeout < r.ByteTimeout {
		return fmt.Errorf("%w: wait_timeout shorter than byte_timeout", ErrInvalidReader)
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidReader)
	}
	for name := range cfg.Users {
		if name == "" || strings.ContainsAny(name, " \t") {
			return fmt.Errorf("%w: bad user name %q", ErrInvalidUser, name)
		}
	}
	return nil
}

// Save writes cfg to path atomically with owner-only permissions, since the
// users table holds credential hashes.
func Save(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	raw := fileConfig{
		Reader: fileReader{
			Driver:      cfg.Reader.Driver,
			Port:        cfg.Reader.Port,
			BaudRate:    cfg.Reader.BaudRate,
			ByteTimeout: cfg.Reader.ByteTimeout.String(),
			WaitTimeout: cfg.Reader.WaitTimeout.String(),
			MaxAttempts: cfg.Reader.MaxAttempts,
		},
		Log: fileLog{
			Level:     cfg.Log.Level,
			Syslog:    cfg.Log.Syslog,
			SyslogTag: cfg.Log.SyslogTag,
		},
		Audit:   fileAudit{Path: cfg.Audit.Path},
		Metrics: fileMetrics{Addr: cfg.Metrics.Addr, CORSOrigins: cfg.Metrics.CORSOrigins},
		Users:   cfg.Users,
	}
	if raw.Users == nil {
		raw.Users = map[string]string{}
	}

	data, err := pelletier.Marshal(raw)
	if err != nil {
		return fmt.Errorf("config encode failed (%s): %w", path, err)
	}
	if err := atomicwriter.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config write failed (%s): %w", path, err)
	}
	return nil
}

// SetUser stores cred for name, replacing any previous enrollment.
func (c *Config) SetUser(name, cred string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t") {
		return fmt.Errorf("%w: bad user name %q", ErrInvalidUser, name)
	}
	if c.Users == nil {
		c.Users = map[string]string{}
	}
	c.Users[name] = cred
	return nil
}

func (c Config) User(name string) (string, bool) {
	cred, ok := c.Users[name]
	return cred, ok
}
