package main

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/danmuck/pamrfid/internal/buildinfo"
	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/logging"
)

type rootOptions struct {
	configPath string
	port       string
	baudRate   int
	driver     string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "pamrfid",
		Short:         "RFID tag authentication for PAM",
		Version:       buildinfo.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	flags.StringVar(&opts.port, "port", "", "reader device or capture file, overrides reader.port")
	flags.IntVar(&opts.baudRate, "baud-rate", 0, "serial speed, overrides reader.baud_rate")
	flags.StringVar(&opts.driver, "driver", "", "byte source driver (serial|file), overrides reader.driver")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level")

	cmd.AddCommand(
		newAuthCommand(opts),
		newReadCommand(opts),
		newEnrollCommand(opts),
		newWatchCommand(opts),
		newAuditCommand(opts),
		newConfigCommand(opts),
	)
	return cmd
}

func (o *rootOptions) path() string {
	return config.ResolvePath(o.configPath)
}

// load returns the config as stored on disk and the effective config with
// command-line overrides applied. With allowMissing a missing file yields
// the defaults.
func (o *rootOptions) load(cmd *cobra.Command, allowMissing bool) (stored, effective config.Config, err error) {
	stored, err = config.Load(o.path())
	if err != nil {
		if !allowMissing || !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, config.Config{}, err
		}
		stored = config.Default()
	}

	effective = stored
	flags := cmd.Flags()
	if flags.Changed("port") {
		effective.Reader.Port = o.port
	}
	if flags.Changed("baud-rate") {
		effective.Reader.BaudRate = o.baudRate
	}
	if flags.Changed("driver") {
		effective.Reader.Driver = o.driver
	}
	if err := config.Validate(effective); err != nil {
		return config.Config{}, config.Config{}, err
	}
	return stored, effective, nil
}

// logger configures the process logger from the [log] section.
func (o *rootOptions) logger(cfg config.Config) zerolog.Logger {
	return logging.ConfigureRuntime(func(lc *logging.Config) {
		if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
			lc.Level = lvl
		}
		if lvl, ok := logging.ParseLevel(o.logLevel); ok {
			lc.Level = lvl
		}
		lc.Syslog = cfg.Log.Syslog
		lc.SyslogTag = cfg.Log.SyslogTag
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
