package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/pamrfid/internal/audit"
	"github.com/danmuck/pamrfid/internal/buildinfo"
	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/login"
)

func newAuthCommand(opts *rootOptions) *cobra.Command {
	var user, service string
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate the PAM user with a tag",
		Long: "Reads PAM_RUSER (or PAM_USER) and PAM_SERVICE from the environment as set by\n" +
			"pam_exec, waits for a tag and exits with the matching PAM return code.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := login.RequestFromEnv(os.Getenv)
			if user != "" {
				req.User = user
			}
			if service != "" {
				req.Service = service
			}
			if res := runAuth(cmd, opts, req); res != login.ResultSuccess {
				return &exitError{code: res.ExitCode()}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user to authenticate instead of PAM_RUSER/PAM_USER")
	cmd.Flags().StringVar(&service, "service", "", "service name instead of PAM_SERVICE")
	return cmd
}

func runAuth(cmd *cobra.Command, opts *rootOptions, req login.Request) login.Result {
	_, cfg, err := opts.load(cmd, false)
	if err != nil {
		logger := opts.logger(config.Default())
		logger.Error().Err(err).Str("path", opts.path()).Msg("configuration not readable")
		return login.ResultIgnore
	}
	logger := opts.logger(cfg)

	var recorder login.Recorder
	if cfg.Audit.Path != "" {
		recorder = &audit.FileRecorder{Path: cfg.Audit.Path}
	}

	a := login.New(cfg,
		login.WithPrompter(&login.WriterPrompter{W: cmd.OutOrStdout(), Version: buildinfo.Version}),
		login.WithRecorder(recorder),
		login.WithLogger(logger),
	)
	return a.Authenticate(cmd.Context(), req)
}
