package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/pamrfid/internal/auth"
	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/login"
)

func newEnrollCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "enroll <user>",
		Short: "Read a tag and store its salted hash for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			stored, cfg, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			if _, ok := stored.User(name); ok && !force {
				return fmt.Errorf("user %q already has a tag, use --force to replace it", name)
			}
			logger := opts.logger(cfg)
			a := login.New(cfg, login.WithLogger(logger))

			fmt.Fprintf(cmd.ErrOrStderr(), "Present the tag for %s...\n", name)
			rec, err := a.Capture(cmd.Context())
			if err != nil {
				return err
			}
			cred, err := auth.NewCredential(rec.Raw)
			if err != nil {
				return err
			}
			if err := stored.SetUser(name, cred.String()); err != nil {
				return err
			}
			if err := config.Save(opts.path(), stored); err != nil {
				return err
			}
			logger.Info().Str("user", name).Str("tag_type", rec.TypeName()).Msg("tag enrolled")
			fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s with %s tag %s\n", name, rec.TypeName(), rec.MaskedID())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing enrollment")
	return cmd
}
