package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/source"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.path()
			if err := config.WriteTemplate(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote config template to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the config file and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stored, cfg, err := opts.load(cmd, false)
			if err != nil {
				return err
			}
			if _, ok := source.Get(cfg.Reader.Driver); !ok {
				return fmt.Errorf("%w: %s", source.ErrUnknownDriver, cfg.Reader.Driver)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Validated %s: driver=%s port=%s users=%d\n",
				opts.path(), cfg.Reader.Driver, cfg.Reader.Port, len(stored.Users))
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
