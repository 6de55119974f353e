package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danmuck/pamrfid/internal/login"
	"github.com/danmuck/pamrfid/internal/rfid"
)

type tagJSON struct {
	ID       string `json:"id"`
	Number   uint32 `json:"number"`
	Type     string `json:"type"`
	TypeName string `json:"type_name"`
	Checksum string `json:"checksum"`
	Raw      string `json:"raw"`
}

func newReadCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Wait for one tag and print its fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := opts.load(cmd, true)
			if err != nil {
				return err
			}
			a := login.New(cfg, login.WithLogger(opts.logger(cfg)))

			fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for tag...")
			rec, err := a.Capture(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				return writeTagJSON(out, rec)
			}
			return writeTagText(out, rec)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func writeTagJSON(w io.Writer, rec rfid.TagRecord) error {
	enc := json.NewEncoder(w)
	return enc.Encode(tagJSON{
		ID:       rec.ID,
		Number:   rec.Number,
		Type:     rec.TypeHex(),
		TypeName: rec.TypeName(),
		Checksum: rec.ChecksumHex(),
		Raw:      rec.Raw,
	})
}

func writeTagText(w io.Writer, rec rfid.TagRecord) error {
	_, err := fmt.Fprintf(w,
		"ID:       %s\nType:     %s (%s)\nChecksum: %s\nRAW:      %s\n",
		rec.ID, rec.TypeName(), rec.TypeHex(), rec.ChecksumHex(), rec.Raw)
	return err
}
