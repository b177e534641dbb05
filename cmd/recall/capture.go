package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/recall/internal/capture"
)

func captureCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "capture <transcript.jsonl>",
		Short: "Classify a transcript into session observations",
		Long: `Read a host transcript, drop noise, classify what is left and record it.

Observations go to the active session unless --session names another
active one. Each session remembers how far a transcript has been captured,
so running this from a host hook after every turn records each event once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			res, err := capture.NewPipeline(cfg.Memory(), cfg.Capture()).RunFile(args[0], sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to record into, must be active (default: the active session)")
	return cmd
}
