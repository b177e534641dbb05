package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/recall/internal/memory"
)

func exportCmd() *cobra.Command {
	var includePrivate bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print sessions and observations as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var data *memory.ExportData
			err = memory.With(cfg.Memory(), func(s *memory.Store) error {
				data, err = s.Export(includePrivate)
				return err
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
	cmd.Flags().BoolVar(&includePrivate, "include-private", false, "include observations marked private")
	return cmd
}
