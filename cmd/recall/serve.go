package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	recallserver "github.com/HendryAvila/recall/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := recallserver.New(cfg)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			log.Info().Str("data_dir", cfg.DataDir).Str("version", recallserver.Version).Msg("serving on stdio")
			return server.ServeStdio(s)
		},
	}
}
