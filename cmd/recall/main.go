// recall: session memory for AI coding assistants.
//
// Usage:
//
//	recall serve                        # MCP server on stdio
//	recall capture <transcript.jsonl>   # classify a transcript into the active session
//	recall session start|end            # manage sessions from hooks
//	recall export                       # JSON dump of sessions and observations
//	recall config show                  # effective configuration
//	recall version
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/recall/internal/config"
	recallserver "github.com/HendryAvila/recall/internal/server"
)

var (
	dataDir  string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "recall",
		Short:         "Session memory for AI coding assistants",
		Long:          "recall turns assistant transcripts into searchable observations: edits, decisions, test runs, commits and failed attempts.",
		Version:       recallserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding memory.db (default: $RECALL_DATA_DIR or ~/.recall)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(captureCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("recall failed")
		os.Exit(1)
	}
}

// loadConfig applies flag overrides on top of the merged configuration and
// points the global logger at stderr. Stdout belongs to the MCP transport
// and to command output.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lvl, _ := cfg.Level()
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return cfg, nil
}

func init() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
