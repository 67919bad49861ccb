// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-engine CLI: search arXiv,
// download papers, and serve the author and daily-papers API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-engine/internal/config"
	"github.com/pdiddy/arxiv-engine/internal/logging"
	"github.com/pdiddy/arxiv-engine/internal/search"
	"github.com/pdiddy/arxiv-engine/internal/secrets"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// v holds defaults, the config file, the environment and bound flags.
var v = config.New()

// Populated by the root PersistentPreRunE.
var (
	cfg           types.Config
	logger        = zap.NewNop()
	loadedSecrets secrets.Secrets
)

// rootCmd is the base command for the arxiv-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-engine",
	Short: "Polite arXiv search, download, and paper API",
	Long: `arxiv-engine queries the arXiv API with automatic pagination, per-page
retries and a politeness delay between requests. It downloads paper PDFs and
source archives, and serves author and daily-papers endpoints over HTTP.

Configuration is read from ./arxiv-engine.yaml or
~/.config/arxiv-engine/config.yaml, then ARXIV_ENGINE_* environment
variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		loaded, used, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := logging.NewVerbose(cfg.Logging.Development, verbose)
		if err != nil {
			return err
		}
		logger = l
		if used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			logger.Debug("loaded secrets", zap.Strings("names", names))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-engine.yaml or ~/.config/arxiv-engine/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("dev", false, "human-readable development logging")
	_ = v.BindPFlag("logging.development", rootCmd.PersistentFlags().Lookup("dev"))
}

// newSearchClient builds the arXiv client from the loaded configuration.
func newSearchClient() *search.Client {
	return search.NewClient(cfg.Client,
		search.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		search.WithLogger(logger.Named("arxiv")),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
