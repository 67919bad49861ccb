// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/arxiv-engine/internal/secrets"
	"github.com/pdiddy/arxiv-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the author and daily-papers HTTP API",
	Long: `Serve starts an HTTP server with two endpoints:

  POST /papers/by-author  {"author_id": "Bengio", "max_results": 20}
  POST /papers/daily      {"categories": ["cs.AI", "cs.LG"]}

Both reply with {"success", "papers", "total", "error"}. /healthz and
/metrics (Prometheus) are also served. When an API key is configured
(--api-key, server.api_key, or .secrets/server-api-key) the /papers
endpoints require it in the X-API-Key header.

All requests share one arXiv client, so the politeness delay holds across
concurrent callers.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("api-key", "", "require this key in X-API-Key")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("server.api_key", serveCmd.Flags().Lookup("api-key"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srvCfg := cfg.Server
	srvCfg.APIKey = loadedSecrets.Get(secrets.ServerAPIKey, srvCfg.APIKey)

	api := server.New(newSearchClient(), srvCfg, logger.Named("server"))
	httpSrv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srvCfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srvCfg.Addr, err)
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		logger.Info("serving",
			zap.String("addr", ln.Addr().String()),
			zap.Bool("api_key", srvCfg.APIKey != ""),
		)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
