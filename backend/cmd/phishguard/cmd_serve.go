package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/blackrose-blackhat/phishguard/backend/internal/api"
	"github.com/blackrose-blackhat/phishguard/backend/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis API",
	Long: `Starts the HTTP API (POST /analyze-url, /analyze-email, /api/analyze).
Audit entries are written as JSON lines to AUDIT_LOG_FILE, or stdout when
unset; operational logs go to stderr. SIGINT/SIGTERM shut down gracefully.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Println("[INFO] Configuration loaded")

	st, err := buildStack(cfg, logger, true)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := api.Options{
		Analyzer:       analyzer.NewEngine(),
		Chain:          st.chain,
		Cache:          st.cache,
		Audit:          st.audit,
		Policy:         st.policy,
		Logger:         logger,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		AllowOrigin:    cfg.Server.CORSAllowOrigin,
		Debug:          cfg.Debug(),
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		opts.MetricsPath = cfg.Metrics.Endpoint
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewServer(opts).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	servers := []*http.Server{srv}

	if cfg.Metrics.Enabled && cfg.Metrics.Port != 0 {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Endpoint, promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		s := s
		g.Go(func() error {
			logger.Printf("[INFO] Listening on http://%s", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", s.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Println("[INFO] Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	logger.Println("=================================")
	logger.Printf("PhishGuard %s", version)
	logger.Printf("Policy:  %s (v%s)", policyLabel(cfg.Policy.Path), st.policy.PolicyVersion())
	logger.Printf("Cache:   %v", cfg.Cache.Enabled)
	logger.Printf("Metrics: %v", cfg.Metrics.Enabled)
	logger.Println("=================================")

	return g.Wait()
}

func policyLabel(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
