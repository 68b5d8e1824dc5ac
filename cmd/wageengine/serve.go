package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/wage-engine/api"
	"github.com/warp/wage-engine/config"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/store/sqlite"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Startup stores any missing statutory presets and the policy file (when
given and changed), resolves the active policy and refreshes it every
WAGE_POLICY_REFRESH. SIGINT or SIGTERM drains in-flight requests for up
to 30 seconds before exiting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			if dbPath != "" {
				a.cfg.DBPath = dbPath
			}
			return runServe(cmd.Context(), a.cfg, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (or set WAGE_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "", `SQLite database path, ":memory:" for in-memory (or set WAGE_DB_PATH)`)
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	added, err := api.SeedPresets(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to store presets: %w", err)
	}
	for _, p := range added {
		logger.Info("stored statutory preset", zap.String("policy_id", p.ID))
	}

	if cfg.PolicyFile != "" {
		p, err := factory.NewPolicyFactory().LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return err
		}
		version, saved, err := api.SavePolicyIfChanged(ctx, store, p)
		if err != nil {
			return fmt.Errorf("failed to store policy file: %w", err)
		}
		if saved {
			logger.Info("stored policy file", zap.String("policy_id", p.ID), zap.Int("version", version))
		}
		if cfg.PolicyID == "" {
			cfg.PolicyID = p.ID
		}
	}

	active := api.NewActivePolicy(store, factory.PresetFor(time.Now()), logger)
	active.PinnedID = cfg.PolicyID
	if _, err := active.Reload(ctx); err != nil {
		return fmt.Errorf("failed to resolve active policy: %w", err)
	}

	refresher := api.NewPolicyRefresher(active, cfg.PolicyRefresh, logger)
	refresher.Start()
	defer refresher.Stop()

	handler := api.NewHandler(store, active, logger)
	handler.MaxBatchSize = cfg.MaxBatchSize

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", cfg.Addr), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}
