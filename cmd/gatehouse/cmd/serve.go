package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehousehq/gatehouse/internal/adapter/inbound/rpc"
	"github.com/gatehousehq/gatehouse/internal/config"
	"github.com/gatehousehq/gatehouse/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Gatehouse RPC server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop() // restore default: next Ctrl+C is an immediate exit
	}()

	storage, err := config.OpenBackend(cfg.Backend, logger)
	if err != nil {
		logger.Error("failed to connect storage backend", "backend", cfg.Backend, "error", err)
		return fmt.Errorf("open backend %q: %w", cfg.Backend, err)
	}
	if closer, ok := storage.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ds := service.New(storage, logger)
	if err := ds.Load(ctx); err != nil {
		logger.Error("failed to load policy graph", "error", err)
		return fmt.Errorf("load policy graph: %w", err)
	}
	ds.Run(ctx)
	defer ds.Wait()

	if cfg.SeedFile != "" {
		if err := seedFromFile(ctx, ds, cfg.SeedFile, logger); err != nil {
			logger.Error("failed to apply seed file", "path", cfg.SeedFile, "error", err)
			return fmt.Errorf("apply seed file: %w", err)
		}
	}

	metrics := rpc.NewMetrics(prometheus.DefaultRegisterer)
	server := rpc.NewServer(ds, metrics, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Handler(),
	}

	printBanner(Version, cfg.Addr, cfg.Backend)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "backend", cfg.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("listen failed", "error", err)
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// gracefulSignals returns the OS signals that trigger a graceful shutdown.
func gracefulSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printBanner(version, addr, backend string) {
	const (
		reset = "\033[0m"
		bold  = "\033[1m"
		cyan  = "\033[36m"
		dim   = "\033[2m"
	)
	fmt.Printf("%s%sgatehouse%s %s%s%s\n", bold, cyan, reset, dim, version, reset)
	fmt.Printf("  listening:  %s\n", addr)
	fmt.Printf("  backend:    %s\n", backend)
}
