package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiv1 "github.com/Jewsh1r/kanban-api/internal/api/v1"
	"github.com/Jewsh1r/kanban-api/internal/auth"
	"github.com/Jewsh1r/kanban-api/internal/config"
	"github.com/Jewsh1r/kanban-api/internal/db"
	"github.com/Jewsh1r/kanban-api/internal/ingest"
	"github.com/Jewsh1r/kanban-api/internal/store"
	"github.com/Jewsh1r/kanban-api/internal/yougile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kanban API server",
	Long: `Start the kanban API server to serve organizational directory data.

The server requires a configuration file (--config) that specifies:
- Database connection parameters
- YouGile API source and credentials
- Sync interval and API authentication settings

See examples/ directory for a sample configuration.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	serverRequestTimeout   = 10 * time.Second // Directory API should respond quickly
	serverReadTimeout      = 10 * time.Second // Enough for headers and small requests
	serverWriteTimeout     = 15 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.GetAddress()
	}
	slog.Info("Starting kanban API server", "address", address, "config", configPath)

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	st, err := store.New(pool)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	// Start background ingestion coordinator unless disabled
	var coordinator *ingest.Coordinator
	if cfg.Sync.IsEnabled() {
		apiKey, err := cfg.YouGile.GetAPIKey()
		if err != nil {
			return fmt.Errorf("failed to resolve YouGile API key: %w", err)
		}

		source := yougile.NewClient(cfg.YouGile.BaseURL, apiKey, cfg.YouGile.GetRequestTimeout())
		ingestor := ingest.NewIngestor(source, st)
		coordinator = ingest.NewCoordinator(ingestor, cfg.Sync.GetInterval())

		syncCtx, syncCancel := context.WithCancel(context.Background())
		defer syncCancel()
		go func() {
			if err := coordinator.Start(syncCtx); err != nil {
				slog.Error("Ingestion coordinator failed", "error", err)
			}
		}()
		slog.Info("Ingestion coordinator started", "interval", cfg.Sync.GetInterval())
	} else {
		slog.Info("Ingestion disabled by configuration")
	}

	apiToken, err := cfg.Auth.GetToken()
	if err != nil {
		return fmt.Errorf("failed to resolve API token: %w", err)
	}
	authMiddleware, err := auth.NewStaticTokenMiddleware(apiToken)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	router := apiv1.NewServer(st,
		apiv1.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			apiv1.LoggingMiddleware,
		),
	)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Mount("/", apiv1.Router(st))
	})

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		slog.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	if coordinator != nil {
		if err := coordinator.Stop(); err != nil {
			slog.Error("Failed to stop ingestion coordinator", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}
