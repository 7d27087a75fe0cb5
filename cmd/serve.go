package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"github.com/kozaktomas/skinstric/internal/config"
	"github.com/kozaktomas/skinstric/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Skinstric web server.
The server renders the onboarding pages, forwards captured images to the
Phase Two analysis service and keeps each visitor's state in the configured
storage backend (STORAGE_BACKEND=memory|postgres|redis|sqlite).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil {
			port = p
		}
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger(cmd, cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync() //nolint:errcheck // best effort flush on exit

	if cfg.Analysis.URL == "" {
		return errors.New("ANALYSIS_URL environment variable is required")
	}
	client, err := analysis.NewClient(cfg.Analysis.URL, analysis.WithTimeout(cfg.Analysis.Timeout))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, sessionRepo, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	port, host, sessionSecret := resolveServeHostPort(cmd)
	if sessionSecret == "" {
		logger.Warn("WEB_SESSION_SECRET is not set; using the development secret")
	}

	server, err := web.NewServer(cfg, web.Options{
		Port:          port,
		Host:          host,
		SessionSecret: sessionSecret,
		SessionRepo:   sessionRepo,
		Store:         store,
		Analyzer:      client,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}()

	logger.Info("Skinstric is ready",
		zap.String("url", fmt.Sprintf("http://%s:%d", host, port)),
		zap.String("analysis_endpoint", client.Endpoint()),
		zap.String("storage", cfg.Storage.Backend),
	)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
