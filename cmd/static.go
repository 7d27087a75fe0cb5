package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/kozaktomas/skinstric/internal/constants"
	"github.com/kozaktomas/skinstric/internal/fileserver"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var staticCmd = &cobra.Command{
	Use:   "static",
	Short: "Serve a directory of static files for local development",
	Long: `Serve a directory of static files with caching disabled.
"/" maps to index.html, paths containing ".." are rejected and every
response carries no-cache headers so edits show up on reload.`,
	RunE: runStatic,
}

func init() {
	rootCmd.AddCommand(staticCmd)

	staticCmd.Flags().String("dir", ".", "Directory to serve")
	staticCmd.Flags().Int("port", constants.DefaultStaticPort, "Port to listen on")
	staticCmd.Flags().String("host", constants.DefaultStaticHost, "Host to bind to")
}

func runStatic(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer logger.Sync() //nolint:errcheck // best effort flush on exit

	dir := mustGetString(cmd, "dir")
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("static directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("static directory: %s is not a directory", dir)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("Port %d is already in use. Please close the application using it.", port) //nolint:staticcheck // user-facing sentence
		}
		return fmt.Errorf("listening: %w", err)
	}

	handler := middleware.RequestLogger(logger)(fileserver.New(os.DirFS(dir), logger))
	fmt.Fprintf(cmd.OutOrStdout(), "Server running at http://%s:%d/\n", host, port)
	logger.Info("serving static files", zap.String("dir", dir))

	if err := http.Serve(ln, handler); err != nil && !errors.Is(err, http.ErrServerClosed) { //nolint:gosec // local development server
		return err
	}
	return nil
}
