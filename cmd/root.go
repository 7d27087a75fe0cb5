package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/skinstric/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "skinstric",
	Short: "Skinstric onboarding and A.I. demographics server",
	Long: `Skinstric guides a visitor through a short onboarding flow (name, city,
camera or gallery permissions, a photo or selfie) and shows the race, age
and gender estimates returned by the Phase Two analysis service.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL or info)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console or json (default from LOG_FORMAT or console)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger builds the logger from flags, falling back to LOG_LEVEL and LOG_FORMAT.
func newLogger(cmd *cobra.Command, level, format string) *zap.Logger {
	if v := mustGetString(cmd, "log-level"); v != "" {
		level = v
	}
	if v := mustGetString(cmd, "log-format"); v != "" {
		format = v
	}
	return logging.New(level, format)
}
