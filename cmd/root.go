package cmd

import (
	"fmt"
	"os"

	"csv-insights/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "csv-insights",
	Short: "CSV Insights: chart, chat about and question uploaded tables",
	Long: `CSV Insights serves a small web dashboard that turns an uploaded CSV into a bar,
line or scatter chart from a one-line description, a chat page backed by Gemini,
and an ask page where an agent answers questions about the file.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging and gin debug mode")
}

// bootstrap loads the configuration and builds the logger at the configured level.
func bootstrap() (*config.Config, *zap.Logger, error) {
	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg := config.Load(tempLogger, cfgFile)
	if debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to re-initialize logger with configured level: %w", err)
	}
	return cfg, logger, nil
}
