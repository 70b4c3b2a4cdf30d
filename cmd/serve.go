package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"csv-insights/agent"
	"csv-insights/config"
	"csv-insights/dataset"
	"csv-insights/gemini"
	"csv-insights/llmclient"
	"csv-insights/responder"
	"csv-insights/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer config.Cleanup()

		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set; chat and ask pages will report that the model is not configured")
		}

		if cfg.WriteSampleCSV && cfg.SampleCSVPath != "" {
			if err := dataset.WriteSampleCSV(cfg.SampleCSVPath); err != nil {
				logger.Warn("Failed to write sample dataset", zap.Error(err))
			} else {
				logger.Info("Sample dataset written", zap.String("path", cfg.SampleCSVPath))
			}
		}

		chatResponder := responder.New(gemini.New(cfg, logger), cfg.GraphSummaryFile, logger)
		qaAgent := agent.NewAgent(cfg, llmclient.New(cfg, logger), logger)

		webServer, err := web.NewServer(cfg, logger, chatResponder, qaAgent)
		if err != nil {
			return fmt.Errorf("failed to create web server: %w", err)
		}

		// Create context that listens for interrupt signals
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if cfg.CleanupEnabled {
			go webServer.Cleanup().StartSessionCleanup(ctx, cfg.CleanupInterval, cfg.SessionRetentionAge)
		}

		port := fmt.Sprintf(":%d", cfg.WebPort)
		logger.Info("Starting CSV Insights web server", zap.String("port", port))
		return webServer.Start(ctx, port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
