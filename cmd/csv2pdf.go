package cmd

import (
	"fmt"

	"csv-insights/config"
	"csv-insights/export"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var csv2pdfCmd = &cobra.Command{
	Use:   "csv2pdf <in.csv> <out.pdf>",
	Short: "Write each CSV row as a line of text in a PDF",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer config.Cleanup()

		exporter := export.New(logger)
		if !exporter.Export(args[0], args[1]) {
			return fmt.Errorf("export of %s failed", args[0])
		}

		info, err := exporter.Inspect(args[1])
		if err != nil {
			logger.Warn("Could not read back the PDF", zap.Error(err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d page(s), %d characters\n", args[1], info.Pages, info.Characters)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(csv2pdfCmd)
}
