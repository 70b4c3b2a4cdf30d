package cmd

import (
	"fmt"

	"csv-insights/dataset"

	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample [path]",
	Short: "Write the built-in sample dataset",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "sample_dataset.csv"
		if len(args) == 1 {
			path = args[0]
		}
		if err := dataset.WriteSampleCSV(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
