package commands

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"amazon-analyzer/services"
)

var analyzeOut *string

func init() {
	analyzeOut = analyzeCmd.Flags().StringP("out", "o", "", "Where to write the analysis JSON (default <processed dir>/<name>_analysis.json).")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.csv> [--out <path/to/result.json>]",
	Short: "Analyzes a scraped product CSV and prints a report.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		out := *analyzeOut
		if out == "" {
			stem := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			out = filepath.Join(cfg.ProcessedDataDir, strings.TrimSuffix(stem, "_data")+"_analysis.json")
		}

		result, err := services.NewAnalyzer(logger).AnalyzeFile(args[0], out, logProgress(logger, "analyze"))
		if err != nil {
			return err
		}
		logger.Info("Analysis saved to %s", out)

		services.PrintReport(cmd.OutOrStdout(), result)
		return nil
	},
}
