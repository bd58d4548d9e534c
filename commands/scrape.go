package commands

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"amazon-analyzer/jobs"
	"amazon-analyzer/scraper/amazon"
	"amazon-analyzer/services"
	"amazon-analyzer/storage"
)

var scrapePages *int

func init() {
	scrapePages = scrapeCmd.Flags().IntP("pages", "p", 0, "Number of search result pages to scrape (default DEFAULT_SEARCH_PAGES).")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <search term> [--pages <n>]",
	Short: "Scrapes search results into a CSV, analyzes them and prints a report.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}

		pages := *scrapePages
		if pages <= 0 {
			pages = cfg.DefaultSearchPage
		}

		id := jobs.NewJobID(args[0], time.Now())
		logger.Info("=== Scraping %q (%d pages) as %s ===", args[0], pages, id)

		t1 := time.Now()
		records, err := amazon.New(cfg, logger).Scrape(cmd.Context(), args[0], pages, logProgress(logger, "scrape"))
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return errors.New("no products were scraped")
		}
		logger.Info("Scraped %d raw products in %.1fs", len(records), time.Since(t1).Seconds())

		dataFile := filepath.Join(cfg.RawDataDir, id+"_data.csv")
		w, err := storage.NewCSVWriter(dataFile)
		if err != nil {
			return err
		}
		writeErr := w.WriteRaw(records)
		if err := errors.Join(writeErr, w.Close()); err != nil {
			return err
		}
		logger.Info("Raw products saved to %s", dataFile)

		resultFile := filepath.Join(cfg.ProcessedDataDir, id+"_analysis.json")
		result, err := services.NewAnalyzer(logger).AnalyzeFile(dataFile, resultFile, logProgress(logger, "analyze"))
		if err != nil {
			return err
		}
		logger.Info("Analysis saved to %s", resultFile)

		services.PrintReport(cmd.OutOrStdout(), result)
		return nil
	},
}
