package commands

import (
	"github.com/spf13/cobra"

	"amazon-analyzer/insights"
	"amazon-analyzer/jobs"
	"amazon-analyzer/scraper/amazon"
	"amazon-analyzer/server"
	"amazon-analyzer/services"
)

var serveAddr *string

func init() {
	serveAddr = serveCmd.Flags().String("addr", "", "Address to listen on (default HTTP_ADDR).")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--addr <host:port>]",
	Short: "Serves the scrape and analysis JSON API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()
		if *serveAddr != "" {
			cfg.HTTPAddr = *serveAddr
		}
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}

		// A nil provider disables the insight endpoints.
		var provider server.InsightsProvider
		if cfg.SerperAPIKey != "" {
			provider = insights.NewClient(cfg.SerperAPIKey, cfg.SerperBaseURL, logger)
		} else {
			logger.Warn("[serve] SERPER_API_KEY not set; web insights disabled")
		}

		srv := server.New(cfg, logger, jobs.NewRegistry(), services.NewAnalyzer(logger), amazon.New(cfg, logger), provider)
		return srv.ListenAndServe(cmd.Context())
	},
}
