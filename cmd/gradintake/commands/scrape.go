package commands

import (
	"fmt"
	"log/slog"
	"time"

	"gradintake/lib/scrapers/gradcafe"
	"gradintake/lib/serviceutil"
	"gradintake/services/ingest"

	"github.com/spf13/cobra"
)

var (
	scrapeStart     *int
	scrapePages     *int
	scrapeExhausted *int
	scrapeDataDir   *string
)

func init() {
	scrapeStart = scrapeCmd.Flags().Int("start", 1, "The survey page to start from.")
	scrapePages = scrapeCmd.Flags().Int("pages", 50, "The maximum number of pages to fetch.")
	scrapeExhausted = scrapeCmd.Flags().Int("exhausted-after", 3, "Stop after this many consecutive empty pages.")
	scrapeDataDir = scrapeCmd.Flags().String("data-dir", "", "Directory to write shards to. Overrides the config.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--start <page>] [--pages <count>]",
	Short: "Scrapes survey result pages and appends entries to a new shard.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		dataDir := cfg.DataDir
		if *scrapeDataDir != "" {
			dataDir = *scrapeDataDir
		}

		ctx := cmd.Context()

		client, err := gradcafe.NewClient(ctx, gradcafe.ClientOptions{
			BaseUrl:    cfg.BaseUrl,
			Query:      cfg.Query,
			Delay:      cfg.delay(),
			RetryCount: cfg.RetryCount,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize client", err)
		}

		runner, err := ingest.NewRunner(client, ingest.RunOptions{
			StartPage:      *scrapeStart,
			PageCount:      *scrapePages,
			ExhaustedAfter: *scrapeExhausted,
			DataDir:        dataDir,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize runner", err)
		}

		t1 := time.Now()
		report, err := runner.Run(ctx)
		t2 := time.Now()

		if err != nil {
			serviceutil.Fatal("scrape failed", err)
		}

		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds())
		fmt.Println(report.Render())
	},
}
