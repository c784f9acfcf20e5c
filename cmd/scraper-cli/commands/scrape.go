package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"job-pipeline-go/internal/app"
	"job-pipeline-go/internal/models"
	"job-pipeline-go/internal/scraper"
)

var scrapeOpts struct {
	keywords string
	location string
	geoID    string
	page     int
	method   string
	save     bool
}

func init() {
	flags := scrapeCmd.Flags()
	flags.StringVarP(&scrapeOpts.keywords, "keywords", "k", "", "Search keywords")
	flags.StringVarP(&scrapeOpts.location, "location", "l", "", "Search location")
	flags.StringVar(&scrapeOpts.geoID, "geo", "", "Region code of the location")
	flags.IntVar(&scrapeOpts.page, "page", 0, "Zero-based results page")
	flags.StringVarP(&scrapeOpts.method, "method", "m", scraper.DefaultMethod, "Acquisition method (see the strategies command)")
	flags.BoolVar(&scrapeOpts.save, "save", false, "Store the records in the configured sink")
	_ = scrapeCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --keywords <text> [--location <name>] [--method <name>]",
	Short: "Runs one pipeline query and prints the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		ctx := cmd.Context()

		pipeline := app.NewPipeline(cfg, logger)
		result, err := pipeline.Run(ctx, models.Query{
			Keywords:   scrapeOpts.keywords,
			Location:   scrapeOpts.location,
			RegionCode: scrapeOpts.geoID,
			PageNumber: scrapeOpts.page,
		}, scrapeOpts.method)
		if err != nil {
			return err
		}

		if scrapeOpts.save && len(result.Records) > 0 {
			store, closeStore, err := app.OpenStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := store.UpsertJobs(ctx, result.Records)
			if err != nil {
				return fmt.Errorf("store jobs: %w", err)
			}
			logger.InfoContext(ctx, "stored jobs", "inserted", res.Inserted, "duplicates", res.Duplicates)
		}

		if output == "json" {
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else {
			printResult(cmd.OutOrStdout(), result)
		}
		return result.Err()
	},
}

func printResult(w io.Writer, result *scraper.Result) {
	fmt.Fprintf(w, "Run %s: %s via %q, %d records (discarded %d, duplicates %d) in %dms\n",
		result.RunID, result.Outcome, result.Diagnostic.StrategyUsed, len(result.Records),
		result.Diagnostic.DiscardedCount, result.Diagnostic.Duplicates, result.Diagnostic.ElapsedMs)

	attempts := table.NewWriter()
	attempts.SetOutputMirror(w)
	attempts.AppendHeader(table.Row{"Strategy", "Status", "Tries", "Records", "Elapsed", "Error"})
	for _, a := range result.Diagnostic.Attempts {
		status := "ok"
		if a.Kind != "" {
			status = string(a.Kind)
		}
		attempts.AppendRow(table.Row{a.Strategy, status, a.Tries, a.Records, a.Elapsed.Round(time.Millisecond), a.Err})
	}
	attempts.SetStyle(table.StyleRounded)
	attempts.Render()

	if len(result.Records) == 0 {
		return
	}

	jobs := table.NewWriter()
	jobs.SetOutputMirror(w)
	jobs.AppendHeader(table.Row{"Title", "Company", "Location", "Posted", "URL"})
	for _, job := range result.Records {
		jobs.AppendRow(table.Row{job.Title, job.Company, job.Location, job.PostedAt.Format("2006-01-02"), job.URL})
	}
	jobs.SetStyle(table.StyleRounded)
	jobs.Render()
}
