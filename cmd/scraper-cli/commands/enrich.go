package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"job-pipeline-go/internal/app"
)

var enrichCompanies []string

func init() {
	enrichCmd.Flags().StringSliceVar(&enrichCompanies, "company", nil, "Company to enrich (repeatable); defaults to every stored company")
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich [--company <name>]...",
	Short: "Looks up contacts for stored companies and saves them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, closeStore, err := app.OpenStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		enricher, closeEnricher, err := app.NewEnricher(ctx, cfg, store, logger)
		if err != nil {
			return err
		}
		defer closeEnricher()

		report, err := enricher.ProcessCompanies(ctx, enrichCompanies)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if output == "json" {
			return writeJSON(w, report)
		}
		fmt.Fprintln(w, "=== Enrichment Results ===")
		fmt.Fprintf(w, "Companies Processed: %d\n", report.Processed)
		fmt.Fprintf(w, "Contacts Found: %d\n", report.ContactsFound)
		fmt.Fprintf(w, "Elapsed: %v\n", report.Elapsed)
		if len(report.Errors) > 0 {
			fmt.Fprintf(w, "\nSkipped (%d):\n", len(report.Errors))
			for _, msg := range report.Errors {
				fmt.Fprintf(w, "- %s\n", msg)
			}
		}
		return nil
	},
}
