package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var saveTo string

func init() {
	configCmd.Flags().StringVar(&saveTo, "save", "", "Write the effective configuration to this file")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [--save <path>]",
	Short: "Shows the effective configuration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if saveTo != "" {
			if err := cfg.SaveConfig(saveTo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", saveTo)
			return nil
		}

		w := cmd.OutOrStdout()
		if output == "json" {
			redacted := *cfg
			redacted.Database.SupabaseKey = maskString(cfg.Database.SupabaseKey)
			redacted.Database.PostgresURL = maskString(cfg.Database.PostgresURL)
			redacted.Contacts.APIKey = maskString(cfg.Contacts.APIKey)
			redacted.Headless.Password = maskString(cfg.Headless.Password)
			return writeJSON(w, redacted)
		}

		fmt.Fprintln(w, "Current Configuration:")
		fmt.Fprintf(w, "Site: %s (%s)\n", cfg.Scraper.SiteName, cfg.Scraper.BaseURL)
		fmt.Fprintf(w, "Sink: %s\n", cfg.Database.Driver)
		fmt.Fprintf(w, "Database URL: %s\n", maskString(cfg.Database.SupabaseURL))
		fmt.Fprintf(w, "Database Key: %s\n", maskString(cfg.Database.SupabaseKey))
		fmt.Fprintf(w, "Pipeline Deadline: %v\n", cfg.Pipeline.Deadline)
		fmt.Fprintf(w, "Pipeline Mode: %s\n", cfg.Pipeline.Mode)
		fmt.Fprintf(w, "Default Cascade: %v\n", cfg.Pipeline.DefaultCascade)
		fmt.Fprintf(w, "Relay Endpoints: %d\n", len(cfg.Relay.Endpoints))
		fmt.Fprintf(w, "Headless Enabled: %t\n", cfg.Headless.Enabled)
		fmt.Fprintf(w, "Contact Lookup Key: %s\n", maskString(cfg.Contacts.APIKey))
		fmt.Fprintf(w, "Batch Schedule: %s\n", cfg.Batch.Schedule)
		fmt.Fprintf(w, "Batch Locations: %d\n", len(cfg.Batch.Locations))
		return nil
	},
}
