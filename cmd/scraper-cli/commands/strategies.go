package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"job-pipeline-go/internal/app"
)

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "Lists the acquisition methods the pipeline accepts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		methods := app.NewPipeline(cfg, logger).Methods()

		w := cmd.OutOrStdout()
		if output == "json" {
			return writeJSON(w, map[string]any{
				"methods":         methods,
				"default_cascade": cfg.Pipeline.DefaultCascade,
				"mode":            cfg.Pipeline.Mode,
			})
		}
		fmt.Fprintf(w, "Default cascade (%s): %v\n", cfg.Pipeline.Mode, cfg.Pipeline.DefaultCascade)

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Method"})
		for _, m := range methods {
			t.AppendRow(table.Row{m})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
