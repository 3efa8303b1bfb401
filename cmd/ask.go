package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/askdata/internal"
	"github.com/spf13/cobra"
)

var (
	askSaveCharts string
	askExport     string
	askFormat     string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <file> <question>...",
	Short: "Upload a dataset and ask one or more questions about it",
	Long: `Upload a dataset, then ask each question in order. Every question gets
exactly one answer: a result, or the error the backend reported.

Examples:
  askdata ask sales.csv "average price by category"
  askdata ask sales.csv "plot revenue over time" --save-charts ./charts
  askdata ask sales.csv "top 5 customers" "bottom 5 customers" --export run.md`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		s, err := newClientSession()
		if err != nil {
			return err
		}
		if _, err := s.upload(ctx, out, cmd.ErrOrStderr(), args[0]); err != nil {
			return err
		}

		failures := 0
		for _, q := range args[1:] {
			entry, err := s.ask(ctx, out, q)
			if err != nil {
				if errors.Is(err, internal.ErrEmptyQuestion) {
					internal.PrintWarning(cmd.ErrOrStderr(), "Skipping empty question")
					continue
				}
				return err
			}
			if entry.IsError() {
				failures++
			}
		}

		chartDir := askSaveCharts
		if chartDir == "" {
			chartDir = cfg.ChartDir
		}
		if chartDir != "" {
			if err := s.saveCharts(ctx, out, chartDir); err != nil {
				internal.PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("Some charts could not be saved: %s", internal.UserMessage(err)))
			}
		}

		if askExport != "" {
			if err := s.exportTo(ctx, out, askExport, askFormat); err != nil {
				return err
			}
		}

		if failures > 0 {
			return fmt.Errorf("%d of %d question(s) failed", failures, len(args)-1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askSaveCharts, "save-charts", "", "Directory to download chart images into (default $ASKDATA_CHART_DIR)")
	askCmd.Flags().StringVar(&askExport, "export", "", "Write the transcript to this file")
	askCmd.Flags().StringVarP(&askFormat, "format", "f", "", "Export format: jsonl, md, yaml, json, sqlite (default: from extension)")
}
