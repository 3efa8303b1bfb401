package cmd

import (
	"github.com/iksnae/askdata/internal"
	"github.com/spf13/cobra"
)

var inspectDetails bool

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Upload a dataset and show its inferred schema and preview",
	Long: `Validate and upload a CSV or XLSX file, then display what the backend
inferred: row and column counts, column types, parsing notes and the first
rows of the data.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newClientSession()
		if err != nil {
			return err
		}

		ds, err := s.upload(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		if err != nil {
			return err
		}

		if inspectDetails {
			renderColumnDetails(cmd.OutOrStdout(), ds)
		}
		internal.LogDebug("Dataset id: %s", ds.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectDetails, "details", false, "Show dtype, non-null ratio and sample values per column")
}
