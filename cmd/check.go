package cmd

import (
	"fmt"

	"github.com/iksnae/askdata/internal"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Check files against the upload limits without sending them",
	Long: fmt.Sprintf(`Check that each file would be accepted for upload:
  • size at most %d bytes (10 MB)
  • name ends in .csv or .xlsx (any case)

Nothing is sent to the backend.`, internal.MaxUploadBytes),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			h, err := internal.OpenLocalFile(path)
			if err != nil {
				internal.PrintError(out, err.Error())
				failed++
				continue
			}
			if _, err := internal.Validate(h); err != nil {
				internal.PrintError(out, fmt.Sprintf("%s: %s", h.Name(), internal.UserMessage(err)))
				internal.LogDebug("%v", err)
				failed++
				continue
			}
			internal.PrintSuccess(out, fmt.Sprintf("%s: ok (%d bytes)", h.Name(), h.Size()))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) would be rejected", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
