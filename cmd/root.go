package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/iksnae/askdata/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	apiBase    string
	timeout    time.Duration
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	cfg *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "askdata",
	Short: "Upload a CSV/XLSX dataset and ask questions about it",
	Long: `A CLI client for the no-code data analysis backend.

Upload a CSV or XLSX file (up to 10 MB), inspect the schema the backend
inferred, then ask questions in plain language. Answers come back as text,
tables, charts and the generated analysis code.

Features:
  • Local file checks before anything is sent
  • Schema and preview rendering
  • One-shot questions or an interactive chat
  • Chart download (relative chart paths resolved against the backend)
  • Transcript export (JSONL, Markdown, YAML, JSON, SQLite archive)

Quick Start:
  askdata inspect sales.csv                       # Upload and show the schema
  askdata ask sales.csv "total revenue by region" # One question
  askdata chat sales.csv                          # Interactive session`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := internal.LoadConfig(configPath, internal.Overrides{APIBase: apiBase, Timeout: timeout})
		if err != nil {
			return err
		}

		internal.SetLogLevel(internal.ParseLogLevel(loaded.LogLevel))
		if verbose {
			internal.SetVerbose(true)
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportedError marks an error the command already showed inline
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// printError writes err unless it was already reported
func printError(w io.Writer, err error) {
	var reported *reportedError
	if errors.As(err, &reported) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $ASKDATA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "Backend base URL (default $ASKDATA_API_BASE or "+internal.DefaultAPIBase+")")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default $ASKDATA_TIMEOUT or 60s)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
