package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/askdata/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckShowConfig bool
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the backend is configured and reachable",
	Long: `Check the health of the askdata setup by verifying:
  • Configuration (flags, environment, .env and config file)
  • Chart directory, if one is configured
  • Backend reachability

This command is useful for debugging connection issues before uploading data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 askdata Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if healthcheckShowConfig || verbose {
			fmt.Fprintf(out, "   API base: %s\n", cfg.APIBase)
			fmt.Fprintf(out, "   Timeout: %s\n", cfg.Timeout)
			fmt.Fprintf(out, "   Log level: %s\n", internal.ParseLogLevel(cfg.LogLevel))
			if cfg.ChartDir != "" {
				fmt.Fprintf(out, "   Chart dir: %s\n", cfg.ChartDir)
			}
		}
		fmt.Fprintln(out)

		// Step 2: Chart directory
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking chart directory..."))
		chartsOK := true
		switch {
		case cfg.ChartDir == "":
			fmt.Fprintln(out, metaStyle.Render("   Not configured (charts are shown as links)"))
		default:
			info, err := os.Stat(cfg.ChartDir)
			switch {
			case os.IsNotExist(err):
				fmt.Fprintln(out, warningStyle.Render("⚠️  Chart directory does not exist yet; it will be created on first save"))
			case err != nil:
				chartsOK = false
				fmt.Fprintln(out, errorStyle.Render("❌ Cannot access chart directory:"), err)
			case !info.IsDir():
				chartsOK = false
				fmt.Fprintln(out, errorStyle.Render("❌ Chart path is not a directory:"), cfg.ChartDir)
			default:
				fmt.Fprintln(out, successStyle.Render("✅ Chart directory ready"))
			}
		}
		fmt.Fprintln(out)

		// Step 3: Backend
		fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting backend..."))
		client, err := cfg.NewClient()
		if err != nil {
			return err
		}
		status, err := client.Probe(cmd.Context())
		reachable := err == nil
		switch {
		case err != nil:
			fmt.Fprintln(out, errorStyle.Render("❌ Backend unreachable:"), internal.UserMessage(err))
		case status >= 500:
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  Backend reachable but answered HTTP %d", status)))
		default:
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Backend reachable (HTTP %d)", status)))
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if reachable && chartsOK {
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			fmt.Fprintln(out, successStyle.Render("   • Backend: "+client.BaseURL()))
			return nil
		}
		fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
		if !reachable {
			fmt.Fprintln(out, "   • Is the backend running at "+client.BaseURL()+"?")
			fmt.Fprintln(out, "   • Set --api-base or ASKDATA_API_BASE to point elsewhere")
		}
		return fmt.Errorf("health check failed")
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckShowConfig, "show-config", false, "Print the effective configuration")
}
