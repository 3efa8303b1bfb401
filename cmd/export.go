package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/askdata/internal"
	"github.com/iksnae/askdata/internal/export"
	"github.com/spf13/cobra"
)

var (
	format       string
	outputDir    string
	transcriptID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <archive.db>",
	Short: "Export archived transcripts to files",
	Long: `Export transcripts stored in a SQLite archive to various formats
(jsonl, md, yaml, json). Each transcript is written to its own file.

You can export all transcripts or a specific one by ID.
Use 'askdata history <archive.db>' to see available transcript IDs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Create exporter first so a bad format fails before touching disk
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		archive, err := internal.OpenArchive(args[0])
		if err != nil {
			return err
		}
		defer func() {
			if cerr := archive.Close(); cerr != nil {
				internal.LogWarn("Failed to close archive: %v", cerr)
			}
		}()

		ctx := cmd.Context()
		entries, err := archive.List(ctx)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(entries))
		if transcriptID != "" {
			id, err := resolveTranscriptID(entries, transcriptID)
			if err != nil {
				return fmt.Errorf("%w (use 'askdata history %s' to see available transcripts)", err, args[0])
			}
			ids = append(ids, id)
		} else {
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
		}

		// Ensure output directory exists
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d transcript(s) to %s", len(ids), outputDir), func(ctx context.Context) error {
			for _, id := range ids {
				t, err := archive.Load(ctx, id)
				if err != nil {
					internal.LogError("Failed to load transcript %s: %v", id, err)
					continue
				}
				path := filepath.Join(outputDir, fmt.Sprintf("transcript_%s.%s", t.ID, exporter.Extension()))

				file, err := os.Create(path)
				if err != nil {
					internal.LogError("Failed to create file %s: %v", path, err)
					continue
				}
				if err := exporter.Export(t, file); err != nil {
					_ = file.Close()
					internal.LogError("Failed to export transcript %s: %v", t.ID, err)
					continue
				}
				if err := file.Close(); err != nil {
					internal.LogWarn("Failed to close file %s: %v", path, err)
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d transcript(s) exported to %s", exported, outputDir))
		if exported < len(ids) {
			return fmt.Errorf("%d transcript(s) could not be exported", len(ids)-exported)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&transcriptID, "id", "", "Export a specific transcript by ID or prefix")
}
