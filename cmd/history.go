package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iksnae/askdata/internal"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <archive.db> [transcript-id]",
	Short: "Browse transcripts saved to a SQLite archive",
	Long: `Browse transcripts previously exported with --export archive.db or
/export archive.db. Without an ID, lists every transcript in the archive;
with an ID (or a unique prefix), prints that conversation.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := internal.OpenArchive(args[0])
		if err != nil {
			return err
		}
		defer func() {
			if cerr := archive.Close(); cerr != nil {
				internal.LogWarn("Failed to close archive: %v", cerr)
			}
		}()

		out := cmd.OutOrStdout()
		entries, err := archive.List(cmd.Context())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			displayArchiveEntries(out, entries, time.Now())
			return nil
		}

		id, err := resolveTranscriptID(entries, args[1])
		if err != nil {
			return err
		}
		t, err := archive.Load(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, headerStyle.Render("🗂  "+t.Title()))
		fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("ID: %s • exported %s • %d exchange(s), %d failure(s)",
			t.ID, t.Metadata.ExportedAt, t.Metadata.Exchanges, t.Metadata.Failures)))
		fmt.Fprintln(out)
		renderDataset(out, t.Dataset)
		fmt.Fprintln(out)
		renderConversation(out, t.Messages, nil)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func displayArchiveEntries(w io.Writer, entries []internal.ArchiveEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, headerStyle.Render("📋 No transcripts found"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📋 Found %d transcript(s)", len(entries))))
	fmt.Fprintln(w)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(metaStyle).
		Headers("ID", "Dataset", "Messages", "Exported").
		StyleFunc(tableStyle)
	for _, e := range entries {
		t.Row(
			idStyle.Render(shortID(e.ID)),
			truncate(e.Title, 50),
			countStyle.Render(strconv.Itoa(e.MessageCount)),
			dateStyle.Render(relativeTime(e.ExportedAt, now)),
		)
	}
	fmt.Fprintln(w, t.Render())
}

// resolveTranscriptID accepts a full ID or an unambiguous prefix
func resolveTranscriptID(entries []internal.ArchiveEntry, want string) (string, error) {
	var matches []string
	for _, e := range entries {
		if e.ID == want {
			return e.ID, nil
		}
		if len(want) >= 4 && len(e.ID) > len(want) && e.ID[:len(want)] == want {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", internal.ErrTranscriptNotFound, want)
	case 1:
		return matches[0], nil
	default:
		return "", errors.New("ambiguous transcript ID prefix " + want + ", use more characters")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func relativeTime(stamp string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		if stamp == "" {
			return "—"
		}
		return stamp
	}
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}
