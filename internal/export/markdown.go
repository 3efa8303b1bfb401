package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/askdata/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *internal.Transcript, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# %s\n\n", t.Title())

	if ds := t.Dataset; ds != nil {
		_, _ = fmt.Fprintf(w, "**Dataset:** %s  \n", ds.ID)
		_, _ = fmt.Fprintf(w, "**Shape:** %d rows × %d cols  \n", ds.Schema.NRows, ds.Schema.NCols)
	}
	_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", t.Metadata.ExportedAt)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(t.Messages))

	if ds := t.Dataset; ds != nil && len(ds.Schema.Columns) > 0 {
		_, _ = fmt.Fprintf(w, "## Columns\n\n")
		_, _ = fmt.Fprintf(w, "| name | type |\n| --- | --- |\n")
		for _, c := range ds.Schema.Columns {
			_, _ = fmt.Fprintf(w, "| %s | %s |\n", escapeCell(c.Name), escapeCell(c.InferredType))
		}
		_, _ = fmt.Fprintln(w)
		for _, note := range ds.Notes {
			_, _ = fmt.Fprintf(w, "> %s\n\n", note)
		}
	}

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range t.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.UTC().Format(time.RFC3339))
		}
		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n", msg.Role, timestamp)

		writeEntryBody(w, msg)

		// Add horizontal rule after each message (except the last one)
		if i < len(t.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func writeEntryBody(w io.Writer, msg internal.MessageEntry) {
	if msg.Text != nil {
		_, _ = fmt.Fprintf(w, "%s\n\n", escapeMarkdown(*msg.Text))
	}
	if code := msg.CodeValue(); code != "" {
		_, _ = fmt.Fprintf(w, "```python\n%s\n```\n\n", strings.TrimRight(code, "\n"))
	}
	if len(msg.Table) > 0 {
		writeTable(w, msg.TableColumns(), msg.Table)
	}
	if msg.HasStderr() {
		_, _ = fmt.Fprintf(w, "<details><summary>stderr</summary>\n\n```\n%s\n```\n\n</details>\n\n", strings.TrimRight(msg.StderrValue(), "\n"))
	}
	for i, chart := range msg.Charts {
		_, _ = fmt.Fprintf(w, "![chart-%d](%s)\n\n", i, chart)
	}
}

func writeTable(w io.Writer, cols []string, rows []internal.Row) {
	if len(cols) == 0 {
		return
	}
	escaped := make([]string, len(cols))
	for i, c := range cols {
		escaped[i] = escapeCell(c)
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
	_, _ = fmt.Fprintf(w, "|%s\n", strings.Repeat(" --- |", len(cols)))
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = escapeCell(r.Cell(c))
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	_, _ = fmt.Fprintln(w)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			// Escape markdown syntax outside code blocks
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
