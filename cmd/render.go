package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iksnae/askdata/internal"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	datasetHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	botMessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)

	codeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			MarginLeft(2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// maxRenderedRows caps how many table rows are drawn in the terminal
const maxRenderedRows = 50

// renderDataset prints the dataset header, notes, column types and preview
func renderDataset(w io.Writer, ds *internal.DatasetSession) {
	if ds == nil {
		fmt.Fprintln(w, metaStyle.Render("No dataset loaded. Upload a .csv or .xlsx file first."))
		return
	}

	title := ds.Filename
	if title == "" {
		title = ds.ID
	}
	fmt.Fprintln(w, datasetHeaderStyle.Render("📊 "+title))
	fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("Dataset: %s • %d rows • %d cols", ds.ID, ds.Schema.NRows, ds.Schema.NCols)))
	fmt.Fprintln(w)

	if len(ds.Notes) > 0 {
		for _, note := range ds.Notes {
			fmt.Fprintln(w, warningStyle.Render("⚠ ")+note)
		}
		fmt.Fprintln(w)
	}

	if len(ds.Schema.Columns) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Detected column types"))
		badges := make([]string, 0, len(ds.Schema.Columns))
		for _, c := range ds.Schema.Columns {
			badges = append(badges, badgeStyle.Render(fmt.Sprintf("%s: %s", c.Name, c.InferredType)))
		}
		fmt.Fprintln(w, strings.Join(badges, " "))
		fmt.Fprintln(w)
	}

	if len(ds.Preview) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Preview (first %d rows)", len(ds.Preview))))
		fmt.Fprintln(w, renderTable(ds.PreviewColumns(), ds.Preview))
	}
}

// renderColumnDetails prints the extra per-column statistics the backend sends
func renderColumnDetails(w io.Writer, ds *internal.DatasetSession) {
	if ds == nil || len(ds.Schema.Columns) == 0 {
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(metaStyle).
		Headers("column", "type", "dtype", "non-null", "samples").
		StyleFunc(tableStyle)
	for _, c := range ds.Schema.Columns {
		ratio := ""
		if c.NonNullRatio != nil {
			ratio = fmt.Sprintf("%.0f%%", *c.NonNullRatio*100)
		}
		samples := make([]string, 0, len(c.SampleValues))
		for _, v := range c.SampleValues {
			samples = append(samples, internal.FormatValue(v))
		}
		t.Row(c.Name, c.InferredType, c.DType, ratio, truncate(strings.Join(samples, ", "), 40))
	}
	fmt.Fprintln(w, sectionStyle.Render("Column details"))
	fmt.Fprintln(w, t.Render())
}

// renderEntry prints one conversation entry. Every optional part is drawn
// only when present, so any combination of fields renders.
func renderEntry(w io.Writer, index, total int, entry internal.MessageEntry, charts func(string) string) {
	var header string
	switch entry.Role {
	case internal.RoleUser:
		header = userMessageStyle.Render("👤 You")
	default:
		header = botMessageStyle.Render("🤖 Bot")
	}
	header += " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if !entry.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(entry.Timestamp.Format("15:04:05"))
	}
	fmt.Fprintln(w, header)

	if text := strings.TrimSpace(entry.TextValue()); text != "" {
		if entry.IsError() {
			fmt.Fprintln(w, messageContentStyle.Render(errorStyle.Render(text)))
		} else {
			fmt.Fprintln(w, messageContentStyle.Render(wrapText(text, 100)))
		}
	}

	if code := strings.TrimRight(entry.CodeValue(), "\n"); code != "" {
		fmt.Fprintln(w, codeStyle.Render(code))
	}

	if len(entry.Table) > 0 {
		rows := entry.Table
		if len(rows) > maxRenderedRows {
			rows = rows[:maxRenderedRows]
		}
		fmt.Fprintln(w, renderTable(entry.TableColumns(), rows))
		if len(entry.Table) > maxRenderedRows {
			fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("  ... (%d more row(s))", len(entry.Table)-maxRenderedRows)))
		}
	}

	if entry.HasStderr() {
		fmt.Fprintln(w, messageContentStyle.Render(metaStyle.Render("stderr:")))
		fmt.Fprintln(w, messageContentStyle.Render(metaStyle.Render(strings.TrimRight(entry.StderrValue(), "\n"))))
	}

	for i, ref := range entry.Charts {
		shown := ref
		if charts != nil {
			shown = charts(ref)
		}
		fmt.Fprintln(w, messageContentStyle.Render(infoStyle.Render(fmt.Sprintf("📈 chart-%d: %s", i, shown))))
	}
	fmt.Fprintln(w)
}

// renderConversation prints every entry in order
func renderConversation(w io.Writer, entries []internal.MessageEntry, charts func(string) string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, metaStyle.Render("(no messages yet)"))
		return
	}
	for i, e := range entries {
		renderEntry(w, i+1, len(entries), e, charts)
	}
}

func renderTable(cols []string, rows []internal.Row) string {
	if len(cols) == 0 {
		return ""
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(metaStyle).
		Headers(cols...).
		StyleFunc(tableStyle)
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = truncate(r.Cell(c), 40)
		}
		t.Row(cells...)
	}
	return t.Render()
}

func tableStyle(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return tableHeaderStyle
	}
	return tableCellStyle
}

// chartResolver shows charts as absolute URLs against the configured backend
func chartResolver(base string) func(string) string {
	return func(ref string) string {
		if strings.HasPrefix(strings.ToLower(ref), "data:") {
			return "(embedded image)"
		}
		resolved, err := internal.ResolveChartURL(base, ref)
		if err != nil {
			return ref
		}
		return resolved
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// wrapText wraps text to the specified width
func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var result []string

	for _, line := range lines {
		if len(line) <= width {
			result = append(result, line)
			continue
		}

		words := strings.Fields(line)
		var currentLine strings.Builder
		for _, word := range words {
			if currentLine.Len() > 0 && currentLine.Len()+len(word)+1 > width {
				result = append(result, currentLine.String())
				currentLine.Reset()
			}
			if currentLine.Len() > 0 {
				currentLine.WriteString(" ")
			}
			currentLine.WriteString(word)
		}
		if currentLine.Len() > 0 {
			result = append(result, currentLine.String())
		}
	}

	return strings.Join(result, "\n")
}
