package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/askdata/internal"
)

// Exporter defines the interface for all stream export formats
type Exporter interface {
	Export(t *internal.Transcript, w io.Writer) error
	Extension() string
}

// FormatSQLite writes into a SQLite archive instead of a stream
const FormatSQLite = "sqlite"

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json, sqlite)", format)
	}
}

// FormatForPath picks a format from the file extension
func FormatForPath(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "json", "jsonl", "yaml", "yml", "md":
		return ext, nil
	case "markdown":
		return "md", nil
	case "db", "sqlite", "sqlite3":
		return FormatSQLite, nil
	case "":
		return "", fmt.Errorf("cannot infer export format: %s has no extension", path)
	default:
		return "", fmt.Errorf("cannot infer export format from .%s", ext)
	}
}

// ToFile writes t to path. An empty format is inferred from the extension.
// SQLite archives accumulate transcripts; other formats overwrite the file.
func ToFile(ctx context.Context, t *internal.Transcript, format, path string) error {
	if format == "" {
		f, err := FormatForPath(path)
		if err != nil {
			return err
		}
		format = f
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}
	}

	if format == FormatSQLite {
		archive, err := internal.OpenArchive(path)
		if err != nil {
			return &internal.ExportError{Format: format, Path: path, Err: err}
		}
		defer func() { _ = archive.Close() }()
		return archive.Save(ctx, t)
	}

	exporter, err := NewExporter(format)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := exporter.Export(t, f); err != nil {
		_ = f.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	internal.LogDebug("Exported transcript %s as %s to %s", t.ID, format, path)
	return nil
}
