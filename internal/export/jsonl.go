package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/askdata/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	Transcript string `json:"transcript"`
	Seq        int    `json:"seq"`
	Timestamp  string `json:"timestamp,omitempty"`
	internal.MessageEntry
}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, msg := range t.Messages {
		line := jsonlLine{
			Transcript:   t.ID,
			Seq:          i,
			MessageEntry: msg,
		}
		if !msg.Timestamp.IsZero() {
			line.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
		}
		// Encode to single line
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message %d: %w", i, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
