package internal

import (
	"time"

	"github.com/google/uuid"
)

// Transcript is an exportable copy of one dataset session and its conversation
type Transcript struct {
	ID       string          `json:"id" yaml:"id"`
	Dataset  *DatasetSession `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Messages []MessageEntry  `json:"messages" yaml:"messages"`
	Metadata TranscriptMeta  `json:"metadata" yaml:"metadata"`
}

// TranscriptMeta contains additional transcript information
type TranscriptMeta struct {
	ExportedAt   string `json:"exported_at" yaml:"exported_at"`
	MessageCount int    `json:"message_count" yaml:"message_count"`
	Exchanges    int    `json:"exchanges" yaml:"exchanges"`
	Failures     int    `json:"failures" yaml:"failures"`
}

// NewTranscript builds a transcript from a session snapshot
func NewTranscript(snap Snapshot, now time.Time) *Transcript {
	meta := TranscriptMeta{
		ExportedAt:   now.UTC().Format(time.RFC3339),
		MessageCount: len(snap.Messages),
	}
	for _, m := range snap.Messages {
		switch {
		case m.Role == RoleUser:
			meta.Exchanges++
		case m.IsError():
			meta.Failures++
		}
	}

	messages := snap.Messages
	if messages == nil {
		messages = []MessageEntry{}
	}

	return &Transcript{
		ID:       uuid.NewString(),
		Dataset:  snap.Dataset,
		Messages: messages,
		Metadata: meta,
	}
}

// Title names the transcript after its dataset
func (t *Transcript) Title() string {
	if t.Dataset != nil && t.Dataset.Filename != "" {
		return t.Dataset.Filename
	}
	if t.Dataset != nil {
		return t.Dataset.ID
	}
	return "untitled"
}
