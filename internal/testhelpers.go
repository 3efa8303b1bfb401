package internal

import (
	"bytes"
	"io"
	"time"
)

// MemFile is an in-memory FileHandle for tests
type MemFile struct {
	name string
	data []byte
	size int64
}

// NewMemFile creates a handle whose size is the length of data
func NewMemFile(name string, data []byte) *MemFile {
	return &MemFile{name: name, data: data, size: int64(len(data))}
}

// NewSizedMemFile creates a handle reporting size regardless of its contents
func NewSizedMemFile(name string, size int64) *MemFile {
	return &MemFile{name: name, size: size}
}

func (f *MemFile) Name() string { return f.name }

func (f *MemFile) Size() int64 { return f.size }

func (f *MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// CreateTestDataset creates a dataset session with sample data
func CreateTestDataset(id string) *DatasetSession {
	return &DatasetSession{
		ID:       id,
		Filename: "sales.csv",
		Schema: Schema{
			NRows: 3,
			NCols: 2,
			Columns: []ColumnInfo{
				{Name: "region", InferredType: "categorical"},
				{Name: "amount", InferredType: "numeric"},
			},
		},
		Preview: []Row{
			RowOf("region", "north", "amount", 10),
			RowOf("region", "south", "amount", 20),
		},
		Notes:      []string{},
		UploadedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// CreateTestTranscript creates a transcript with one successful and one
// failed exchange
func CreateTestTranscript(id string) *Transcript {
	ts := time.Date(2024, 1, 2, 3, 5, 0, 0, time.UTC)
	messages := []MessageEntry{
		{Role: RoleUser, Text: StringPtr("total by region"), Timestamp: ts},
		{
			Role:      RoleBot,
			Text:      StringPtr("Done."),
			Table:     []Row{RowOf("region", "north", "total", 10), RowOf("region", "south", "total", 20)},
			Columns:   []string{"region", "total"},
			Charts:    []string{"/static/charts/c1.png"},
			Code:      StringPtr("result = df.groupby('region').sum()"),
			Timestamp: ts,
		},
		{Role: RoleUser, Text: StringPtr("delete everything"), Timestamp: ts},
		{
			Role:      RoleBot,
			Text:      StringPtr("Error: Generated code was rejected"),
			Error:     StringPtr("Generated code was rejected"),
			Code:      StringPtr("import os"),
			Stderr:    StringPtr("Traceback: blocked import"),
			Timestamp: ts,
		},
	}
	return &Transcript{
		ID:       id,
		Dataset:  CreateTestDataset("ds-" + id),
		Messages: messages,
		Metadata: TranscriptMeta{
			ExportedAt:   "2024-01-02T03:06:00Z",
			MessageCount: len(messages),
			Exchanges:    2,
			Failures:     1,
		},
	}
}
