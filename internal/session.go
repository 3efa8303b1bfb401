package internal

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// PreviewRows bounds how many preview rows a session keeps for display
const PreviewRows = 5

// ColumnInfo describes one inferred column
type ColumnInfo struct {
	Name         string   `json:"name" yaml:"name"`
	InferredType string   `json:"inferred_type" yaml:"inferred_type"`
	DType        string   `json:"dtype,omitempty" yaml:"dtype,omitempty"`
	NonNullRatio *float64 `json:"non_null_ratio,omitempty" yaml:"non_null_ratio,omitempty"`
	SampleValues []any    `json:"sample_values,omitempty" yaml:"sample_values,omitempty"`
}

// Schema is the backend's description of an uploaded table
type Schema struct {
	NRows   int          `json:"nrows" yaml:"nrows"`
	NCols   int          `json:"ncols" yaml:"ncols"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`
}

// ColumnNames returns the schema's column names in order
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s Schema) clone() Schema {
	c := Schema{NRows: s.NRows, NCols: s.NCols}
	if s.Columns != nil {
		c.Columns = make([]ColumnInfo, len(s.Columns))
		for i, col := range s.Columns {
			cc := col
			if col.NonNullRatio != nil {
				ratio := *col.NonNullRatio
				cc.NonNullRatio = &ratio
			}
			if col.SampleValues != nil {
				cc.SampleValues = make([]any, len(col.SampleValues))
				for j, v := range col.SampleValues {
					cc.SampleValues[j] = cloneValue(v)
				}
			}
			c.Columns[i] = cc
		}
	}
	return c
}

// DatasetSession is the client-held record of the active dataset
type DatasetSession struct {
	ID         string    `json:"dataset_id" yaml:"dataset_id"`
	Filename   string    `json:"filename,omitempty" yaml:"filename,omitempty"`
	Schema     Schema    `json:"schema" yaml:"schema"`
	Preview    []Row     `json:"preview" yaml:"preview"`
	Notes      []string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	UploadedAt time.Time `json:"uploaded_at" yaml:"uploaded_at"`
}

// ErrMissingDatasetID is returned when an upload response carries no id
var ErrMissingDatasetID = errors.New("upload response has no dataset_id")

// NewDatasetSession adapts a successful upload response into a session
func NewDatasetSession(resp *UploadResponse, fallbackName string, now time.Time) (*DatasetSession, error) {
	if resp == nil {
		return nil, errors.New("upload response is nil")
	}
	if resp.DatasetID == "" {
		return nil, ErrMissingDatasetID
	}
	if resp.Schema.NRows < 0 || resp.Schema.NCols < 0 {
		return nil, fmt.Errorf("upload response has negative dimensions %dx%d", resp.Schema.NRows, resp.Schema.NCols)
	}

	preview := resp.Preview
	if len(preview) > PreviewRows {
		preview = preview[:PreviewRows]
	}

	name := resp.Filename
	if name == "" {
		name = fallbackName
	}

	notes := cloneStrings(resp.Notes)
	if notes == nil {
		notes = []string{}
	}
	previewRows := cloneRows(preview)
	if previewRows == nil {
		previewRows = []Row{}
	}

	return &DatasetSession{
		ID:         resp.DatasetID,
		Filename:   name,
		Schema:     resp.Schema.clone(),
		Preview:    previewRows,
		Notes:      notes,
		UploadedAt: now,
	}, nil
}

// Clone returns a deep copy of the dataset session
func (d *DatasetSession) Clone() *DatasetSession {
	if d == nil {
		return nil
	}
	return &DatasetSession{
		ID:         d.ID,
		Filename:   d.Filename,
		Schema:     d.Schema.clone(),
		Preview:    cloneRows(d.Preview),
		Notes:      cloneStrings(d.Notes),
		UploadedAt: d.UploadedAt,
	}
}

// PreviewColumns returns the display order for the preview: schema order
// when known, otherwise the first row's key order.
func (d *DatasetSession) PreviewColumns() []string {
	if len(d.Schema.Columns) > 0 {
		return d.Schema.ColumnNames()
	}
	if len(d.Preview) > 0 {
		return d.Preview[0].Keys()
	}
	return nil
}

// Session owns the active dataset and its conversation. The two are only
// ever replaced together, under one lock.
type Session struct {
	mu         sync.RWMutex
	dataset    *DatasetSession
	log        *ConversationLog
	generation uint64
}

// NewSession creates a session with no active dataset and an empty log
func NewSession() *Session {
	return &Session{log: NewConversationLog()}
}

// Snapshot is a consistent, copied view of a session
type Snapshot struct {
	Dataset    *DatasetSession
	Messages   []MessageEntry
	Generation uint64
}

// Active reports whether a dataset is loaded
func (s Snapshot) Active() bool {
	return s.Dataset != nil
}

// Replace installs a new dataset and starts a fresh conversation.
// It returns the new generation.
func (s *Session) Replace(ds *DatasetSession) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset = ds.Clone()
	s.log = NewConversationLog()
	s.generation++
	return s.generation
}

// Dataset returns a copy of the active dataset, or nil
func (s *Session) Dataset() *DatasetSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.Clone()
}

// DatasetID returns the active dataset id and the generation it belongs to
func (s *Session) DatasetID() (string, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return "", s.generation, false
	}
	return s.dataset.ID, s.generation, true
}

// Generation returns the current generation
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Messages returns a copy of the current conversation
func (s *Session) Messages() []MessageEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Entries()
}

// Snapshot copies dataset and conversation under a single read lock
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Dataset:    s.dataset.Clone(),
		Messages:   s.log.Entries(),
		Generation: s.generation,
	}
}

// AppendAt appends entry to the conversation of the given generation. If
// the session has moved on since, the entry is dropped and ErrStaleSession
// is returned.
func (s *Session) AppendAt(generation uint64, entry MessageEntry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if generation != s.generation {
		return ErrStaleSession
	}
	_, err := s.log.Append(entry)
	return err
}

// ErrStaleSession means the conversation an append targeted was replaced
var ErrStaleSession = errors.New("session was replaced")
