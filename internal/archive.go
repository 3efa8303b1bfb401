package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var archiveSchema = []string{`
CREATE TABLE IF NOT EXISTS transcripts (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	dataset_id    TEXT,
	exported_at   TEXT NOT NULL,
	message_count INTEGER NOT NULL,
	dataset       TEXT
)`, `
CREATE TABLE IF NOT EXISTS messages (
	transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	seq           INTEGER NOT NULL,
	role          TEXT NOT NULL,
	is_error      INTEGER NOT NULL DEFAULT 0,
	body          TEXT NOT NULL,
	PRIMARY KEY (transcript_id, seq)
)`}

// ErrTranscriptNotFound is returned by Load for an unknown id
var ErrTranscriptNotFound = errors.New("transcript not found")

// Archive is a SQLite file of exported transcripts. It is written by export
// and read by the history command; live sessions never load from it.
type Archive struct {
	db   *sql.DB
	path string
}

// ArchiveEntry summarizes one archived transcript
type ArchiveEntry struct {
	ID           string
	Title        string
	DatasetID    string
	ExportedAt   string
	MessageCount int
}

// OpenArchive opens (creating if needed) the archive at path
func OpenArchive(path string) (*Archive, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range archiveSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create archive schema: %w", err)
		}
	}
	return &Archive{db: db, path: path}, nil
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores t and its messages in one transaction
func (a *Archive) Save(ctx context.Context, t *Transcript) error {
	var datasetID string
	var datasetJSON sql.NullString
	if t.Dataset != nil {
		datasetID = t.Dataset.ID
		b, err := json.Marshal(t.Dataset)
		if err != nil {
			return &ExportError{Format: "sqlite", Path: a.path, Err: err}
		}
		datasetJSON = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return &ExportError{Format: "sqlite", Path: a.path, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transcripts (id, title, dataset_id, exported_at, message_count, dataset) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title(), datasetID, t.Metadata.ExportedAt, len(t.Messages), datasetJSON)
	if err != nil {
		return &ExportError{Format: "sqlite", Path: a.path, Err: fmt.Errorf("insert transcript: %w", err)}
	}

	for i, m := range t.Messages {
		body, err := json.Marshal(m)
		if err != nil {
			return &ExportError{Format: "sqlite", Path: a.path, Err: err}
		}
		isError := 0
		if m.IsError() {
			isError = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (transcript_id, seq, role, is_error, body) VALUES (?, ?, ?, ?, ?)`,
			t.ID, i, string(m.Role), isError, string(body))
		if err != nil {
			return &ExportError{Format: "sqlite", Path: a.path, Err: fmt.Errorf("insert message %d: %w", i, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &ExportError{Format: "sqlite", Path: a.path, Err: err}
	}
	LogDebug("Archived transcript %s (%d messages) to %s", t.ID, len(t.Messages), a.path)
	return nil
}

// List returns archived transcripts, newest first
func (a *Archive) List(ctx context.Context) ([]ArchiveEntry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(dataset_id, ''), exported_at, message_count FROM transcripts ORDER BY exported_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []ArchiveEntry
	for rows.Next() {
		var e ArchiveEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.DatasetID, &e.ExportedAt, &e.MessageCount); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// Load reads a transcript back, messages in their original order
func (a *Archive) Load(ctx context.Context, id string) (*Transcript, error) {
	var t Transcript
	var datasetJSON sql.NullString
	err := a.db.QueryRowContext(ctx,
		`SELECT id, exported_at, message_count, dataset FROM transcripts WHERE id = ?`, id).
		Scan(&t.ID, &t.Metadata.ExportedAt, &t.Metadata.MessageCount, &datasetJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if datasetJSON.Valid {
		var ds DatasetSession
		if err := json.Unmarshal([]byte(datasetJSON.String), &ds); err != nil {
			return nil, fmt.Errorf("failed to parse archived dataset: %w", err)
		}
		t.Dataset = &ds
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT body FROM messages WHERE transcript_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	t.Messages = make([]MessageEntry, 0, t.Metadata.MessageCount)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		var m MessageEntry
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("failed to parse archived message: %w", err)
		}
		t.Messages = append(t.Messages, m)
		switch {
		case m.Role == RoleUser:
			t.Metadata.Exchanges++
		case m.IsError():
			t.Metadata.Failures++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return &t, nil
}
