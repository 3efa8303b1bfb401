package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_SaveListLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	a, err := OpenArchive(path)
	require.NoError(t, err)

	older := CreateTestTranscript("t-old")
	older.Metadata.ExportedAt = "2024-01-01T00:00:00Z"
	newer := CreateTestTranscript("t-new")
	newer.Metadata.ExportedAt = "2024-02-01T00:00:00Z"

	require.NoError(t, a.Save(ctx, older))
	require.NoError(t, a.Save(ctx, newer))
	require.NoError(t, a.Close())

	// reopen to prove it is on disk
	a, err = OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()

	entries, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "t-new", entries[0].ID)
	assert.Equal(t, "t-old", entries[1].ID)
	assert.Equal(t, "sales.csv", entries[0].Title)
	assert.Equal(t, "ds-t-new", entries[0].DatasetID)
	assert.Equal(t, 4, entries[0].MessageCount)

	got, err := a.Load(ctx, "t-old")
	require.NoError(t, err)
	assert.Equal(t, "t-old", got.ID)
	require.NotNil(t, got.Dataset)
	assert.Equal(t, "ds-t-old", got.Dataset.ID)
	assert.Equal(t, []string{"region", "amount"}, got.Dataset.PreviewColumns())
	require.Len(t, got.Messages, 4)
	assert.Equal(t, RoleUser, got.Messages[0].Role)
	assert.Equal(t, []string{"region", "total"}, got.Messages[1].Table[0].Keys())
	assert.Equal(t, "Generated code was rejected", got.Messages[3].ErrorValue())
	assert.Equal(t, 2, got.Metadata.Exchanges)
	assert.Equal(t, 1, got.Metadata.Failures)
	assert.Equal(t, older.Messages[0].Timestamp, got.Messages[0].Timestamp.UTC())
}

func TestArchive_DuplicateIDFails(t *testing.T) {
	a, err := OpenArchive(":memory:")
	require.NoError(t, err)
	defer a.Close()

	tr := CreateTestTranscript("dup")
	require.NoError(t, a.Save(context.Background(), tr))

	err = a.Save(context.Background(), tr)
	var eerr *ExportError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "sqlite", eerr.Format)

	entries, err := a.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchive_TranscriptWithoutDataset(t *testing.T) {
	a, err := OpenArchive(":memory:")
	require.NoError(t, err)
	defer a.Close()

	tr := NewTranscript(NewSession().Snapshot(), CreateTestDataset("x").UploadedAt)
	require.NoError(t, a.Save(context.Background(), tr))

	got, err := a.Load(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Dataset)
	assert.Empty(t, got.Messages)
}

func TestArchive_LoadUnknown(t *testing.T) {
	a, err := OpenArchive(":memory:")
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
}
