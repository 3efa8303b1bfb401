package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpload struct {
	calls int
	resp  *UploadResponse
	err   error
	got   ValidatedFile
}

func (f *fakeUpload) Upload(ctx context.Context, file ValidatedFile) (*UploadResponse, error) {
	f.calls++
	f.got = file
	return f.resp, f.err
}

func okUpload(id string) *fakeUpload {
	return &fakeUpload{resp: &UploadResponse{
		DatasetID: id,
		Filename:  id + ".csv",
		Schema:    Schema{NRows: 2, NCols: 1, Columns: []ColumnInfo{{Name: "x", InferredType: "numeric"}}},
		Preview:   []Row{RowOf("x", 1), RowOf("x", 2)},
	}}
}

func TestOrchestrator_UploadActivatesDataset(t *testing.T) {
	up := okUpload("ds-1")
	o := NewOrchestratorWith(up, &fakeQuery{})
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return fixed }

	h := NewMemFile("ds-1.csv", []byte("x\n1\n2\n"))
	ds, err := o.Upload(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "ds-1", ds.ID)
	assert.Equal(t, fixed, ds.UploadedAt)
	assert.Same(t, h, up.got.Handle())

	active := o.Dataset()
	require.NotNil(t, active)
	assert.Equal(t, "ds-1", active.ID)
	assert.True(t, o.Snapshot().Active())
}

func TestOrchestrator_UploadReplacesAndClearsConversation(t *testing.T) {
	up := okUpload("ds-1")
	q := &fakeQuery{payload: &ResponsePayload{Stdout: StringPtr("ok")}}
	o := NewOrchestratorWith(up, q)

	_, err := o.Upload(context.Background(), NewMemFile("a.csv", []byte("x")))
	require.NoError(t, err)
	_, err = o.Ask(context.Background(), "q1")
	require.NoError(t, err)
	require.Len(t, o.Messages(), 2)

	up.resp = okUpload("ds-2").resp
	_, err = o.Upload(context.Background(), NewMemFile("b.xlsx", []byte("y")))
	require.NoError(t, err)

	snap := o.Snapshot()
	assert.Equal(t, "ds-2", snap.Dataset.ID)
	assert.Empty(t, snap.Messages)

	_, err = o.Ask(context.Background(), "q2")
	require.NoError(t, err)
	assert.Equal(t, "ds-2", q.datasetID)
}

func TestOrchestrator_FailedUploadKeepsState(t *testing.T) {
	up := okUpload("ds-1")
	q := &fakeQuery{payload: &ResponsePayload{Stdout: StringPtr("ok")}}
	o := NewOrchestratorWith(up, q)

	_, err := o.Upload(context.Background(), NewMemFile("a.csv", []byte("x")))
	require.NoError(t, err)
	_, err = o.Ask(context.Background(), "q1")
	require.NoError(t, err)
	before := o.Snapshot()

	t.Run("rejected locally", func(t *testing.T) {
		calls := up.calls
		_, err := o.Upload(context.Background(), NewMemFile("notes.txt", []byte("x")))
		assert.ErrorIs(t, err, ErrUnsupportedType)
		_, err = o.Upload(context.Background(), NewSizedMemFile("big.csv", MaxUploadBytes+1))
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.Equal(t, calls, up.calls, "transport must not be called")
	})

	t.Run("backend error", func(t *testing.T) {
		up.err = &TransportError{Op: "upload", StatusCode: 400, Message: "Empty file"}
		_, err := o.Upload(context.Background(), NewMemFile("c.csv", []byte("")))
		assert.Equal(t, "Empty file", UserMessage(err))
		up.err = nil
	})

	t.Run("malformed response", func(t *testing.T) {
		up.resp = &UploadResponse{}
		_, err := o.Upload(context.Background(), NewMemFile("d.csv", []byte("x")))
		assert.True(t, errors.Is(err, ErrMissingDatasetID))
	})

	after := o.Snapshot()
	assert.Equal(t, before.Dataset.ID, after.Dataset.ID)
	assert.Equal(t, before.Generation, after.Generation)
	assert.Len(t, after.Messages, 2)
}

func TestOrchestrator_AskWithoutDataset(t *testing.T) {
	q := &fakeQuery{}
	o := NewOrchestratorWith(okUpload("x"), q)

	_, err := o.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoDataset)
	assert.Equal(t, int32(0), q.calls.Load())
	assert.Equal(t, Idle, o.State())
}

func TestOrchestrator_Transcript(t *testing.T) {
	q := &fakeQuery{payload: &ResponsePayload{Error: StringPtr("nope")}}
	o := NewOrchestratorWith(okUpload("ds-1"), q)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	o.now = func() time.Time { return fixed }

	empty := o.Transcript()
	assert.Equal(t, "untitled", empty.Title())
	assert.NotNil(t, empty.Messages)

	_, err := o.Upload(context.Background(), NewMemFile("a.csv", []byte("x")))
	require.NoError(t, err)
	_, err = o.Ask(context.Background(), "q")
	require.NoError(t, err)

	tr := o.Transcript()
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, "ds-1.csv", tr.Title())
	assert.Equal(t, "2024-03-01T09:30:00Z", tr.Metadata.ExportedAt)
	assert.Equal(t, 2, tr.Metadata.MessageCount)
	assert.Equal(t, 1, tr.Metadata.Exchanges)
	assert.Equal(t, 1, tr.Metadata.Failures)
}
