package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Backend is everything the orchestrator needs from the remote side
type Backend interface {
	UploadTransport
	QueryTransport
}

// Orchestrator is the single owner of one client's dataset session and
// conversation. Callers go through it rather than sharing state.
type Orchestrator struct {
	session    *Session
	uploader   UploadTransport
	dispatcher *Dispatcher
	now        func() time.Time
}

// NewOrchestrator wires a fresh session to the given backend
func NewOrchestrator(backend Backend) *Orchestrator {
	return NewOrchestratorWith(backend, backend)
}

// NewOrchestratorWith wires separate upload and query transports
func NewOrchestratorWith(uploader UploadTransport, querier QueryTransport) *Orchestrator {
	session := NewSession()
	return &Orchestrator{
		session:    session,
		uploader:   uploader,
		dispatcher: NewDispatcher(session, querier),
		now:        time.Now,
	}
}

// Upload validates h, sends it, and on success replaces the session and
// clears the conversation in one step. On any failure the current session
// is left exactly as it was.
func (o *Orchestrator) Upload(ctx context.Context, h FileHandle) (*DatasetSession, error) {
	file, err := Validate(h)
	if err != nil {
		LogDebug("Rejected %v before upload: %v", fileName(h), err)
		return nil, err
	}

	resp, err := o.uploader.Upload(WithRequestID(ctx, uuid.NewString()), file)
	if err != nil {
		return nil, err
	}

	ds, err := NewDatasetSession(resp, file.Name(), o.now())
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	gen := o.session.Replace(ds)
	LogInfo("Dataset %s active (%d rows, %d cols, generation %d)", ds.ID, ds.Schema.NRows, ds.Schema.NCols, gen)
	return ds.Clone(), nil
}

// Ask submits a question through the dispatcher
func (o *Orchestrator) Ask(ctx context.Context, question string) (MessageEntry, error) {
	return o.dispatcher.Submit(ctx, question)
}

// State returns the dispatcher state
func (o *Orchestrator) State() DispatchState {
	return o.dispatcher.State()
}

// Dataset returns the active dataset, or nil
func (o *Orchestrator) Dataset() *DatasetSession {
	return o.session.Dataset()
}

// Messages returns the current conversation
func (o *Orchestrator) Messages() []MessageEntry {
	return o.session.Messages()
}

// Snapshot returns a consistent view of dataset and conversation
func (o *Orchestrator) Snapshot() Snapshot {
	return o.session.Snapshot()
}

// Transcript captures the current session for export
func (o *Orchestrator) Transcript() *Transcript {
	return NewTranscript(o.session.Snapshot(), o.now())
}

func fileName(h FileHandle) string {
	if h == nil {
		return "<nil>"
	}
	return h.Name()
}
