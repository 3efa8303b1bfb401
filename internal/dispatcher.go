package internal

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DispatchState is the state of the single dispatch slot
type DispatchState int

const (
	Idle DispatchState = iota
	Dispatching
)

func (s DispatchState) String() string {
	if s == Dispatching {
		return "dispatching"
	}
	return "idle"
}

// Rejections. None of them touch the log or the transport.
var (
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrNoDataset        = errors.New("no dataset is active")
	ErrDispatchInFlight = errors.New("a query is already in flight")
)

// ErrStaleResponse is returned when a query resolved after its dataset was
// replaced. The bot entry is discarded.
var ErrStaleResponse = errors.New("response arrived for a replaced dataset")

// Dispatcher runs one query at a time against the session's active dataset
type Dispatcher struct {
	session   *Session
	transport QueryTransport

	mu    sync.Mutex
	state DispatchState
}

// NewDispatcher creates an idle dispatcher
func NewDispatcher(session *Session, transport QueryTransport) *Dispatcher {
	return &Dispatcher{
		session:   session,
		transport: transport,
	}
}

// State returns the current dispatch state
func (d *Dispatcher) State() DispatchState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Submit asks question against the active dataset and blocks until the
// bot entry is appended. A rejected submission returns ErrEmptyQuestion,
// ErrNoDataset or ErrDispatchInFlight and changes nothing.
//
// On acceptance the user entry is appended before the transport is called,
// and exactly one bot entry follows, success or failure.
func (d *Dispatcher) Submit(ctx context.Context, question string) (MessageEntry, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return MessageEntry{}, ErrEmptyQuestion
	}

	d.mu.Lock()
	if d.state == Dispatching {
		d.mu.Unlock()
		return MessageEntry{}, ErrDispatchInFlight
	}
	datasetID, generation, ok := d.session.DatasetID()
	if !ok {
		d.mu.Unlock()
		return MessageEntry{}, ErrNoDataset
	}
	if err := d.session.AppendAt(generation, UserEntry(q)); err != nil {
		d.mu.Unlock()
		return MessageEntry{}, err
	}
	d.state = Dispatching
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.state = Idle
		d.mu.Unlock()
	}()

	requestID := uuid.NewString()
	ctx = WithRequestID(ctx, requestID)
	LogDebug("Dispatching query %s against dataset %s", requestID, datasetID)

	var entry MessageEntry
	payload, err := d.transport.Query(ctx, datasetID, q)
	var terr *TransportError
	switch {
	case errors.As(err, &terr) && terr.Payload != nil:
		LogWarn("Query %s failed with status %d: %s", requestID, terr.StatusCode, deref(terr.Payload.Error))
		entry = Interpret(terr.Payload)
	case err != nil:
		LogWarn("Query %s failed: %v", requestID, err)
		entry = FailureEntry(UserMessage(err))
	default:
		entry = Interpret(payload)
		if entry.IsError() {
			LogInfo("Query %s returned an execution error", requestID)
		}
	}

	if err := d.session.AppendAt(generation, entry); err != nil {
		if errors.Is(err, ErrStaleSession) {
			LogWarn("Discarding response to query %s: dataset %s was replaced", requestID, datasetID)
			return entry, ErrStaleResponse
		}
		return entry, err
	}
	return entry, nil
}
