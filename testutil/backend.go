package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// QueryRequest is the body the client sends to /api/chat
type QueryRequest struct {
	DatasetID string `json:"dataset_id"`
	Question  string `json:"question"`
}

// FakeBackend is an httptest server speaking the analysis backend's API.
// Answers maps a question to a raw JSON body; unknown questions get
// DefaultAnswer.
type FakeBackend struct {
	*httptest.Server

	UploadStatus  int
	UploadBody    string
	Answers       map[string]string
	DefaultAnswer string
	QueryStatus   int

	mu        sync.Mutex
	uploads   []string
	questions []QueryRequest
}

// NewFakeBackend starts a backend that accepts SalesCSV and answers every
// question with QueryTableJSON
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		UploadStatus:  http.StatusOK,
		UploadBody:    UploadResponseJSON,
		Answers:       map[string]string{},
		DefaultAnswer: QueryTableJSON,
		QueryStatus:   http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", b.handleUpload)
	mux.HandleFunc("/api/chat", b.handleQuery)
	mux.HandleFunc("/static/charts/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(PNGBytes)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// Uploads returns the filenames received so far
func (b *FakeBackend) Uploads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploads...)
}

// Questions returns the query requests received so far
func (b *FakeBackend) Questions() []QueryRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]QueryRequest(nil), b.questions...)
}

func (b *FakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error": "No file part"}`)
		return
	}
	b.mu.Lock()
	b.uploads = append(b.uploads, hdr.Filename)
	b.mu.Unlock()
	writeJSON(w, b.UploadStatus, b.UploadBody)
}

func (b *FakeBackend) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error": "Invalid JSON"}`)
		return
	}
	b.mu.Lock()
	b.questions = append(b.questions, req)
	answer, ok := b.Answers[req.Question]
	b.mu.Unlock()
	if !ok {
		answer = b.DefaultAnswer
	}
	writeJSON(w, b.QueryStatus, answer)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
