package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	uploadPath = "/api/upload"
	queryPath  = "/api/chat"

	// error bodies may carry a traceback and the generated code
	maxErrorBody    = 1 << 20
	// chart responses may be images
	maxResponseBody = 32 << 20
)

// UploadResponse is the body of a successful upload
type UploadResponse struct {
	DatasetID   string   `json:"dataset_id"`
	Filename    string   `json:"filename,omitempty"`
	StoragePath string   `json:"storage_path,omitempty"`
	Schema      Schema   `json:"schema"`
	Preview     []Row    `json:"preview"`
	Notes       []string `json:"notes,omitempty"`
}

// UploadTransport sends a validated file to the backend
type UploadTransport interface {
	Upload(ctx context.Context, file ValidatedFile) (*UploadResponse, error)
}

// QueryTransport asks the backend a question about a dataset
type QueryTransport interface {
	Query(ctx context.Context, datasetID, question string) (*ResponsePayload, error)
}

type queryRequest struct {
	DatasetID string `json:"dataset_id"`
	Question  string `json:"question"`
}

type errorBody struct {
	Error string `json:"error"`
}

type requestIDKey struct{}

// WithRequestID tags ctx so the transport sends the id as X-Request-ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Client talks to the analysis backend over HTTP. Each call makes exactly
// one attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base URL must not be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base URL %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// Upload sends the file as a single multipart "file" field
func (c *Client) Upload(ctx context.Context, file ValidatedFile) (*UploadResponse, error) {
	const op = "upload"
	endpoint := c.endpoint(uploadPath)

	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return nil, fmt.Errorf("%s: encode %s: %w", op, file.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)

	LogDebug("Uploading %s (%d bytes) to %s", file.Name(), file.Size(), endpoint)
	raw, err := c.do(op, req)
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return &resp, nil
}

// Query sends a question for datasetID and returns the raw payload. A
// payload carrying an error field is still returned without error; deciding
// what it means is the interpreter's job.
func (c *Client) Query(ctx context.Context, datasetID, question string) (*ResponsePayload, error) {
	const op = "query"
	endpoint := c.endpoint(queryPath)

	if datasetID == "" {
		return nil, ErrNoDataset
	}

	buf, err := json.Marshal(queryRequest{DatasetID: datasetID, Question: question})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(op, req)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) {
			terr.Payload = failurePayload(terr.Body)
		}
		return nil, err
	}

	var payload ResponsePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return &payload, nil
}

// Probe issues a GET against the base URL. Any HTTP response, whatever its
// status, means the backend is reachable.
func (c *Client) Probe(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return 0, fmt.Errorf("probe: create request: %w", err)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &NetworkError{Op: "probe", URL: req.URL.String(), Err: err}
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBody))
	return res.StatusCode, nil
}

// Fetch GETs an absolute URL and returns the body, used for chart images
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("chart: create request: %w", err)
	}
	req.Header.Set("Accept", "image/*, */*")
	return c.do("chart", req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	if id := RequestID(req.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: req.URL.String(), Err: err}
	}
	defer func() { _ = res.Body.Close() }()
	LogDebug("%s %s -> %d in %s", req.Method, req.URL.Path, res.StatusCode, time.Since(start).Round(time.Millisecond))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &TransportError{
			Op:         op,
			StatusCode: res.StatusCode,
			URL:        req.URL.String(),
			Body:       string(buf),
			Message:    backendMessage(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, &NetworkError{Op: op, URL: req.URL.String(), Err: fmt.Errorf("read response body: %w", err)}
	}
	return buf, nil
}

// failurePayload decodes a non-2xx query body that still describes the
// failed execution. Bodies without an error field give nil.
func failurePayload(body string) *ResponsePayload {
	var p ResponsePayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil
	}
	if p.Outcome() != OutcomeFailure {
		return nil
	}
	return &p
}

// backendMessage pulls {"error": "..."} out of an error body, if present
func backendMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return strings.TrimSpace(eb.Error)
}

func encodeMultipart(file ValidatedFile) (io.Reader, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = src.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", file.Name())
	if err != nil {
		return nil, "", err
	}
	// The file may have grown since it was validated
	n, err := io.Copy(part, io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return nil, "", err
	}
	if n > MaxUploadBytes {
		return nil, "", &ValidationError{Kind: TooLarge, Name: file.Name(), Size: n}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
