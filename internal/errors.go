package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationKind identifies why a candidate file was refused locally
type ValidationKind string

const (
	TooLarge        ValidationKind = "TooLarge"
	UnsupportedType ValidationKind = "UnsupportedType"
)

// Sentinels for errors.Is against a *ValidationError
var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ValidationError is raised by the file gate before anything is transmitted
type ValidationError struct {
	Kind ValidationKind
	Name string
	Size int64
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case TooLarge:
		return fmt.Sprintf("validation error [%s] %s: %d bytes exceeds %d byte limit", e.Kind, e.Name, e.Size, MaxUploadBytes)
	case UnsupportedType:
		return fmt.Sprintf("validation error [%s] %s: expected %s", e.Kind, e.Name, strings.Join(AllowedExtensions, " or "))
	default:
		return fmt.Sprintf("validation error [%s] %s", e.Kind, e.Name)
	}
}

// Is lets callers match on the kind sentinels
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrTooLarge:
		return e.Kind == TooLarge
	case ErrUnsupportedType:
		return e.Kind == UnsupportedType
	}
	return false
}

// TransportError represents a non-2xx response from the backend
type TransportError struct {
	Op         string // "upload", "query", "chart"
	StatusCode int
	URL        string
	Body       string
	Message    string // backend-supplied {"error": ...}, if any

	// Payload is set for query responses whose body still reports the
	// failed execution (error, stderr, generated code)
	Payload *ResponsePayload
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: unexpected status %d from %s", e.Op, e.StatusCode, e.URL)
}

// HTTPStatusCode returns the response status
func (e *TransportError) HTTPStatusCode() int {
	return e.StatusCode
}

// NetworkError represents a request that never produced a response
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed: network error contacting %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// UserMessage renders err the way it is shown inline to the user.
// Backend-supplied messages win over our own descriptions.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		switch verr.Kind {
		case TooLarge:
			return "File must be ≤ 10 MB"
		case UnsupportedType:
			return "Please upload a .csv or .xlsx file"
		}
	}

	var terr *TransportError
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message
	}

	var nerr *NetworkError
	if errors.As(err, &nerr) {
		return fmt.Sprintf("Network error: %v", nerr.Err)
	}

	return err.Error()
}
