package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest file the gate lets through (10 MiB)
const MaxUploadBytes int64 = 10 * 1024 * 1024

// AllowedExtensions lists accepted filename suffixes, compared case-insensitively
var AllowedExtensions = []string{".csv", ".xlsx"}

// FileHandle is a candidate upload whose metadata is available locally
type FileHandle interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// ValidatedFile is a FileHandle that passed the gate. The handle is
// carried through untouched.
type ValidatedFile struct {
	handle FileHandle
}

// Handle returns the original handle given to Validate
func (v ValidatedFile) Handle() FileHandle {
	return v.handle
}

// Name returns the filename sent to the backend
func (v ValidatedFile) Name() string {
	return v.handle.Name()
}

// Size returns the byte size of the file
func (v ValidatedFile) Size() int64 {
	return v.handle.Size()
}

// Open opens the file contents for transfer
func (v ValidatedFile) Open() (io.ReadCloser, error) {
	return v.handle.Open()
}

// Validate checks size then extension, stopping at the first failure
func Validate(h FileHandle) (ValidatedFile, error) {
	if h == nil {
		return ValidatedFile{}, &ValidationError{Kind: UnsupportedType}
	}

	name, size := h.Name(), h.Size()
	if size > MaxUploadBytes {
		return ValidatedFile{}, &ValidationError{Kind: TooLarge, Name: name, Size: size}
	}
	if !hasAllowedExtension(name) {
		return ValidatedFile{}, &ValidationError{Kind: UnsupportedType, Name: name, Size: size}
	}

	return ValidatedFile{handle: h}, nil
}

func hasAllowedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// LocalFile is a FileHandle backed by a path on disk
type LocalFile struct {
	path string
	name string
	size int64
}

// OpenLocalFile stats path and returns a handle for it
func OpenLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &LocalFile{
		path: path,
		name: filepath.Base(path),
		size: info.Size(),
	}, nil
}

func (f *LocalFile) Name() string { return f.name }

func (f *LocalFile) Size() int64 { return f.size }

// Path returns the on-disk location
func (f *LocalFile) Path() string { return f.path }

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
