package internal

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultChartCacheSize bounds how many chart images are kept in memory
const DefaultChartCacheSize = 64

// Fetcher retrieves the bytes behind an absolute URL
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ResolveChartURL turns a chart reference from the backend into something
// fetchable. The backend returns paths relative to its own root; absolute
// URLs and data: URIs pass through unchanged.
func ResolveChartURL(baseURL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty chart reference")
	}
	if isDataURI(ref) {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid chart reference %q: %w", ref, err)
	}
	if u.IsAbs() {
		return ref, nil
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("invalid api base URL %q: %w", baseURL, err)
	}
	return base.ResolveReference(u).String(), nil
}

// ChartFetcher downloads chart images, keeping recent ones in an LRU cache
type ChartFetcher struct {
	baseURL string
	fetcher Fetcher
	cache   *lru.Cache[string, []byte]
}

// NewChartFetcher creates a fetcher resolving relative charts against baseURL
func NewChartFetcher(baseURL string, fetcher Fetcher, cacheSize int) (*ChartFetcher, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultChartCacheSize
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart cache: %w", err)
	}
	return &ChartFetcher{baseURL: baseURL, fetcher: fetcher, cache: cache}, nil
}

// Get returns the image bytes behind ref
func (f *ChartFetcher) Get(ctx context.Context, ref string) ([]byte, error) {
	resolved, err := ResolveChartURL(f.baseURL, ref)
	if err != nil {
		return nil, err
	}
	if data, ok := f.cache.Get(resolved); ok {
		LogDebug("Chart cache hit: %s", shortRef(resolved))
		return data, nil
	}

	var data []byte
	if isDataURI(resolved) {
		data, err = decodeDataURI(resolved)
	} else {
		data, err = f.fetcher.Fetch(ctx, resolved)
	}
	if err != nil {
		return nil, err
	}

	f.cache.Add(resolved, data)
	return data, nil
}

// Save writes the chart behind ref into dir and returns the file path.
// base names the file; the extension comes from the reference.
func (f *ChartFetcher) Save(ctx context.Context, ref, dir, base string) (string, error) {
	data, err := f.Get(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create chart directory: %w", err)
	}

	out := filepath.Join(dir, base+chartExtension(ref))
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return out, nil
}

// SaveAll saves every chart of entry as <prefix>-<n>.<ext>. It keeps going
// past individual failures and returns the first error it saw.
func (f *ChartFetcher) SaveAll(ctx context.Context, entry MessageEntry, dir, prefix string) ([]string, error) {
	var saved []string
	var firstErr error
	for i, ref := range entry.Charts {
		p, err := f.Save(ctx, ref, dir, fmt.Sprintf("%s-%d", prefix, i+1))
		if err != nil {
			LogWarn("Failed to save chart %d: %v", i+1, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved = append(saved, p)
	}
	return saved, firstErr
}

func isDataURI(ref string) bool {
	return strings.HasPrefix(strings.ToLower(ref), "data:")
}

// decodeDataURI handles data:[<mediatype>][;base64],<data>
func decodeDataURI(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed base64 data URI: %w", err)
		}
		return data, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URI: %w", err)
	}
	return []byte(decoded), nil
}

func chartExtension(ref string) string {
	if isDataURI(ref) {
		meta := strings.ToLower(ref[len("data:"):])
		switch {
		case strings.HasPrefix(meta, "image/svg"):
			return ".svg"
		case strings.HasPrefix(meta, "image/jpeg"):
			return ".jpg"
		default:
			return ".png"
		}
	}
	if u, err := url.Parse(ref); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return ext
		}
	}
	return ".png"
}

func shortRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "…"
	}
	return ref
}
