package internal

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls map[string]int
	data  map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[rawURL]++
	data, ok := f.data[rawURL]
	if !ok {
		return nil, &TransportError{Op: "chart", StatusCode: 404, URL: rawURL}
	}
	return data, nil
}

func TestResolveChartURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"http://localhost:8000", "/static/charts/a.png", "http://localhost:8000/static/charts/a.png"},
		{"http://localhost:8000/", "static/charts/a.png", "http://localhost:8000/static/charts/a.png"},
		{"http://host/prefix", "charts/a.png", "http://host/prefix/charts/a.png"},
		{"http://localhost:8000", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"http://localhost:8000", "data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
	}
	for _, tt := range tests {
		got, err := ResolveChartURL(tt.base, tt.ref)
		require.NoError(t, err, tt.ref)
		assert.Equal(t, tt.want, got)
	}

	_, err := ResolveChartURL("http://localhost:8000", "  ")
	assert.Error(t, err)
}

func TestChartFetcher_GetCaches(t *testing.T) {
	f := &fakeFetcher{data: map[string][]byte{"http://b/static/charts/a.png": []byte("PNG")}}
	cf, err := NewChartFetcher("http://b", f, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		data, err := cf.Get(context.Background(), "/static/charts/a.png")
		require.NoError(t, err)
		assert.Equal(t, "PNG", string(data))
	}
	assert.Equal(t, 1, f.calls["http://b/static/charts/a.png"])

	_, err = cf.Get(context.Background(), "/static/charts/missing.png")
	var terr *TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestChartFetcher_DataURI(t *testing.T) {
	f := &fakeFetcher{}
	cf, err := NewChartFetcher("http://b", f, 0)
	require.NoError(t, err)

	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("IMG"))
	data, err := cf.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "IMG", string(data))
	assert.Empty(t, f.calls)

	svg, err := cf.Get(context.Background(), "data:image/svg+xml,%3Csvg%2F%3E")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(svg))

	_, err = cf.Get(context.Background(), "data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestChartFetcher_SaveAll(t *testing.T) {
	f := &fakeFetcher{data: map[string][]byte{
		"http://b/static/charts/a.png": []byte("A"),
		"http://b/static/charts/b.svg": []byte("B"),
	}}
	cf, err := NewChartFetcher("http://b", f, 8)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "charts")
	entry := MessageEntry{Role: RoleBot, Charts: []string{
		"/static/charts/a.png",
		"/static/charts/gone.png",
		"/static/charts/b.svg",
	}}

	saved, err := cf.SaveAll(context.Background(), entry, dir, "q1")
	assert.Error(t, err, "the missing chart is reported")
	require.Equal(t, []string{
		filepath.Join(dir, "q1-1.png"),
		filepath.Join(dir, "q1-3.svg"),
	}, saved)

	data, err := os.ReadFile(saved[1])
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
}

func TestChartExtension(t *testing.T) {
	assert.Equal(t, ".png", chartExtension("/static/charts/x.png"))
	assert.Equal(t, ".jpg", chartExtension("data:image/jpeg;base64,AA"))
	assert.Equal(t, ".svg", chartExtension("data:image/svg+xml,x"))
	assert.Equal(t, ".png", chartExtension("/static/charts/noext"))
}
