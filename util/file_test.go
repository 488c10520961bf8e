package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadImage_Local(t *testing.T) {
	t.Parallel()
	defer Trace("read local image")()

	p := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, WriteImage(p, []byte("png-bytes")))

	got, err := ReadImage(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)

	_, err = ReadImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "open image")
}

func TestReadImage_URL(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("remote-png"))
	}))
	defer server.Close()

	got, err := ReadImage(context.Background(), server.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote-png"), got)

	_, err = ReadImage(context.Background(), server.URL+"/missing.png")
	assert.ErrorContains(t, err, "status 404")
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("https://example.com/a.png"))
	assert.True(t, IsURL("http://example.com/a.png"))
	assert.False(t, IsURL("input/a.png"))
}
