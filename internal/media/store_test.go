package media_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"

	"boutique/internal/media"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGCS answers the JSON API upload endpoint and counts finished uploads.
func fakeGCS(t *testing.T) *atomic.Int32 {
	t.Helper()
	var uploads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/upload/storage/v1/b/") {
			http.NotFound(w, r)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		uploads.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"bucket":"boutique-media","name":"products/cover_image/a.png"}`)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("STORAGE_EMULATOR_HOST", strings.TrimPrefix(srv.URL, "http://"))
	return &uploads
}

func TestGCSStorePut(t *testing.T) {
	uploads := fakeGCS(t)
	store, err := media.NewGCSStore(context.Background(), "boutique-media", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	url, err := store.Put(context.Background(), "products/cover_image/a.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/boutique-media/products/cover_image/a.png", url)
	assert.Equal(t, int32(1), uploads.Load())
}

func TestGCSStorePutAbortsOnReadError(t *testing.T) {
	uploads := fakeGCS(t)
	store, err := media.NewGCSStore(context.Background(), "boutique-media", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	body := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(errors.New("client went away")))
	_, err = store.Put(context.Background(), "products/cover_image/a.png", "image/png", body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client went away")
	assert.Zero(t, uploads.Load(), "a truncated object was finalized")
}

func TestLocalStorePutAndDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := media.NewLocalStore(fs, "uploads", "/uploads/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "products/video/v.mp4", "video/mp4", strings.NewReader("mp4"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/video/v.mp4", url)

	data, err := afero.ReadFile(fs, "uploads/products/video/v.mp4")
	require.NoError(t, err)
	assert.Equal(t, "mp4", string(data))

	require.NoError(t, store.Delete(context.Background(), "products/video/v.mp4"))
	require.NoError(t, store.Delete(context.Background(), "products/video/v.mp4"))
	exists, err := afero.Exists(fs, "uploads/products/video/v.mp4")
	require.NoError(t, err)
	assert.False(t, exists)
}
