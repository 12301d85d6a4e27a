package media_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"boutique/internal/apperrors"
	"boutique/internal/media"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attachment(field, name, body string) media.Attachment {
	return media.Attachment{
		Field:    field,
		Filename: name,
		Size:     int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func newLocalGateway(t *testing.T, fs afero.Fs, maxBytes int64) *media.Gateway {
	t.Helper()
	store, err := media.NewLocalStore(fs, "uploads", "/uploads")
	require.NoError(t, err)
	return media.NewGateway(store, media.DefaultLimits(maxBytes), nil)
}

func TestUploadStoresEveryAttachment(t *testing.T) {
	fs := afero.NewMemMapFs()
	gw := newLocalGateway(t, fs, 1024)

	out, err := gw.Upload(context.Background(), []media.Attachment{
		attachment(media.FieldCoverImage, "Cover Photo.JPG", "cover"),
		attachment(media.FieldOtherImages, "side.png", "side"),
		attachment(media.FieldOtherImages, "back.png", "back"),
		attachment(media.FieldVideo, "clip.mp4", "video"),
	})
	require.NoError(t, err)

	require.NotNil(t, out.CoverImage)
	assert.True(t, strings.HasPrefix(*out.CoverImage, "/uploads/products/cover_image/"))
	assert.True(t, strings.HasSuffix(*out.CoverImage, "-cover-photo.jpg"))
	require.NotNil(t, out.OtherImages)
	assert.Len(t, *out.OtherImages, 2)
	assert.True(t, strings.HasSuffix((*out.OtherImages)[0], "-side.png"))
	assert.True(t, strings.HasSuffix((*out.OtherImages)[1], "-back.png"))
	require.NotNil(t, out.Video)

	data, err := afero.ReadFile(fs, strings.TrimPrefix(*out.CoverImage, "/"))
	require.NoError(t, err)
	assert.Equal(t, "cover", string(data))
}

func TestUploadRejectsTooManyOrTooLarge(t *testing.T) {
	gw := newLocalGateway(t, afero.NewMemMapFs(), 4)

	_, err := gw.Upload(context.Background(), []media.Attachment{
		attachment(media.FieldCoverImage, "a.png", "a"),
		attachment(media.FieldCoverImage, "b.png", "b"),
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, media.FieldCoverImage, apperrors.FieldOf(err))

	_, err = gw.Upload(context.Background(), []media.Attachment{
		attachment(media.FieldVideo, "big.mp4", "too large"),
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = gw.Upload(context.Background(), []media.Attachment{
		attachment("avatar", "a.png", "a"),
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

// flakyStore fails every Put whose key contains failOn and records deletions.
type flakyStore struct {
	inner   media.BlobStore
	failOn  string
	mu      sync.Mutex
	deleted []string
}

func (s *flakyStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if strings.Contains(key, s.failOn) {
		return "", errors.New("bucket unavailable")
	}
	return s.inner.Put(ctx, key, contentType, r)
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, key)
	s.mu.Unlock()
	return s.inner.Delete(ctx, key)
}

func TestUploadFailureRemovesStoredSiblings(t *testing.T) {
	fs := afero.NewMemMapFs()
	local, err := media.NewLocalStore(fs, "uploads", "/uploads")
	require.NoError(t, err)
	store := &flakyStore{inner: local, failOn: "/video/"}
	gw := media.NewGateway(store, media.DefaultLimits(1024), nil)

	out, err := gw.Upload(context.Background(), []media.Attachment{
		attachment(media.FieldCoverImage, "cover.png", "cover"),
		attachment(media.FieldVideo, "clip.mp4", "video"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
	assert.True(t, out.Empty())

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, key := range store.deleted {
		exists, statErr := afero.Exists(fs, "uploads/"+key)
		require.NoError(t, statErr)
		assert.False(t, exists)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", media.SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "my-photo-1-.png", media.SanitizeFilename("My Photo (1).png"))
	assert.Equal(t, "file", media.SanitizeFilename("..."))
	assert.Equal(t, "evil.exe", media.SanitizeFilename(`C:\Users\evil.exe`))
}
