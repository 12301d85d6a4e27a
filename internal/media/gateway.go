package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"boutique/internal/apperrors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Upload field names accepted on product requests.
const (
	FieldCoverImage  = "cover_image"
	FieldOtherImages = "other_images"
	FieldVideo       = "video"
)

// Limits bounds the attachments accepted in a single request.
type Limits struct {
	MaxCoverImages int
	MaxOtherImages int
	MaxVideos      int
	MaxFileBytes   int64
}

// DefaultLimits returns the per-request attachment limits for maxBytes per file.
func DefaultLimits(maxBytes int64) Limits {
	return Limits{MaxCoverImages: 1, MaxOtherImages: 10, MaxVideos: 1, MaxFileBytes: maxBytes}
}

// Attachment is one uploaded file awaiting storage.
type Attachment struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Uploaded holds the public URLs of stored attachments. Nil fields had no
// attachment in the request.
type Uploaded struct {
	CoverImage  *string
	OtherImages *[]string
	Video       *string

	keys []string
}

// Empty reports whether nothing was uploaded.
func (u Uploaded) Empty() bool {
	return len(u.keys) == 0
}

// Gateway validates attachments and stores them concurrently.
type Gateway struct {
	store  BlobStore
	limits Limits
	logger *zap.Logger
}

// NewGateway constructs a Gateway over store.
func NewGateway(store BlobStore, limits Limits, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, limits: limits, logger: logger}
}

// Validate checks field names, per-field counts and file sizes.
func (g *Gateway) Validate(files []Attachment) error {
	counts := make(map[string]int, 3)
	for _, f := range files {
		counts[f.Field]++
		if g.limits.MaxFileBytes > 0 && f.Size > g.limits.MaxFileBytes {
			return apperrors.Validation(f.Field, fmt.Sprintf("%s exceeds the %d byte upload limit", f.Filename, g.limits.MaxFileBytes))
		}
	}
	for field, n := range counts {
		var limit int
		switch field {
		case FieldCoverImage:
			limit = g.limits.MaxCoverImages
		case FieldOtherImages:
			limit = g.limits.MaxOtherImages
		case FieldVideo:
			limit = g.limits.MaxVideos
		default:
			return apperrors.Validation(field, fmt.Sprintf("unexpected file field %s", field))
		}
		if n > limit {
			return apperrors.Validation(field, fmt.Sprintf("at most %d file(s) allowed for %s", limit, field))
		}
	}
	return nil
}

// Upload validates and stores every attachment concurrently. Either all
// attachments are stored or none are referenced: on failure the siblings that
// did succeed are removed on a best effort basis.
func (g *Gateway) Upload(ctx context.Context, files []Attachment) (Uploaded, error) {
	if len(files) == 0 {
		return Uploaded{}, nil
	}
	if err := g.Validate(files); err != nil {
		return Uploaded{}, err
	}

	keys := make([]string, len(files))
	urls := make([]string, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		keys[i] = ObjectKey(f.Field, f.Filename)
		eg.Go(func() error {
			url, err := g.put(egCtx, keys[i], f)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		var stored []string
		for i, url := range urls {
			if url != "" {
				stored = append(stored, keys[i])
			}
		}
		g.remove(context.WithoutCancel(ctx), stored)
		return Uploaded{}, apperrors.Upstream("upload media", err)
	}

	var out Uploaded
	out.keys = keys
	for i, f := range files {
		url := urls[i]
		switch f.Field {
		case FieldCoverImage:
			out.CoverImage = &url
		case FieldVideo:
			out.Video = &url
		case FieldOtherImages:
			if out.OtherImages == nil {
				out.OtherImages = &[]string{}
			}
			*out.OtherImages = append(*out.OtherImages, url)
		}
	}
	return out, nil
}

// Discard removes blobs stored by a previous Upload, e.g. when persisting the
// product that references them failed.
func (g *Gateway) Discard(ctx context.Context, u Uploaded) {
	g.remove(context.WithoutCancel(ctx), u.keys)
}

func (g *Gateway) put(ctx context.Context, key string, f Attachment) (string, error) {
	if f.Open == nil {
		return "", errors.New("media: attachment has no content")
	}
	r, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("media: open %s: %w", f.Filename, err)
	}
	defer r.Close()
	return g.store.Put(ctx, key, f.ContentType, r)
}

func (g *Gateway) remove(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := g.store.Delete(ctx, key); err != nil {
			g.logger.Warn("media cleanup failed", zap.String("key", key), zap.Error(err))
		}
	}
}
