package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/spf13/afero"
	"google.golang.org/api/option"
)

// BlobStore persists uploaded media and returns a public URL for it.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore writes blobs to a filesystem directory served under baseURL.
type LocalStore struct {
	fs      afero.Fs
	root    string
	baseURL string
}

// NewLocalStore constructs a LocalStore rooted at root on fs.
func NewLocalStore(fs afero.Fs, root, baseURL string) (*LocalStore, error) {
	if fs == nil {
		return nil, errors.New("media: filesystem is required")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("media: upload directory is required")
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media: create upload directory: %w", err)
	}
	return &LocalStore{fs: fs, root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes r to root/key.
func (s *LocalStore) Put(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := afero.WriteReader(s.fs, path.Join(s.root, key), r); err != nil {
		return "", fmt.Errorf("media: write %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes root/key. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := s.fs.Remove(path.Join(s.root, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: remove %s: %w", key, err)
	}
	return nil
}

// GCSStore writes blobs to a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore opens a Cloud Storage client. An empty credentialsFile uses
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("media: bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsFile = strings.TrimSpace(credentialsFile); credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("media: init storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Put streams r into bucket/key. A failed read aborts the upload instead of
// finalizing a truncated object.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("media: upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("media: finalize %s: %w", key, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

// Delete removes bucket/key. Missing objects are not an error.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("media: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
