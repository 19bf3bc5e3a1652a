// Package images serves static lesson images from a local directory or a GCS bucket.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

var (
	// ErrNotFound is returned for missing objects and rejected names alike.
	ErrNotFound = errors.New("image not found")
)

// Info describes an opened image.
type Info struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Source opens images by file name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, Info, error)
}

// ValidName accepts a single path element without traversal or hidden-file prefixes.
func ValidName(name string) bool {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	return !strings.HasPrefix(name, ".")
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// DirSource reads images from a directory; os.Root confines every open to it.
type DirSource struct {
	root *os.Root
}

// NewDirSource opens dir as the image root.
func NewDirSource(dir string) (*DirSource, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open image directory %q: %w", dir, err)
	}
	return &DirSource{root: root}, nil
}

func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, Info, error) {
	if !ValidName(name) {
		return nil, Info{}, ErrNotFound
	}
	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Info{}, ErrNotFound
		}
		return nil, Info{}, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Info{}, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, Info{}, ErrNotFound
	}
	return f, Info{Size: stat.Size(), ContentType: contentType(name), ModTime: stat.ModTime()}, nil
}

// Close releases the directory handle.
func (s *DirSource) Close() error {
	return s.root.Close()
}

// BucketSource reads images from a Cloud Storage bucket.
type BucketSource struct {
	client *storage.Client
	bucket string
}

// NewBucketSource binds a storage client to bucket.
func NewBucketSource(client *storage.Client, bucket string) (*BucketSource, error) {
	if client == nil {
		return nil, errors.New("storage client is nil")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("image bucket is empty")
	}
	return &BucketSource{client: client, bucket: bucket}, nil
}

func (s *BucketSource) Open(ctx context.Context, name string) (io.ReadCloser, Info, error) {
	if !ValidName(name) {
		return nil, Info{}, ErrNotFound
	}
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, Info{}, ErrNotFound
		}
		return nil, Info{}, err
	}
	ct := r.Attrs.ContentType
	if ct == "" {
		ct = contentType(name)
	}
	return r, Info{Size: r.Attrs.Size, ContentType: ct, ModTime: r.Attrs.LastModified}, nil
}
