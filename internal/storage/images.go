package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// ImageStore keeps uploaded car images on local disk and hands out the URL
// path they are served under.
type ImageStore struct {
	dir     string
	baseURL string
}

func NewImageStore(dir, baseURL string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir, baseURL: baseURL}, nil
}

func (s *ImageStore) Dir() string { return s.dir }

// Save writes the image under a timestamped name and returns its public URL.
func (s *ImageStore) Save(filename string, src io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(filename))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	return path.Join(s.baseURL, name), nil
}

// Delete removes the image behind url. A missing file is not an error, so
// deleting twice or deleting a car whose image is already gone succeeds.
func (s *ImageStore) Delete(url string) error {
	if url == "" {
		return nil
	}
	name := path.Base(url)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}
