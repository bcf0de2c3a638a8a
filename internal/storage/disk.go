package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/utils"

	"github.com/gabriel-vasile/mimetype"
)

// PublicPath is the URL path under which stored images are served
const PublicPath = "/uploads"

// allowed image types and the extension each is stored with
var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore persists uploaded images and returns the URL they are served from
type ImageStore interface {
	Save(ctx context.Context, r io.Reader, prefix string) (string, error)
}

// DiskStore keeps images in a local directory
type DiskStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewDiskStore creates the upload directory if needed
func NewDiskStore(dir, baseURL string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Dir returns the directory images are written to
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save validates that r holds a supported image no larger than the configured
// limit and writes it under a fresh name.
func (s *DiskStore) Save(ctx context.Context, r io.Reader, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w - image exceeds %d bytes", biddingerrors.ErrInvalidImage, s.maxBytes)
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedImages[mtype.String()]
	if !ok {
		return "", fmt.Errorf("%w - content type %s", biddingerrors.ErrInvalidImage, mtype.String())
	}

	name := fmt.Sprintf("%s-%s%s", prefix, utils.GenerateID(), ext)
	path := filepath.Join(s.dir, name)
	if err := writeFile(path, bytes.NewReader(data)); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%s/%s", s.baseURL, PublicPath, name), nil
}

// writeFile copies r into a new file at path. A partially written file is
// removed.
func writeFile(path string, r io.Reader) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close image file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}
