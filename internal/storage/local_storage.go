package storage

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
)

// LocalFileFetcher reads images from the local filesystem
type LocalFileFetcher struct {
	root     string
	maxBytes int64
}

// NewLocalFileFetcher creates a fetcher. A non-empty root confines reads to
// that directory tree.
func NewLocalFileFetcher(root string, maxBytes int64) *LocalFileFetcher {
	return &LocalFileFetcher{root: root, maxBytes: maxBytes}
}

// Fetch reads location, which may be a plain path or a file:// URL
func (l *LocalFileFetcher) Fetch(ctx context.Context, location string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("file read cancelled", err)
	}

	path, err := l.resolve(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("file not found: "+location, err)
		}
		return nil, apperrors.NewInternalError("failed to open file", err)
	}
	defer f.Close()

	data, err := readLimited(f, l.maxBytes)
	if err != nil {
		return nil, err
	}
	return &Blob{Data: data, ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))}, nil
}

func (l *LocalFileFetcher) resolve(path string) (string, error) {
	if l.root == "" {
		return filepath.Clean(path), nil
	}

	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", apperrors.NewInternalError("invalid storage root", err)
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.NewValidationError("path escapes storage root", err)
	}
	return full, nil
}
