package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
)

// DefaultMaxImageBytes caps a single fetched source
const DefaultMaxImageBytes int64 = 32 << 20

// Blob is the raw encoded source image. Decoding happens later so the JPEG
// quantization tables survive for quality estimation.
type Blob struct {
	Data        []byte
	ContentType string
}

// ImageFetcher retrieves raw image bytes from a location
type ImageFetcher interface {
	Fetch(ctx context.Context, location string) (*Blob, error)
}

// Router dispatches a location to the fetcher registered for its scheme. Plain
// paths without a scheme use the "file" fetcher.
type Router struct {
	fetchers map[string]ImageFetcher
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{fetchers: make(map[string]ImageFetcher)}
}

// Register binds fetcher to each of schemes
func (r *Router) Register(fetcher ImageFetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.fetchers[strings.ToLower(s)] = fetcher
	}
	return r
}

// Supports reports whether a fetcher is registered for scheme
func (r *Router) Supports(scheme string) bool {
	_, ok := r.fetchers[strings.ToLower(scheme)]
	return ok
}

// Fetch implements ImageFetcher
func (r *Router) Fetch(ctx context.Context, location string) (*Blob, error) {
	scheme := SchemeOf(location)
	fetcher, ok := r.fetchers[scheme]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported source scheme %q", scheme), nil)
	}
	return fetcher.Fetch(ctx, location)
}

// SchemeOf returns the lower-cased URL scheme of location, or "file" for
// plain filesystem paths (including Windows drive letters).
func SchemeOf(location string) string {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) <= 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// readLimited reads at most limit bytes and fails if the source is larger
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read image body", err)
	}
	if int64(len(data)) > limit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", limit), nil)
	}
	if len(data) == 0 {
		return nil, apperrors.NewInvalidInputError("image is empty", nil)
	}
	return data, nil
}
