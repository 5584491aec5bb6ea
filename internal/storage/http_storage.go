package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
)

const maxAttempts = 3

// HTTPImageFetcher downloads images over HTTP with bounded retries
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
	backoff  time.Duration
}

// NewHTTPImageFetcher creates an HTTP image fetcher. timeout bounds each
// attempt; maxBytes caps the body size.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
		backoff:  time.Second,
	}
}

// Fetch downloads location. 5xx responses and transport errors are retried
// with linear backoff; 4xx responses fail immediately.
func (h *HTTPImageFetcher) Fetch(ctx context.Context, location string) (*Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid URL", err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "ELA-Mate/1.0")

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("image fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, apperrors.NewTimeoutError("image fetch cancelled", ctx.Err())
			}
			continue
		}

		blob, retry, err := h.consume(resp)
		if err == nil {
			return blob, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}

	return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to fetch image after %d attempts", maxAttempts), lastErr)
}

// consume reads a response and reports whether a failure is worth retrying
func (h *HTTPImageFetcher) consume(resp *http.Response) (*Blob, bool, error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NewNotFoundError("image not found", fmt.Errorf("client error: status code %d", resp.StatusCode))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, apperrors.NewNetworkError("image request rejected", fmt.Errorf("client error: status code %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, apperrors.NewNetworkError("unexpected response", fmt.Errorf("status code %d", resp.StatusCode))
	}

	data, err := readLimited(resp.Body, h.maxBytes)
	if err != nil {
		return nil, false, err
	}
	return &Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}, false, nil
}
