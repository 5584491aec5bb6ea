package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
)

// BlobScheme addresses Azure blobs as azblob://container/path/to/blob
const BlobScheme = "azblob"

// URLValidator checks remote source locations before they are fetched
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// DefaultSchemes are the remote schemes accepted unless configured otherwise
var DefaultSchemes = []string{"http", "https"}

// NewURLValidator creates a validator that accepts http and https sources on any host
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithOptions(DefaultSchemes, nil)
}

// NewURLValidatorWithOptions creates a URL validator with custom options.
// An empty hosts list allows all hosts.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// WithBlobSources returns a copy that also accepts azblob:// locations
func (v *URLValidator) WithBlobSources() *URLValidator {
	schemes := append(append([]string{}, v.allowedSchemes...), BlobScheme)
	return &URLValidator{allowedSchemes: schemes, allowedHosts: v.allowedHosts}
}

// ValidateSourceURL validates a remote image location. For azblob locations the
// host is the container name and host restrictions do not apply.
func (v *URLValidator) ValidateSourceURL(sourceURL string) error {
	if strings.TrimSpace(sourceURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if !v.isSchemeAllowed(scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if parsedURL.User != nil {
		return apperrors.NewValidationError("URL must not embed credentials", nil)
	}

	if scheme == BlobScheme {
		if strings.Trim(parsedURL.Path, "/") == "" {
			return apperrors.NewValidationError("blob URL must name a blob", nil)
		}
		return nil
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
