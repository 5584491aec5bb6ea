package repository

import (
	"context"

	"github.com/maxedonia/ela-mate-web/internal/raster"
	"github.com/maxedonia/ela-mate-web/pkg/models"
)

// Source names an image to analyze: either uploaded bytes or a location
// resolved through storage. Data wins when both are set.
type Source struct {
	Name        string
	Data        []byte
	ContentType string
	Location    string
}

// Label is the human-readable identity of the source used in logs and responses
func (s Source) Label() string {
	switch {
	case s.Location != "" && len(s.Data) == 0:
		return s.Location
	case s.Name != "":
		return s.Name
	default:
		return "upload"
	}
}

// SourceImage is a decoded source with its provenance
type SourceImage struct {
	Image    *raster.Image
	Metadata models.ImageMetadata
}

// ImageRepository loads and decodes source images
type ImageRepository interface {
	// Load fetches (when needed) and decodes src
	Load(ctx context.Context, src Source) (*SourceImage, error)

	// ValidateLocation validates if the provided location is acceptable
	ValidateLocation(location string) error
}
