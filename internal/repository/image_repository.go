package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/raster"
	"github.com/maxedonia/ela-mate-web/internal/storage"
	"github.com/maxedonia/ela-mate-web/pkg/models"
	"github.com/maxedonia/ela-mate-web/pkg/validation"
)

// imageRepository implements ImageRepository on top of a storage fetcher
type imageRepository struct {
	fetcher    storage.ImageFetcher
	validator  *validation.URLValidator
	allowLocal bool
}

// NewImageRepository creates a repository that only accepts remote locations
// passing validator.
func NewImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) ImageRepository {
	return &imageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// NewLocalImageRepository creates a repository that also accepts filesystem paths
func NewLocalImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) ImageRepository {
	return &imageRepository{
		fetcher:    fetcher,
		validator:  validator,
		allowLocal: true,
	}
}

// Load retrieves and decodes an image
func (r *imageRepository) Load(ctx context.Context, src Source) (*SourceImage, error) {
	data, contentType := src.Data, src.ContentType
	if len(data) == 0 {
		if src.Location == "" {
			return nil, apperrors.NewValidationError("no image provided", ErrEmptySource)
		}
		if err := r.ValidateLocation(src.Location); err != nil {
			return nil, err
		}
		blob, err := r.fetcher.Fetch(ctx, src.Location)
		if err != nil {
			return nil, err
		}
		data, contentType = blob.Data, blob.ContentType
	}

	img, format, err := raster.Decode(data)
	if err != nil {
		if errors.Is(err, raster.ErrUnknownFormat) {
			return nil, apperrors.NewInvalidInputError("unsupported image format", err)
		}
		return nil, apperrors.NewCodecError(fmt.Sprintf("failed to decode %s image", format), err)
	}
	if img.Empty() {
		return nil, apperrors.NewInvalidInputError("image has no pixels", nil)
	}

	return &SourceImage{
		Image: img,
		Metadata: models.ImageMetadata{
			ContentType:   contentType,
			ContentLength: int64(len(data)),
			Width:         img.Width,
			Height:        img.Height,
			Format:        format,
		},
	}, nil
}

// ValidateLocation validates if the provided location is acceptable
func (r *imageRepository) ValidateLocation(location string) error {
	if storage.SchemeOf(location) == "file" {
		if !r.allowLocal {
			return apperrors.NewValidationError("URL scheme not allowed", ErrLocalSourceDenied)
		}
		return nil
	}
	return r.validator.ValidateSourceURL(location)
}
