// Package imaging defines the codec and filter capabilities the forensic
// analyzers depend on, together with their implementations.
package imaging

import "github.com/maxedonia/ela-mate-web/internal/raster"

// Codec performs a lossy encode/decode round trip.
type Codec interface {
	// Recompress encodes img as JPEG at the given quality and decodes it again.
	Recompress(img *raster.Image, quality int) (*raster.Image, error)
}

// Filters groups the pixel-wise filters used by the analyzers.
// Implementations never modify their inputs.
type Filters interface {
	// BoxMean returns the normalized k x k neighborhood mean of every sample.
	BoxMean(p *raster.Plane, k int) *raster.Plane
	// GaussianBlur applies a k x k Gaussian. sigma <= 0 derives it from k.
	GaussianBlur(p *raster.Plane, k int, sigma float64) *raster.Plane
	// Denoise applies a non-local-means filter of the given strength to an RGB raster.
	Denoise(img *raster.Image, strength float64) *raster.Image
	// DenoisePlane is Denoise for a single-channel plane in [0,255].
	DenoisePlane(p *raster.Plane, strength float64) *raster.Plane
	// Close dilates then erodes a binary mask (0 or 255) with a k x k square.
	Close(mask *raster.Plane, k int) *raster.Plane
}

// Backend is the full capability set required by the forensic engine.
type Backend interface {
	Codec
	Filters
	Name() string
}

// GaussianSigma mirrors the sigma OpenCV derives for a kernel of size k when none is given.
func GaussianSigma(k int) float64 {
	return 0.3*(float64(k-1)*0.5-1) + 0.8
}
