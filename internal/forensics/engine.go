// Package forensics implements the manipulation-detection analyzers: error
// level analysis, delta ELA, noise variance, quality estimation, heatmap
// rendering and compositing.
//
// Every operation is a synchronous, pure transformation. Inputs are never
// modified and no state is kept between calls, so an Engine may be shared by
// concurrent callers.
package forensics

import (
	"fmt"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/imaging"
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

// Labels identifying which analyzer produced a Result.
const (
	LabelStandardELA   = "Standard ELA"
	LabelDeltaELA      = "Delta ELA"
	LabelNoiseVariance = "Noise Variance"
)

// Result is an analysis raster plus the name of the analyzer that produced it.
type Result struct {
	Image *raster.Image
	Label string
}

// Engine runs the analyzers on top of a codec/filter backend.
type Engine struct {
	backend imaging.Backend
}

// NewEngine creates an engine using the given backend.
func NewEngine(backend imaging.Backend) *Engine {
	return &Engine{backend: backend}
}

// Backend returns the name of the capability backend in use.
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// Recompress returns img after a lossy round trip at quality.
func (e *Engine) Recompress(img *raster.Image, quality int) (*raster.Image, error) {
	if img.Empty() {
		return nil, apperrors.NewInvalidInputError("raster is empty", nil)
	}
	if quality < 1 || quality > 100 {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("quality must be in [1,100], got %d", quality), nil)
	}

	out, err := e.backend.Recompress(img, quality)
	if err != nil {
		return nil, apperrors.NewCodecError(fmt.Sprintf("recompression at quality %d failed", quality), err)
	}
	if !out.SameSize(img) {
		return nil, apperrors.NewCodecError(
			fmt.Sprintf("codec changed dimensions from %dx%d to %dx%d", img.Width, img.Height, out.Width, out.Height), nil)
	}
	return out, nil
}

// absDiff returns |a-b| per channel.
func absDiff(a, b *raster.Image) *raster.Image {
	out := raster.New(a.Width, a.Height)
	for i := range a.Pix {
		if a.Pix[i] > b.Pix[i] {
			out.Pix[i] = a.Pix[i] - b.Pix[i]
		} else {
			out.Pix[i] = b.Pix[i] - a.Pix[i]
		}
	}
	return out
}

// gain multiplies every channel by factor, rounding and clamping in place.
func gain(img *raster.Image, factor float64) {
	for i, v := range img.Pix {
		img.Pix[i] = raster.Clamp(float64(v) * factor)
	}
}

func requireSameSize(original, analysis *raster.Image) error {
	if original.Empty() || analysis.Empty() {
		return apperrors.NewInvalidInputError("raster is empty", nil)
	}
	if !original.SameSize(analysis) {
		return apperrors.NewInvalidInputError(fmt.Sprintf("dimension mismatch: %dx%d vs %dx%d",
			original.Width, original.Height, analysis.Width, analysis.Height), nil)
	}
	return nil
}
