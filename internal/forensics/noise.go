package forensics

import (
	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

const varianceWindow = 3

// NoiseVariance maps the local 3x3 variance of the luma channel, amplified by
// intensity*2. Retouched (smoothed or warped) regions lose their sensor noise
// and show up as dark voids. The single-channel map is returned as gray RGB.
func (e *Engine) NoiseVariance(img *raster.Image, intensity, denoise float64) (*Result, error) {
	if img.Empty() {
		return nil, apperrors.NewInvalidInputError("raster is empty", nil)
	}

	gray := img.Gray()
	squares := raster.NewPlane(gray.Width, gray.Height)
	for i, v := range gray.Pix {
		squares.Pix[i] = v * v
	}

	mean := e.backend.BoxMean(gray, varianceWindow)
	meanSq := e.backend.BoxMean(squares, varianceWindow)

	variance := raster.NewPlane(gray.Width, gray.Height)
	k := intensity * 2
	for i := range variance.Pix {
		v := meanSq.Pix[i] - mean.Pix[i]*mean.Pix[i]
		if v < 0 {
			v = 0
		}
		v *= k
		if v > 255 {
			v = 255
		}
		variance.Pix[i] = v
	}

	if denoise > 0 {
		variance = e.backend.DenoisePlane(variance, denoise)
	}
	return &Result{Image: raster.FromPlane(variance), Label: LabelNoiseVariance}, nil
}
