package forensics

import (
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

// StandardELA recompresses img once at quality and returns the absolute
// difference, normalized so the largest error maps to 255*scale/10.
// Bright regions carry disproportionately high compression error.
func (e *Engine) StandardELA(img *raster.Image, quality int, scale, denoise float64) (*Result, error) {
	recompressed, err := e.Recompress(img, quality)
	if err != nil {
		return nil, err
	}

	diff := absDiff(img, recompressed)

	var maxDiff uint8
	for _, v := range diff.Pix {
		if v > maxDiff {
			maxDiff = v
		}
	}
	if maxDiff == 0 {
		maxDiff = 1
	}
	gain(diff, 255.0/float64(maxDiff)*(scale/10.0))

	if denoise > 0 {
		diff = e.backend.Denoise(diff, denoise)
	}
	return &Result{Image: diff, Label: LabelStandardELA}, nil
}

// DeltaELA recompresses the original independently at qualityHigh and
// qualityLow and amplifies the difference between the two results by scale.
// qualityHigh > qualityLow is expected but not enforced.
func (e *Engine) DeltaELA(img *raster.Image, qualityHigh, qualityLow int, scale, denoise float64) (*Result, error) {
	high, err := e.Recompress(img, qualityHigh)
	if err != nil {
		return nil, err
	}
	low, err := e.Recompress(img, qualityLow)
	if err != nil {
		return nil, err
	}

	diff := absDiff(high, low)
	gain(diff, scale)

	if denoise > 0 {
		diff = e.backend.Denoise(diff, denoise)
	}
	return &Result{Image: diff, Label: LabelDeltaELA}, nil
}
