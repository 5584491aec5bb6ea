package forensics

import (
	"image/color"

	"github.com/maxedonia/ela-mate-web/internal/raster"
)

const (
	closeKernel = 5
	blurKernel  = 15

	minThreshold = 10
	maxThreshold = 250
)

// HighlightColor is blended into the original where the heatmap fires.
var HighlightColor = color.RGBA{R: 255, A: 255}

// Threshold converts a sensitivity in [1,100] into the binary threshold used by
// the heatmap. Higher sensitivity lowers the threshold; the result stays in [10,250].
func Threshold(sensitivity float64) int {
	t := 255 - int(sensitivity*2.5)
	if t < minThreshold {
		return minThreshold
	}
	if t > maxThreshold {
		return maxThreshold
	}
	return t
}

// HeatmapMask thresholds the luma of analysis, closes small gaps between
// detections and feathers the edges. The returned weights lie in [0,1].
func (e *Engine) HeatmapMask(analysis *raster.Image, sensitivity float64) *raster.Plane {
	gray := analysis.Gray()
	t := float64(Threshold(sensitivity))

	mask := raster.NewPlane(gray.Width, gray.Height)
	for i, v := range gray.Pix {
		if v > t {
			mask.Pix[i] = 255
		}
	}

	mask = e.backend.Close(mask, closeKernel)
	mask = e.backend.GaussianBlur(mask, blurKernel, 0)

	for i, v := range mask.Pix {
		w := v / 255
		if w < 0 {
			w = 0
		} else if w > 1 {
			w = 1
		}
		mask.Pix[i] = w
	}
	return mask
}

// Heatmap paints HighlightColor over original wherever analysis exceeds the
// sensitivity threshold, weighted by mask*opacity. Opacity 0 returns a copy of original.
func (e *Engine) Heatmap(original, analysis *raster.Image, sensitivity, opacity float64) (*raster.Image, error) {
	if err := requireSameSize(original, analysis); err != nil {
		return nil, err
	}

	mask := e.HeatmapMask(analysis, sensitivity)
	hl := [3]float64{float64(HighlightColor.R), float64(HighlightColor.G), float64(HighlightColor.B)}

	out := raster.New(original.Width, original.Height)
	for j, w := range mask.Pix {
		a := w * opacity
		for c := 0; c < 3; c++ {
			i := j*3 + c
			out.Pix[i] = raster.Clamp(float64(original.Pix[i])*(1-a) + hl[c]*a)
		}
	}
	return out, nil
}
