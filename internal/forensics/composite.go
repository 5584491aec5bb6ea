package forensics

import (
	"image/color"

	"github.com/maxedonia/ela-mate-web/internal/raster"
)

const markerWidth = 2

// MarkerColor is the solid line drawn at the split boundary.
var MarkerColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Blend interpolates original*(1-opacity) + analysis*opacity. Opacity 0 and 1
// reproduce original and analysis exactly.
func Blend(original, analysis *raster.Image, opacity float64) (*raster.Image, error) {
	if err := requireSameSize(original, analysis); err != nil {
		return nil, err
	}

	switch {
	case opacity <= 0:
		return original.Clone(), nil
	case opacity >= 1:
		return analysis.Clone(), nil
	}

	out := raster.New(original.Width, original.Height)
	for i := range out.Pix {
		out.Pix[i] = raster.Clamp(float64(original.Pix[i])*(1-opacity) + float64(analysis.Pix[i])*opacity)
	}
	return out, nil
}

// SplitColumn returns the first column belonging to the analysis side.
func SplitColumn(width int, pct float64) int {
	col := int(pct / 100 * float64(width))
	if col < 0 {
		return 0
	}
	if col > width {
		return width
	}
	return col
}

// Split shows original left of pct% of the width and analysis from there on,
// with a 2px marker line starting at the boundary column.
func Split(original, analysis *raster.Image, pct float64) (*raster.Image, error) {
	if err := requireSameSize(original, analysis); err != nil {
		return nil, err
	}

	w := original.Width
	boundary := SplitColumn(w, pct)
	out := raster.New(w, original.Height)
	for y := 0; y < original.Height; y++ {
		row := y * w * 3
		copy(out.Pix[row:row+boundary*3], original.Pix[row:row+boundary*3])
		copy(out.Pix[row+boundary*3:row+w*3], analysis.Pix[row+boundary*3:row+w*3])
		for x := boundary; x < boundary+markerWidth && x < w; x++ {
			out.SetRGB(x, y, MarkerColor.R, MarkerColor.G, MarkerColor.B)
		}
	}
	return out, nil
}

// Render applies the presentation stage of view to an analysis result:
// optional heatmap, then either a split view or an opacity blend.
func (e *Engine) Render(original *raster.Image, result *Result, view View) (*Result, error) {
	analysis := result.Image
	label := result.Label
	opacity := view.Opacity

	if view.Heatmap {
		hm, err := e.Heatmap(original, analysis, view.Sensitivity, view.Opacity)
		if err != nil {
			return nil, err
		}
		analysis = hm
		label += " Heatmap"
		// the highlight already carries the opacity
		opacity = 1
	}

	var (
		out *raster.Image
		err error
	)
	if view.Split != nil {
		out, err = Split(original, analysis, *view.Split)
	} else {
		out, err = Blend(original, analysis, opacity)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Image: out, Label: label}, nil
}
