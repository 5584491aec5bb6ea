package forensics

import (
	"fmt"
	"math"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
)

// Mode selects the analyzer that produces the raw analysis raster.
type Mode string

const (
	ModeELA   Mode = "ela"
	ModeDelta Mode = "delta"
	ModeNoise Mode = "noise"
)

// Modes lists every supported analysis mode.
func Modes() []Mode {
	return []Mode{ModeELA, ModeDelta, ModeNoise}
}

// View controls how the analysis raster is presented over the original.
type View struct {
	Heatmap     bool
	Sensitivity float64
	// Opacity weights the analysis (or heatmap highlight) against the original.
	Opacity float64
	// Split, when set, renders a split view at this percentage of the width.
	Split *float64
}

// Parameters is the immutable per-call configuration of the engine.
type Parameters struct {
	Mode Mode

	// Standard ELA
	Quality int
	Scale   float64

	// Delta ELA reuses Scale as a direct gain
	QualityHigh int
	QualityLow  int

	// Noise variance
	Intensity float64

	Denoise float64

	View View
}

// DefaultHeatmapOpacity is the highlight strength when a heatmap is requested
// without an explicit opacity.
const DefaultHeatmapOpacity = 0.5

// DefaultParameters returns standard ELA at quality 90 and scale 15.
func DefaultParameters() Parameters {
	return Parameters{
		Mode:        ModeELA,
		Quality:     90,
		Scale:       15,
		QualityHigh: 95,
		QualityLow:  75,
		Intensity:   10,
		View: View{
			Sensitivity: 50,
			Opacity:     1,
		},
	}
}

// DeltaParameters returns delta ELA between quality 95 and 75.
func DeltaParameters() Parameters {
	p := DefaultParameters()
	p.Mode = ModeDelta
	p.Scale = 10
	return p
}

// NoiseParameters returns the noise variance ("warp") detector.
func NoiseParameters() Parameters {
	p := DefaultParameters()
	p.Mode = ModeNoise
	return p
}

// WithQuality sets the single-pass recompression quality
func (p Parameters) WithQuality(quality int) Parameters {
	p.Quality = quality
	return p
}

// WithQualities sets the two delta recompression qualities
func (p Parameters) WithQualities(high, low int) Parameters {
	p.QualityHigh = high
	p.QualityLow = low
	return p
}

func (p Parameters) WithScale(scale float64) Parameters {
	p.Scale = scale
	return p
}

func (p Parameters) WithIntensity(intensity float64) Parameters {
	p.Intensity = intensity
	return p
}

func (p Parameters) WithDenoise(strength float64) Parameters {
	p.Denoise = strength
	return p
}

// WithHeatmap enables the heatmap overlay
func (p Parameters) WithHeatmap(sensitivity, opacity float64) Parameters {
	p.View.Heatmap = true
	p.View.Sensitivity = sensitivity
	p.View.Opacity = opacity
	return p
}

// WithOpacity sets the blend opacity of the analysis over the original
func (p Parameters) WithOpacity(opacity float64) Parameters {
	p.View.Opacity = opacity
	return p
}

// WithSplit renders a split view at pct percent of the width
func (p Parameters) WithSplit(pct float64) Parameters {
	p.View.Split = &pct
	return p
}

// Validate checks every field used by the selected mode against its documented range.
func (p Parameters) Validate() error {
	switch p.Mode {
	case ModeELA:
		if err := checkQuality("quality", p.Quality); err != nil {
			return err
		}
		if err := checkRange("scale", p.Scale, 1, 100); err != nil {
			return err
		}
	case ModeDelta:
		if err := checkQuality("quality_high", p.QualityHigh); err != nil {
			return err
		}
		if err := checkQuality("quality_low", p.QualityLow); err != nil {
			return err
		}
		if err := checkRange("scale", p.Scale, 1, 100); err != nil {
			return err
		}
	case ModeNoise:
		if err := checkRange("intensity", p.Intensity, 1, 100); err != nil {
			return err
		}
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported mode %q", p.Mode), nil)
	}

	if err := checkRange("denoise", p.Denoise, 0, 100); err != nil {
		return err
	}
	if err := checkRange("opacity", p.View.Opacity, 0, 1); err != nil {
		return err
	}
	if p.View.Heatmap {
		if err := checkRange("sensitivity", p.View.Sensitivity, 1, 100); err != nil {
			return err
		}
	}
	if p.View.Split != nil {
		if err := checkRange("split", *p.View.Split, 0, 100); err != nil {
			return err
		}
	}
	return nil
}

func checkQuality(name string, q int) error {
	if q < 1 || q > 100 {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be in [1,100], got %d", name, q), nil)
	}
	return nil
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be in [%g,%g], got %g", name, lo, hi, v), nil)
	}
	return nil
}
