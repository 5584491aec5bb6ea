package service

import (
	"github.com/maxedonia/ela-mate-web/internal/forensics"
	"github.com/maxedonia/ela-mate-web/pkg/models"
)

// Defaults are deployment-level overrides of the standard ELA preset
type Defaults struct {
	Quality int
	Scale   float64
}

// BuildParameters turns request parameters into engine parameters. Unset
// fields fall back to the preset for the requested mode, then to defaults.
func BuildParameters(p models.AnalysisParams, defaults Defaults) forensics.Parameters {
	var params forensics.Parameters
	switch forensics.Mode(p.Mode) {
	case forensics.ModeDelta:
		params = forensics.DeltaParameters()
	case forensics.ModeNoise:
		params = forensics.NoiseParameters()
	case "", forensics.ModeELA:
		params = forensics.DefaultParameters()
		if defaults.Quality > 0 {
			params = params.WithQuality(defaults.Quality)
		}
		if defaults.Scale > 0 {
			params = params.WithScale(defaults.Scale)
		}
	default:
		// left for Validate to reject
		params = forensics.DefaultParameters()
		params.Mode = forensics.Mode(p.Mode)
	}

	if p.Quality != nil {
		params = params.WithQuality(*p.Quality)
	}
	if p.QualityHigh != nil || p.QualityLow != nil {
		high, low := params.QualityHigh, params.QualityLow
		if p.QualityHigh != nil {
			high = *p.QualityHigh
		}
		if p.QualityLow != nil {
			low = *p.QualityLow
		}
		params = params.WithQualities(high, low)
	}
	if p.Scale != nil {
		params = params.WithScale(*p.Scale)
	}
	if p.Intensity != nil {
		params = params.WithIntensity(*p.Intensity)
	}
	if p.Denoise != nil {
		params = params.WithDenoise(*p.Denoise)
	}
	if p.Heatmap {
		sensitivity, opacity := params.View.Sensitivity, forensics.DefaultHeatmapOpacity
		if p.Sensitivity != nil {
			sensitivity = *p.Sensitivity
		}
		if p.Opacity != nil {
			opacity = *p.Opacity
		}
		params = params.WithHeatmap(sensitivity, opacity)
	} else if p.Opacity != nil {
		params = params.WithOpacity(*p.Opacity)
	}
	if p.Split != nil {
		params = params.WithSplit(*p.Split)
	}
	return params
}
