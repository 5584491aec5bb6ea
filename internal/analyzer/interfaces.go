package analyzer

import "github.com/maxedonia/ela-mate-web/internal/raster"

// MetricsCalculator summarizes analysis rasters
type MetricsCalculator interface {
	// Summarize computes statistics over the luma of img; pixels strictly above
	// hotThreshold count towards HotFraction.
	Summarize(img *raster.Image, hotThreshold float64) Summary
	// CalculateLaplacianVariance scores the sharpness of p
	CalculateLaplacianVariance(p *raster.Plane) float64
}
