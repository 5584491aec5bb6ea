package strategy

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/forensics"
	"github.com/maxedonia/ela-mate-web/internal/logger"
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

// AnalysisStrategy defines the interface for the forensic analysis modes
type AnalysisStrategy interface {
	Analyze(img *raster.Image, params forensics.Parameters) (*forensics.Result, error)
	GetStrategyName() forensics.Mode
}

// StandardELAStrategy recompresses once and amplifies the error level
type StandardELAStrategy struct {
	engine *forensics.Engine
}

// NewStandardELAStrategy creates a new standard ELA strategy
func NewStandardELAStrategy(engine *forensics.Engine) AnalysisStrategy {
	return &StandardELAStrategy{
		engine: engine,
	}
}

// Analyze performs standard error level analysis
func (s *StandardELAStrategy) Analyze(img *raster.Image, params forensics.Parameters) (*forensics.Result, error) {
	return s.engine.StandardELA(img, params.Quality, params.Scale, params.Denoise)
}

// GetStrategyName returns the strategy name
func (s *StandardELAStrategy) GetStrategyName() forensics.Mode {
	return forensics.ModeELA
}

// DeltaELAStrategy compares two recompressions at different qualities
type DeltaELAStrategy struct {
	engine *forensics.Engine
}

// NewDeltaELAStrategy creates a new delta ELA strategy
func NewDeltaELAStrategy(engine *forensics.Engine) AnalysisStrategy {
	return &DeltaELAStrategy{
		engine: engine,
	}
}

// Analyze performs delta error level analysis
func (s *DeltaELAStrategy) Analyze(img *raster.Image, params forensics.Parameters) (*forensics.Result, error) {
	if params.QualityHigh <= params.QualityLow {
		logger.WithFields(logrus.Fields{
			"quality_high": params.QualityHigh,
			"quality_low":  params.QualityLow,
		}).Debug("Delta ELA qualities are not descending")
	}
	return s.engine.DeltaELA(img, params.QualityHigh, params.QualityLow, params.Scale, params.Denoise)
}

// GetStrategyName returns the strategy name
func (s *DeltaELAStrategy) GetStrategyName() forensics.Mode {
	return forensics.ModeDelta
}

// NoiseVarianceStrategy maps local luminance variance
type NoiseVarianceStrategy struct {
	engine *forensics.Engine
}

// NewNoiseVarianceStrategy creates a new noise variance strategy
func NewNoiseVarianceStrategy(engine *forensics.Engine) AnalysisStrategy {
	return &NoiseVarianceStrategy{
		engine: engine,
	}
}

// Analyze performs noise variance analysis
func (s *NoiseVarianceStrategy) Analyze(img *raster.Image, params forensics.Parameters) (*forensics.Result, error) {
	return s.engine.NoiseVariance(img, params.Intensity, params.Denoise)
}

// GetStrategyName returns the strategy name
func (s *NoiseVarianceStrategy) GetStrategyName() forensics.Mode {
	return forensics.ModeNoise
}

// AnalysisContext selects a strategy by mode and runs it
type AnalysisContext struct {
	strategies map[forensics.Mode]AnalysisStrategy
}

// NewAnalysisContext creates a context with one strategy per supported mode
func NewAnalysisContext(engine *forensics.Engine) *AnalysisContext {
	c := &AnalysisContext{strategies: make(map[forensics.Mode]AnalysisStrategy)}
	c.SetStrategy(NewStandardELAStrategy(engine))
	c.SetStrategy(NewDeltaELAStrategy(engine))
	c.SetStrategy(NewNoiseVarianceStrategy(engine))
	return c
}

// SetStrategy registers or replaces the strategy for its mode
func (c *AnalysisContext) SetStrategy(strategy AnalysisStrategy) {
	c.strategies[strategy.GetStrategyName()] = strategy
}

// ExecuteAnalysis runs the strategy registered for params.Mode
func (c *AnalysisContext) ExecuteAnalysis(img *raster.Image, params forensics.Parameters) (*forensics.Result, error) {
	strategy, ok := c.strategies[params.Mode]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported analysis mode %q", params.Mode), nil)
	}
	return strategy.Analyze(img, params)
}

// Modes lists the registered modes in sorted order
func (c *AnalysisContext) Modes() []forensics.Mode {
	modes := make([]forensics.Mode, 0, len(c.strategies))
	for m := range c.strategies {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
