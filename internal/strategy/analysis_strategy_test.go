package strategy

import (
	"testing"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/forensics"
	"github.com/maxedonia/ela-mate-web/internal/imaging"
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

func createTestImage(width, height int) *raster.Image {
	img := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x*29 + y*53) % 256)
			img.SetRGB(x, y, v, 255-v, uint8(x*8))
		}
	}
	return img
}

func TestAnalysisContext_DispatchByMode(t *testing.T) {
	ctx := NewAnalysisContext(forensics.NewEngine(imaging.NewNative()))
	img := createTestImage(32, 32)

	tests := []struct {
		params    forensics.Parameters
		wantLabel string
	}{
		{forensics.DefaultParameters(), forensics.LabelStandardELA},
		{forensics.DeltaParameters(), forensics.LabelDeltaELA},
		{forensics.NoiseParameters(), forensics.LabelNoiseVariance},
	}

	for _, tt := range tests {
		t.Run(string(tt.params.Mode), func(t *testing.T) {
			res, err := ctx.ExecuteAnalysis(img, tt.params)
			if err != nil {
				t.Fatalf("ExecuteAnalysis failed: %v", err)
			}
			if res.Label != tt.wantLabel {
				t.Errorf("Expected label %q, got %q", tt.wantLabel, res.Label)
			}
			if res.Image.Width != 32 || res.Image.Height != 32 {
				t.Errorf("Expected 32x32 result, got %dx%d", res.Image.Width, res.Image.Height)
			}
		})
	}
}

func TestAnalysisContext_UnknownMode(t *testing.T) {
	ctx := NewAnalysisContext(forensics.NewEngine(imaging.NewNative()))

	params := forensics.DefaultParameters()
	params.Mode = "wavelet"
	_, err := ctx.ExecuteAnalysis(createTestImage(8, 8), params)
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestAnalysisContext_Modes(t *testing.T) {
	ctx := NewAnalysisContext(forensics.NewEngine(imaging.NewNative()))

	modes := ctx.Modes()
	want := []forensics.Mode{forensics.ModeDelta, forensics.ModeELA, forensics.ModeNoise}
	if len(modes) != len(want) {
		t.Fatalf("Expected %d modes, got %d", len(want), len(modes))
	}
	for i := range want {
		if modes[i] != want[i] {
			t.Errorf("Expected mode %q at %d, got %q", want[i], i, modes[i])
		}
	}
}

type stubStrategy struct {
	calls int
}

func (s *stubStrategy) Analyze(img *raster.Image, _ forensics.Parameters) (*forensics.Result, error) {
	s.calls++
	return &forensics.Result{Image: img.Clone(), Label: "stub"}, nil
}

func (s *stubStrategy) GetStrategyName() forensics.Mode {
	return forensics.ModeELA
}

func TestAnalysisContext_SetStrategyReplaces(t *testing.T) {
	ctx := NewAnalysisContext(forensics.NewEngine(imaging.NewNative()))
	stub := &stubStrategy{}
	ctx.SetStrategy(stub)

	res, err := ctx.ExecuteAnalysis(createTestImage(4, 4), forensics.DefaultParameters())
	if err != nil {
		t.Fatalf("ExecuteAnalysis failed: %v", err)
	}
	if stub.calls != 1 || res.Label != "stub" {
		t.Errorf("Expected replaced strategy to run once, calls=%d label=%q", stub.calls, res.Label)
	}
}
