package forensics

import (
	"bytes"
	"image/color"
	"testing"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/imaging"
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

func TestEstimateQuality_RoundTrip(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	img := createTextured(64, 64)

	for _, q := range []int{50, 70, 90} {
		encoded, err := engine.Recompress(img, q)
		if err != nil {
			t.Fatalf("Recompress failed: %v", err)
		}
		got, ok := EstimateImageQuality(encoded)
		if !ok {
			t.Fatalf("Expected a quality estimate for quality %d", q)
		}
		if got < q-3 || got > q+3 {
			t.Errorf("Expected estimate within 3 of %d, got %d", q, got)
		}
	}
}

func TestEstimateQuality_KnownTables(t *testing.T) {
	var doubled, quadrupled raster.QuantizationTable
	for i := range doubled {
		doubled[i] = StandardLuminance[i] * 2
		quadrupled[i] = StandardLuminance[i] * 4
	}
	standard := StandardLuminance

	tests := []struct {
		name  string
		table *raster.QuantizationTable
		want  int
	}{
		{"annex K", &standard, 50},
		{"double scale", &doubled, 25},
		{"quadruple scale", &quadrupled, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EstimateQuality(tt.table)
			if !ok || got != tt.want {
				t.Errorf("Expected (%d, true), got (%d, %v)", tt.want, got, ok)
			}
		})
	}
}

func TestEstimateQuality_Unknown(t *testing.T) {
	if _, ok := EstimateImageQuality(createSolid(4, 4, color.RGBA{1, 2, 3, 255})); ok {
		t.Error("Expected unknown quality for a raster without a quantization table")
	}
	if _, ok := EstimateImageQuality(nil); ok {
		t.Error("Expected unknown quality for nil raster")
	}

	broken := StandardLuminance
	broken[10] = 0
	if _, ok := EstimateQuality(&broken); ok {
		t.Error("Expected unknown quality for a table with a zero entry")
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		sensitivity float64
		want        int
	}{
		{50, 130},
		{1, 250},
		{0, 250},
		{100, 10},
		{98, 10},
		{20, 205},
	}
	for _, tt := range tests {
		if got := Threshold(tt.sensitivity); got != tt.want {
			t.Errorf("Threshold(%f) = %d, want %d", tt.sensitivity, got, tt.want)
		}
	}
}

func TestHeatmap_OpacityZeroIsIdentity(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	original := createTextured(30, 30)
	analysis := createSolid(30, 30, color.RGBA{255, 255, 255, 255})

	out, err := engine.Heatmap(original, analysis, 100, 0)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	if !bytes.Equal(out.Pix, original.Pix) {
		t.Error("Expected opacity 0 to reproduce the original")
	}
}

func TestHeatmap_FullOpacitySaturatedMask(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	original := createTextured(32, 32)
	analysis := createSolid(32, 32, color.RGBA{255, 255, 255, 255})

	out, err := engine.Heatmap(original, analysis, 50, 1)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	for _, p := range [][2]int{{0, 0}, {16, 16}, {31, 31}} {
		r, g, b := out.RGBAt(p[0], p[1])
		if r != 255 || g != 0 || b != 0 {
			t.Errorf("Expected pure highlight at %v, got (%d,%d,%d)", p, r, g, b)
		}
	}
}

func TestHeatmap_QuietAnalysisLeavesOriginal(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	original := createTextured(24, 24)
	analysis := createSolid(24, 24, color.RGBA{5, 5, 5, 255})

	out, err := engine.Heatmap(original, analysis, 100, 1)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	if !bytes.Equal(out.Pix, original.Pix) {
		t.Error("Expected no highlight below the clamped threshold")
	}
}

func TestHeatmapMask_RangeAndBlob(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	analysis := raster.New(40, 40)
	for y := 13; y < 28; y++ {
		for x := 13; x < 28; x++ {
			analysis.SetRGB(x, y, 255, 255, 255)
		}
	}

	mask := engine.HeatmapMask(analysis, 50)
	for i, w := range mask.Pix {
		if w < 0 || w > 1 {
			t.Fatalf("Expected weight in [0,1] at %d, got %f", i, w)
		}
	}
	if mask.At(20, 20) < 0.9 {
		t.Errorf("Expected strong weight inside the blob, got %f", mask.At(20, 20))
	}
	if mask.At(0, 0) > 0.01 {
		t.Errorf("Expected negligible weight far from the blob, got %f", mask.At(0, 0))
	}
}

func TestHeatmap_SizeMismatch(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	_, err := engine.Heatmap(raster.New(10, 10), raster.New(10, 11), 50, 0.5)
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
		t.Errorf("Expected invalid input error, got %v", err)
	}
}

func TestBlend_OpacityBounds(t *testing.T) {
	original := createTextured(20, 10)
	analysis := createSolid(20, 10, color.RGBA{9, 200, 31, 255})

	out, err := Blend(original, analysis, 0)
	if err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, original.Pix) {
		t.Error("Expected opacity 0 to reproduce the original")
	}

	out, err = Blend(original, analysis, 1)
	if err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, analysis.Pix) {
		t.Error("Expected opacity 1 to reproduce the analysis")
	}
}

func TestBlend_Midpoint(t *testing.T) {
	original := createSolid(4, 4, color.RGBA{0, 0, 0, 255})
	analysis := createSolid(4, 4, color.RGBA{200, 100, 50, 255})

	out, err := Blend(original, analysis, 0.5)
	if err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
	if r, g, b := out.RGBAt(2, 2); r != 100 || g != 50 || b != 25 {
		t.Errorf("Expected (100,50,25), got (%d,%d,%d)", r, g, b)
	}
}

func TestSplit_Exactness(t *testing.T) {
	original := createTextured(100, 100)
	analysis := createSolid(100, 100, color.RGBA{10, 20, 30, 255})

	out, err := Split(original, analysis, 30)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			r, g, b := out.RGBAt(x, y)
			var wr, wg, wb uint8
			switch {
			case x < 30:
				wr, wg, wb = original.RGBAt(x, y)
			case x < 32:
				wr, wg, wb = MarkerColor.R, MarkerColor.G, MarkerColor.B
			default:
				wr, wg, wb = analysis.RGBAt(x, y)
			}
			if r != wr || g != wg || b != wb {
				t.Fatalf("Mismatch at (%d,%d): got (%d,%d,%d), want (%d,%d,%d)", x, y, r, g, b, wr, wg, wb)
			}
		}
	}
}

func TestSplit_Extremes(t *testing.T) {
	original := createTextured(50, 10)
	analysis := createSolid(50, 10, color.RGBA{1, 2, 3, 255})

	out, err := Split(original, analysis, 100)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if !bytes.Equal(out.Pix, original.Pix) {
		t.Error("Expected split at 100% to show only the original")
	}

	out, err = Split(original, analysis, 0)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if r, g, b := out.RGBAt(0, 5); r != MarkerColor.R || g != MarkerColor.G || b != MarkerColor.B {
		t.Errorf("Expected marker at column 0, got (%d,%d,%d)", r, g, b)
	}
	if r, g, b := out.RGBAt(2, 5); r != 1 || g != 2 || b != 3 {
		t.Errorf("Expected analysis at column 2, got (%d,%d,%d)", r, g, b)
	}
}

func TestRender(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	original := createTextured(20, 20)
	analysis := &Result{Image: createSolid(20, 20, color.RGBA{255, 255, 255, 255}), Label: LabelStandardELA}

	out, err := engine.Render(original, analysis, View{Opacity: 1})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.Equal(out.Image.Pix, analysis.Image.Pix) || out.Label != LabelStandardELA {
		t.Error("Expected plain render at opacity 1 to return the analysis")
	}

	split := 50.0
	out, err = engine.Render(original, analysis, View{Heatmap: true, Sensitivity: 50, Opacity: 1, Split: &split})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.Label != LabelStandardELA+" Heatmap" {
		t.Errorf("Unexpected label %q", out.Label)
	}
	r, g, b := out.Image.RGBAt(3, 3)
	wr, wg, wb := original.RGBAt(3, 3)
	if r != wr || g != wg || b != wb {
		t.Error("Expected left half of split to be the original")
	}
	if r, g, b := out.Image.RGBAt(15, 10); r != 255 || g != 0 || b != 0 {
		t.Errorf("Expected highlighted right half, got (%d,%d,%d)", r, g, b)
	}
}

func TestParameters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Parameters
		wantErr bool
	}{
		{"default", DefaultParameters(), false},
		{"delta", DeltaParameters(), false},
		{"noise", NoiseParameters(), false},
		{"quality zero", DefaultParameters().WithQuality(0), true},
		{"quality too high", DefaultParameters().WithQuality(101), true},
		{"scale zero", DefaultParameters().WithScale(0), true},
		{"delta low out of range", DeltaParameters().WithQualities(95, 0), true},
		{"delta inverted allowed", DeltaParameters().WithQualities(60, 90), false},
		{"intensity too high", NoiseParameters().WithIntensity(101), true},
		{"negative denoise", DefaultParameters().WithDenoise(-1), true},
		{"opacity above one", DefaultParameters().WithOpacity(1.5), true},
		{"heatmap sensitivity zero", DefaultParameters().WithHeatmap(0, 0.5), true},
		{"heatmap ok", DefaultParameters().WithHeatmap(60, 0.5), false},
		{"split too far", DefaultParameters().WithSplit(120), true},
		{"split edge", DefaultParameters().WithSplit(100), false},
		{"unknown mode", Parameters{Mode: "blur"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error type, got %v", err)
			}
		})
	}
}

func TestParameters_WithMethodsDoNotAlias(t *testing.T) {
	base := DefaultParameters()
	_ = base.WithSplit(40).WithHeatmap(70, 0.3)

	if base.View.Split != nil || base.View.Heatmap {
		t.Error("Expected With* methods to leave the receiver unchanged")
	}
}
