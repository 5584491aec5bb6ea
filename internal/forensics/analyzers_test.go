package forensics

import (
	"bytes"
	"image/color"
	"testing"

	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/imaging"
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

func TestRecompress_Errors(t *testing.T) {
	img := createTextured(16, 16)

	tests := []struct {
		name     string
		backend  *fakeBackend
		img      *raster.Image
		quality  int
		wantType apperrors.ErrorType
	}{
		{"empty raster", newFakeBackend(), raster.New(0, 0), 90, apperrors.ErrorTypeInvalidInput},
		{"quality too low", newFakeBackend(), img, 0, apperrors.ErrorTypeInvalidInput},
		{"quality too high", newFakeBackend(), img, 101, apperrors.ErrorTypeInvalidInput},
		{"codec failure", &fakeBackend{Backend: imaging.NewNative(), fail: true}, img, 90, apperrors.ErrorTypeCodec},
		{"codec changes size", &fakeBackend{Backend: imaging.NewNative(), resize: true}, img, 90, apperrors.ErrorTypeCodec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.backend).Recompress(tt.img, tt.quality)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestRecompress_NativeNearIdentityAtMaxQuality(t *testing.T) {
	img := createGrayGradient(64, 64)
	out, err := NewEngine(imaging.NewNative()).Recompress(img, 100)
	if err != nil {
		t.Fatalf("Recompress failed: %v", err)
	}

	diff := absDiff(img, out)
	for i, v := range diff.Pix {
		if v > 4 {
			t.Fatalf("Expected near-identity at quality 100, got difference %d at %d", v, i)
		}
	}
}

// The all-black result holds for an exact codec only. A real codec at quality
// 100 leaves a few levels of chroma error (bounded above), and max
// normalisation then stretches that error to full range.
func TestStandardELA_IdentityAtMaxQuality(t *testing.T) {
	engine := NewEngine(newFakeBackend())
	img := createTextured(40, 30)

	for _, scale := range []float64{1, 15, 100} {
		res, err := engine.StandardELA(img, 100, scale, 0)
		if err != nil {
			t.Fatalf("StandardELA failed: %v", err)
		}
		if !allZero(res.Image) {
			t.Errorf("Expected all-black result at quality 100 with scale %f", scale)
		}
		if res.Label != LabelStandardELA {
			t.Errorf("Expected label %q, got %q", LabelStandardELA, res.Label)
		}
	}
}

func TestStandardELA_Normalization(t *testing.T) {
	engine := NewEngine(newFakeBackend())
	img := createSolid(8, 8, color.RGBA{100, 100, 100, 255})

	tests := []struct {
		scale float64
		want  uint8
	}{
		{10, 255},
		{5, 128},
		{1, 26},
		{100, 255},
	}

	for _, tt := range tests {
		// quality 90 shifts every channel by exactly one level
		res, err := engine.StandardELA(img, 90, tt.scale, 0)
		if err != nil {
			t.Fatalf("StandardELA failed: %v", err)
		}
		for i, v := range res.Image.Pix {
			if v != tt.want {
				t.Fatalf("scale %f: expected %d at %d, got %d", tt.scale, tt.want, i, v)
			}
		}
	}
}

func TestStandardELA_DoesNotMutateInput(t *testing.T) {
	img := createTextured(20, 20)
	before := img.Clone()

	if _, err := NewEngine(newFakeBackend()).StandardELA(img, 70, 15, 3); err != nil {
		t.Fatalf("StandardELA failed: %v", err)
	}
	if !bytes.Equal(img.Pix, before.Pix) {
		t.Error("Expected input raster to be left untouched")
	}
}

func TestDenoiseZeroIsNoOp(t *testing.T) {
	img := createTextured(24, 24)

	run := func(denoise float64) ([][]byte, int) {
		backend := newFakeBackend()
		engine := NewEngine(backend)

		ela, err := engine.StandardELA(img, 80, 15, denoise)
		if err != nil {
			t.Fatalf("StandardELA failed: %v", err)
		}
		delta, err := engine.DeltaELA(img, 90, 60, 10, denoise)
		if err != nil {
			t.Fatalf("DeltaELA failed: %v", err)
		}
		noise, err := engine.NoiseVariance(img, 10, denoise)
		if err != nil {
			t.Fatalf("NoiseVariance failed: %v", err)
		}
		return [][]byte{ela.Image.Pix, delta.Image.Pix, noise.Image.Pix}, backend.denoiseCalls
	}

	first, calls := run(0)
	if calls != 0 {
		t.Errorf("Expected no denoise calls for strength 0, got %d", calls)
	}
	second, _ := run(0)
	for i := range first {
		if !bytes.Equal(first[i], second[i]) {
			t.Errorf("Expected byte-identical output for analyzer %d", i)
		}
	}

	if _, calls = run(5); calls != 3 {
		t.Errorf("Expected one denoise call per analyzer, got %d", calls)
	}
}

func TestDeltaELA_Collapse(t *testing.T) {
	img := createTextured(48, 32)

	for _, backend := range []imaging.Backend{newFakeBackend(), imaging.NewNative()} {
		res, err := NewEngine(backend).DeltaELA(img, 100, 100, 50, 0)
		if err != nil {
			t.Fatalf("%s: DeltaELA failed: %v", backend.Name(), err)
		}
		if !allZero(res.Image) {
			t.Errorf("%s: expected all-zero delta for identical qualities", backend.Name())
		}
	}
}

func TestDeltaELA_IndependentPassesAndGain(t *testing.T) {
	img := createSolid(10, 10, color.RGBA{100, 100, 100, 255})

	// quality 90 shifts by 1 and quality 70 by 3; independent passes differ by 2
	res, err := NewEngine(newFakeBackend()).DeltaELA(img, 90, 70, 5, 0)
	if err != nil {
		t.Fatalf("DeltaELA failed: %v", err)
	}
	for i, v := range res.Image.Pix {
		if v != 10 {
			t.Fatalf("Expected 10 at %d, got %d", i, v)
		}
	}
	if res.Label != LabelDeltaELA {
		t.Errorf("Expected label %q, got %q", LabelDeltaELA, res.Label)
	}
}

func TestNoiseVariance_FlatField(t *testing.T) {
	engine := NewEngine(imaging.NewNative())
	sizes := [][2]int{{1, 1}, {2, 2}, {5, 3}, {64, 64}}

	for _, size := range sizes {
		img := createSolid(size[0], size[1], color.RGBA{77, 140, 201, 255})
		for _, intensity := range []float64{1, 50, 100} {
			res, err := engine.NoiseVariance(img, intensity, 0)
			if err != nil {
				t.Fatalf("NoiseVariance failed: %v", err)
			}
			if !allZero(res.Image) {
				t.Errorf("Expected all-zero variance for %dx%d at intensity %f", size[0], size[1], intensity)
			}
		}
	}
}

func TestNoiseVariance_TextureIsBright(t *testing.T) {
	img := raster.New(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x+y)%2 == 0 {
				img.SetRGB(x, y, 255, 255, 255)
			}
		}
	}

	res, err := NewEngine(imaging.NewNative()).NoiseVariance(img, 1, 0)
	if err != nil {
		t.Fatalf("NoiseVariance failed: %v", err)
	}
	r, g, b := res.Image.RGBAt(8, 8)
	if r != 255 || g != r || b != r {
		t.Errorf("Expected saturated gray pixel, got (%d,%d,%d)", r, g, b)
	}
	if res.Label != LabelNoiseVariance {
		t.Errorf("Expected label %q, got %q", LabelNoiseVariance, res.Label)
	}
}

func TestNoiseVariance_Empty(t *testing.T) {
	_, err := NewEngine(imaging.NewNative()).NoiseVariance(raster.New(0, 5), 10, 0)
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
		t.Errorf("Expected invalid input error, got %v", err)
	}
}

func TestDimensionPreservation(t *testing.T) {
	engine := NewEngine(newFakeBackend())
	img := createTextured(37, 23)

	ela, err := engine.StandardELA(img, 85, 15, 2)
	if err != nil {
		t.Fatalf("StandardELA failed: %v", err)
	}
	delta, err := engine.DeltaELA(img, 95, 75, 10, 2)
	if err != nil {
		t.Fatalf("DeltaELA failed: %v", err)
	}
	noise, err := engine.NoiseVariance(img, 10, 2)
	if err != nil {
		t.Fatalf("NoiseVariance failed: %v", err)
	}
	heat, err := engine.Heatmap(img, ela.Image, 50, 0.5)
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	blend, err := Blend(img, delta.Image, 0.3)
	if err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
	split, err := Split(img, noise.Image, 40)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for name, out := range map[string]*raster.Image{
		"ela": ela.Image, "delta": delta.Image, "noise": noise.Image,
		"heatmap": heat, "blend": blend, "split": split,
	} {
		if out.Width != 37 || out.Height != 23 || len(out.Pix) != 37*23*3 {
			t.Errorf("%s: expected 37x23, got %dx%d", name, out.Width, out.Height)
		}
	}
}
