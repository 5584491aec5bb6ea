package forensics

import (
	"errors"
	"image/color"

	"github.com/maxedonia/ela-mate-web/internal/imaging"
	"github.com/maxedonia/ela-mate-web/internal/raster"
)

// fakeBackend is a deterministic codec: quality 100 is the identity and every
// 10 quality points below it brighten each channel by one level. Filters come
// from the native backend; denoise calls are counted.
type fakeBackend struct {
	imaging.Backend
	fail         bool
	resize       bool
	denoiseCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{Backend: imaging.NewNative()}
}

func (f *fakeBackend) Name() string {
	return "fake"
}

func (f *fakeBackend) Recompress(img *raster.Image, quality int) (*raster.Image, error) {
	if f.fail {
		return nil, errors.New("unsupported color depth")
	}
	if f.resize {
		return raster.New(img.Width+1, img.Height), nil
	}

	out := img.Clone()
	shift := uint8((100 - quality) / 10)
	for i, v := range out.Pix {
		if int(v)+int(shift) > 255 {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = v + shift
		}
	}
	return out, nil
}

func (f *fakeBackend) Denoise(img *raster.Image, strength float64) *raster.Image {
	f.denoiseCalls++
	return f.Backend.Denoise(img, strength)
}

func (f *fakeBackend) DenoisePlane(p *raster.Plane, strength float64) *raster.Plane {
	f.denoiseCalls++
	return f.Backend.DenoisePlane(p, strength)
}

func createSolid(width, height int, c color.RGBA) *raster.Image {
	img := raster.New(width, height)
	img.Fill(c)
	return img
}

func createTextured(width, height int) *raster.Image {
	img := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x*37 + y*91 + (x*y)%23) % 256)
			img.SetRGB(x, y, v, uint8(x*255/width), uint8(y*255/height))
		}
	}
	return img
}

func createGrayGradient(width, height int) *raster.Image {
	img := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x + y) * 255 / (width + height))
			img.SetRGB(x, y, v, v, v)
		}
	}
	return img
}

func allZero(img *raster.Image) bool {
	for _, v := range img.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}
