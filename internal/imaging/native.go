package imaging

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math"

	"github.com/maxedonia/ela-mate-web/internal/raster"
)

const (
	nlmPatchRadius  = 1
	nlmSearchRadius = 3
)

// native implements Backend in pure Go on top of image/jpeg.
type native struct{}

// NewNative returns the pure Go backend.
func NewNative() Backend {
	return &native{}
}

func (n *native) Name() string {
	return "native"
}

// Recompress performs a JPEG round trip through the standard library codec.
func (n *native) Recompress(img *raster.Image, quality int) (*raster.Image, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img.ToRGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	data := buf.Bytes()

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("jpeg decode: %w", err)
	}

	out := raster.FromImage(decoded)
	out.Quant = raster.ParseQuantTable(data)
	return out, nil
}

func (n *native) BoxMean(p *raster.Plane, k int) *raster.Plane {
	kernel := make([]float64, k)
	for i := range kernel {
		kernel[i] = 1
	}
	out := convolveSeparable(p, kernel)
	area := float64(k * k)
	for i := range out.Pix {
		out.Pix[i] /= area
	}
	return out
}

func (n *native) GaussianBlur(p *raster.Plane, k int, sigma float64) *raster.Plane {
	if sigma <= 0 {
		sigma = GaussianSigma(k)
	}
	kernel := make([]float64, k)
	half := float64(k-1) / 2
	var sum float64
	for i := range kernel {
		d := float64(i) - half
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return convolveSeparable(p, kernel)
}

func (n *native) Denoise(img *raster.Image, strength float64) *raster.Image {
	out := raster.New(img.Width, img.Height)
	out.Quant = img.Quant
	nlm(img.Width, img.Height, 3, strength,
		func(x, y, c int) float64 { return float64(img.Pix[(y*img.Width+x)*3+c]) },
		func(x, y, c int, v float64) { out.Pix[(y*img.Width+x)*3+c] = raster.Clamp(v) })
	return out
}

func (n *native) DenoisePlane(p *raster.Plane, strength float64) *raster.Plane {
	out := raster.NewPlane(p.Width, p.Height)
	nlm(p.Width, p.Height, 1, strength,
		func(x, y, _ int) float64 { return p.Pix[y*p.Width+x] },
		func(x, y, _ int, v float64) { out.Pix[y*p.Width+x] = v })
	return out
}

func (n *native) Close(mask *raster.Plane, k int) *raster.Plane {
	return morph(morph(mask, k, math.Max), k, math.Min)
}

// reflect101 maps an out-of-range index the way OpenCV's BORDER_REFLECT_101 does.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// convolveSeparable applies kernel horizontally then vertically.
func convolveSeparable(p *raster.Plane, kernel []float64) *raster.Plane {
	w, h := p.Width, p.Height
	r := len(kernel) / 2
	tmp := raster.NewPlane(w, h)
	for y := 0; y < h; y++ {
		row := p.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				acc += kv * row[reflect101(x+i-r, w)]
			}
			tmp.Pix[y*w+x] = acc
		}
	}

	out := raster.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				acc += kv * tmp.Pix[reflect101(y+i-r, h)*w+x]
			}
			out.Pix[y*w+x] = acc
		}
	}
	return out
}

// morph applies a k x k square max (dilate) or min (erode); out-of-range samples are ignored.
func morph(p *raster.Plane, k int, pick func(a, b float64) float64) *raster.Plane {
	w, h := p.Width, p.Height
	r := k / 2
	tmp := raster.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := p.Pix[y*w+x]
			for dx := -r; dx <= r; dx++ {
				if xx := x + dx; xx >= 0 && xx < w {
					v = pick(v, p.Pix[y*w+xx])
				}
			}
			tmp.Pix[y*w+x] = v
		}
	}

	out := raster.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := tmp.Pix[y*w+x]
			for dy := -r; dy <= r; dy++ {
				if yy := y + dy; yy >= 0 && yy < h {
					v = pick(v, tmp.Pix[yy*w+x])
				}
			}
			out.Pix[y*w+x] = v
		}
	}
	return out
}

// nlm is a straightforward non-local-means filter: every sample becomes the
// average of the samples in its search window, weighted by patch similarity.
func nlm(w, h, channels int, strength float64,
	get func(x, y, c int) float64, set func(x, y, c int, v float64)) {
	h2 := strength * strength
	patchArea := float64((2*nlmPatchRadius + 1) * (2*nlmPatchRadius + 1) * channels)
	acc := make([]float64, channels)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := range acc {
				acc[c] = 0
			}
			var wsum float64

			for sy := -nlmSearchRadius; sy <= nlmSearchRadius; sy++ {
				for sx := -nlmSearchRadius; sx <= nlmSearchRadius; sx++ {
					qx, qy := reflect101(x+sx, w), reflect101(y+sy, h)

					var d2 float64
					for py := -nlmPatchRadius; py <= nlmPatchRadius; py++ {
						ay, by := reflect101(y+py, h), reflect101(qy+py, h)
						for px := -nlmPatchRadius; px <= nlmPatchRadius; px++ {
							ax, bx := reflect101(x+px, w), reflect101(qx+px, w)
							for c := 0; c < channels; c++ {
								d := get(ax, ay, c) - get(bx, by, c)
								d2 += d * d
							}
						}
					}
					weight := math.Exp(-(d2 / patchArea) / h2)

					for c := 0; c < channels; c++ {
						acc[c] += weight * get(qx, qy, c)
					}
					wsum += weight
				}
			}

			for c := 0; c < channels; c++ {
				set(x, y, c, acc[c]/wsum)
			}
		}
	}
}
