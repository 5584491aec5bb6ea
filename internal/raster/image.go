package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// Image is an 8-bit, 3-channel RGB raster stored row-major and interleaved.
type Image struct {
	Width  int
	Height int
	Pix    []uint8

	// Quant is the luminance quantization table of the JPEG the raster was
	// decoded from. It is nil for every other provenance.
	Quant *QuantizationTable
}

// New allocates a black raster.
func New(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// FromImage converts any image.Image into an RGB raster, dropping alpha.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, src, bounds.Min, draw.Src)
	}

	out := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		dst := out.Pix[y*out.Width*3:]
		for x := 0; x < out.Width; x++ {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}
	return out
}

// ToRGBA returns an opaque image.RGBA copy suitable for the standard encoders.
func (m *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, j := 0, 0; i < len(m.Pix); i, j = i+3, j+4 {
		out.Pix[j] = m.Pix[i]
		out.Pix[j+1] = m.Pix[i+1]
		out.Pix[j+2] = m.Pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}

// Clone returns a deep copy. The quantization table is shared since it is never mutated.
func (m *Image) Clone() *Image {
	out := &Image{
		Width:  m.Width,
		Height: m.Height,
		Pix:    make([]uint8, len(m.Pix)),
		Quant:  m.Quant,
	}
	copy(out.Pix, m.Pix)
	return out
}

// Empty reports whether the raster has no pixels.
func (m *Image) Empty() bool {
	return m == nil || m.Width <= 0 || m.Height <= 0 || len(m.Pix) < m.Width*m.Height*3
}

// SameSize reports whether both rasters have identical dimensions.
func (m *Image) SameSize(other *Image) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// RGBAt returns the channels of pixel (x, y).
func (m *Image) RGBAt(x, y int) (r, g, b uint8) {
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// SetRGB sets the channels of pixel (x, y).
func (m *Image) SetRGB(x, y int, r, g, b uint8) {
	i := (y*m.Width + x) * 3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Fill paints every pixel with c.
func (m *Image) Fill(c color.RGBA) {
	for i := 0; i < len(m.Pix); i += 3 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2] = c.R, c.G, c.B
	}
}

// Gray projects the raster to luma using the BT.601 weights of color.GrayModel.
func (m *Image) Gray() *Plane {
	p := NewPlane(m.Width, m.Height)
	for i, j := 0, 0; j < len(p.Pix); i, j = i+3, j+1 {
		p.Pix[j] = float64(Luma(m.Pix[i], m.Pix[i+1], m.Pix[i+2]))
	}
	return p
}

// FromPlane expands a single-channel plane into a gray RGB raster, clamping to [0,255].
func FromPlane(p *Plane) *Image {
	out := New(p.Width, p.Height)
	for j, v := range p.Pix {
		c := Clamp(v)
		out.Pix[j*3], out.Pix[j*3+1], out.Pix[j*3+2] = c, c, c
	}
	return out
}

// Luma is the BT.601 luma of an RGB triple, matching color.GrayModel.
func Luma(r, g, b uint8) uint8 {
	y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return uint8(y)
}

// Clamp rounds v to the nearest integer and clamps it into [0,255].
func Clamp(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
