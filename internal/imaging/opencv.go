//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/maxedonia/ela-mate-web/internal/raster"
)

// openCV implements Backend on top of OpenCV through gocv. Build with -tags gocv.
type openCV struct{}

// NewOpenCV returns the OpenCV-backed implementation.
func NewOpenCV() (Backend, error) {
	return &openCV{}, nil
}

func (o *openCV) Name() string {
	return "opencv"
}

func (o *openCV) Recompress(img *raster.Image, quality int) (*raster.Image, error) {
	bgr, err := toBGR(img)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, bgr, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("opencv encode: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("opencv decode: %w", err)
	}
	defer decoded.Close()

	out, err := fromBGR(decoded)
	if err != nil {
		return nil, err
	}
	out.Quant = raster.ParseQuantTable(data)
	return out, nil
}

func (o *openCV) BoxMean(p *raster.Plane, k int) *raster.Plane {
	src := toFloatMat(p)
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.BoxFilter(src, &dst, -1, image.Pt(k, k))
	return fromFloatMat(dst)
}

func (o *openCV) GaussianBlur(p *raster.Plane, k int, sigma float64) *raster.Plane {
	src := toFloatMat(p)
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.GaussianBlur(src, &dst, image.Pt(k, k), sigma, sigma, gocv.BorderReflect101)
	return fromFloatMat(dst)
}

func (o *openCV) Denoise(img *raster.Image, strength float64) *raster.Image {
	bgr, err := toBGR(img)
	if err != nil {
		return img.Clone()
	}
	defer bgr.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	h := float32(strength)
	gocv.FastNlMeansDenoisingColoredWithParams(bgr, &dst, h, h, 7, 21)
	out, err := fromBGR(dst)
	if err != nil {
		return img.Clone()
	}
	out.Quant = img.Quant
	return out
}

func (o *openCV) DenoisePlane(p *raster.Plane, strength float64) *raster.Plane {
	src := gocv.NewMatWithSize(p.Height, p.Width, gocv.MatTypeCV8UC1)
	defer src.Close()
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			src.SetUCharAt(y, x, raster.Clamp(p.At(x, y)))
		}
	}
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.FastNlMeansDenoisingWithParams(src, &dst, float32(strength), 7, 21)

	out := raster.NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			out.Set(x, y, float64(dst.GetUCharAt(y, x)))
		}
	}
	return out
}

func (o *openCV) Close(mask *raster.Plane, k int) *raster.Plane {
	src := toFloatMat(mask)
	defer src.Close()
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
	defer kernel.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.MorphologyEx(src, &dst, gocv.MorphClose, kernel)
	return fromFloatMat(dst)
}

func toBGR(img *raster.Image) (gocv.Mat, error) {
	rgb, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("opencv mat: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

func fromBGR(m gocv.Mat) (*raster.Image, error) {
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(m, &rgb, gocv.ColorBGRToRGB)

	out := raster.New(rgb.Cols(), rgb.Rows())
	data := rgb.ToBytes()
	if len(data) != len(out.Pix) {
		return nil, fmt.Errorf("opencv mat has %d bytes, expected %d", len(data), len(out.Pix))
	}
	copy(out.Pix, data)
	return out, nil
}

func toFloatMat(p *raster.Plane) gocv.Mat {
	m := gocv.NewMatWithSize(p.Height, p.Width, gocv.MatTypeCV64FC1)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			m.SetDoubleAt(y, x, p.At(x, y))
		}
	}
	return m
}

func fromFloatMat(m gocv.Mat) *raster.Plane {
	out := raster.NewPlane(m.Cols(), m.Rows())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Set(x, y, m.GetDoubleAt(y, x))
		}
	}
	return out
}
