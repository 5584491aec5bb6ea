package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format names returned by DetectFormat.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatGIF  = "gif"
	FormatWebP = "webp"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	riffSignature = []byte{0x52, 0x49, 0x46, 0x46}
	webpSignature = []byte{0x57, 0x45, 0x42, 0x50}
	tiffLE        = []byte{0x49, 0x49, 0x2A, 0x00}
	tiffBE        = []byte{0x4D, 0x4D, 0x00, 0x2A}
)

// ErrUnknownFormat is returned by Decode for input that is not a supported image.
var ErrUnknownFormat = errors.New("unrecognized image format")

// DetectFormat identifies the image format from its magic bytes.
// It returns an empty string when the format is not recognized.
func DetectFormat(magic []byte) string {
	switch {
	case len(magic) >= 3 && magic[0] == 0xFF && magic[1] == 0xD8 && magic[2] == 0xFF:
		return FormatJPEG
	case bytes.HasPrefix(magic, pngSignature):
		return FormatPNG
	case bytes.HasPrefix(magic, []byte("GIF87a")), bytes.HasPrefix(magic, []byte("GIF89a")):
		return FormatGIF
	case len(magic) >= 12 && bytes.HasPrefix(magic, riffSignature) && bytes.Equal(magic[8:12], webpSignature):
		return FormatWebP
	case bytes.HasPrefix(magic, tiffLE), bytes.HasPrefix(magic, tiffBE):
		return FormatTIFF
	case len(magic) >= 2 && magic[0] == 0x42 && magic[1] == 0x4D:
		return FormatBMP
	}
	return ""
}

// Decode converts encoded image bytes into an RGB raster. JPEG input keeps its
// luminance quantization table so the original quality can be estimated later.
func Decode(data []byte) (*Image, string, error) {
	format := DetectFormat(data)
	if format == "" {
		return nil, "", ErrUnknownFormat
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	img := FromImage(src)
	if format == FormatJPEG {
		img.Quant = ParseQuantTable(data)
	}
	return img, format, nil
}
