package forensics

import (
	"math"

	"github.com/maxedonia/ela-mate-web/internal/raster"
)

// StandardLuminance is the JPEG Annex K luminance quantization table (quality 50),
// in natural order.
var StandardLuminance = raster.QuantizationTable{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// EstimateQuality inverts the IJG quality scaling for a luminance table.
// ok is false when the table is missing or unusable. The estimate degrades
// for images resized or re-encoded by another encoder after capture.
func EstimateQuality(table *raster.QuantizationTable) (quality int, ok bool) {
	if table == nil {
		return 0, false
	}

	var sum float64
	for i, entry := range table {
		if entry == 0 {
			return 0, false
		}
		sum += float64(entry) * 100 / float64(StandardLuminance[i])
	}
	s := sum / float64(len(table))

	var q float64
	if s <= 100 {
		q = 100 - s/2
	} else {
		q = 5000 / s
	}

	quality = int(math.Round(q))
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return quality, true
}

// EstimateImageQuality estimates the original JPEG quality of a decoded raster.
func EstimateImageQuality(img *raster.Image) (int, bool) {
	if img == nil {
		return 0, false
	}
	return EstimateQuality(img.Quant)
}
