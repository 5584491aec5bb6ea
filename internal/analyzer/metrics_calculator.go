package analyzer

import (
	"runtime"
	"sort"
	"sync"

	"github.com/maxedonia/ela-mate-web/internal/raster"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// parallelThreshold is the pixel count above which luma extraction is split into strips
const parallelThreshold = 100000

// metricsCalculator implements MetricsCalculator with Gonum statistics
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// Summarize computes mean, standard deviation, max, 95th percentile and the
// fraction of hot pixels over the luma of an analysis raster.
func (mc *metricsCalculator) Summarize(img *raster.Image, hotThreshold float64) Summary {
	if img == nil || img.Empty() {
		return Summary{}
	}

	data := mc.luma(img)
	defer mc.slicePool.Put(data[:0])

	mean, std := stat.PopMeanStdDev(data, nil)

	hot := 0
	for _, v := range data {
		if v > hotThreshold {
			hot++
		}
	}

	sort.Float64s(data)
	return Summary{
		Mean:        mean,
		StdDev:      std,
		Max:         floats.Max(data),
		P95:         stat.Quantile(0.95, stat.Empirical, data, nil),
		HotFraction: float64(hot) / float64(len(data)),
		Pixels:      len(data),
	}
}

// luma fills a pooled slice with the luma of every pixel, in horizontal strips
// for large images.
func (mc *metricsCalculator) luma(img *raster.Image) []float64 {
	n := img.Width * img.Height
	data := mc.slicePool.Get().([]float64)
	if cap(data) < n {
		data = make([]float64, n)
	}
	data = data[:n]

	if n < parallelThreshold {
		fillLuma(img, data, 0, img.Height)
		return data
	}

	numWorkers := runtime.NumCPU()
	if img.Height < numWorkers {
		numWorkers = img.Height
	}
	rowsPerWorker := (img.Height + numWorkers - 1) / numWorkers // ceil division

	var wg sync.WaitGroup
	for startY := 0; startY < img.Height; startY += rowsPerWorker {
		endY := startY + rowsPerWorker
		if endY > img.Height {
			endY = img.Height
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			fillLuma(img, data, startY, endY)
		}(startY, endY)
	}
	wg.Wait()
	return data
}

// fillLuma writes rows [startY, endY) only, so strips never overlap
func fillLuma(img *raster.Image, data []float64, startY, endY int) {
	for y := startY; y < endY; y++ {
		for x := 0; x < img.Width; x++ {
			data[y*img.Width+x] = float64(raster.Luma(img.RGBAt(x, y)))
		}
	}
}

// CalculateLaplacianVariance computes the variance of the 4-neighbour Laplacian
// over the interior of p. It is a cheap sharpness indicator for the source image.
func (mc *metricsCalculator) CalculateLaplacianVariance(p *raster.Plane) float64 {
	if p == nil || p.Width < 3 || p.Height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	defer mc.slicePool.Put(data[:0])

	data = data[:0]
	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := 1; y < p.Height-1; y++ {
		for x := 1; x < p.Width-1; x++ {
			laplacian := -4*p.At(x, y) + p.At(x, y-1) + p.At(x, y+1) + p.At(x-1, y) + p.At(x+1, y)
			data = append(data, laplacian)
		}
	}

	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}
