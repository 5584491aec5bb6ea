package raster

// Plane is a single-channel float map: grayscale intensities, variance maps
// and heatmap masks in [0,1] all use it.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}
