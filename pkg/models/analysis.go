package models

import "time"

// AnalysisResponse is the outcome of one forensic analysis
type AnalysisResponse struct {
	Source            string    `json:"source"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`

	Mode    string `json:"mode"`
	Label   string `json:"label"`
	Backend string `json:"backend"`

	// EstimatedQuality is nil when the source carries no usable JPEG table
	EstimatedQuality *int `json:"estimated_quality,omitempty"`

	Metadata ImageMetadata `json:"metadata"`
	Summary  Summary       `json:"summary"`

	// PNG holds the encoded rendered image; transports decide how to ship it
	PNG []byte `json:"-"`
	// ImageBase64 is filled only for JSON responses
	ImageBase64 string `json:"image_base64,omitempty"`
}

// Summary holds statistics over the analysis intensity (luma of the raw analysis raster)
type Summary struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stddev"`
	Max         float64 `json:"max"`
	P95         float64 `json:"p95"`
	HotFraction float64 `json:"hot_fraction"`
	Pixels      int     `json:"pixels"`
}

// QualityResponse reports the estimated original JPEG quality of a source
type QualityResponse struct {
	Source           string        `json:"source"`
	EstimatedQuality *int          `json:"estimated_quality"`
	Known            bool          `json:"known"`
	Metadata         ImageMetadata `json:"metadata"`
}

// ImageMetadata contains metadata about a decoded source image
type ImageMetadata struct {
	ContentType   string `json:"content_type,omitempty"`
	ContentLength int64  `json:"content_length"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	// Sharpness is the Laplacian variance of the source luma; low values
	// mean a blurred or heavily smoothed source, which weakens ELA contrast
	Sharpness float64 `json:"sharpness"`
}
