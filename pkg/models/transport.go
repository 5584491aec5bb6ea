package models

// AnalysisParams carries the tunable analysis parameters shared by the JSON and
// multipart endpoints. Pointer fields fall back to the preset for the mode.
type AnalysisParams struct {
	Mode        string   `json:"mode,omitempty" form:"mode" binding:"omitempty,oneof=ela delta noise"`
	Quality     *int     `json:"quality,omitempty" form:"quality" binding:"omitempty,min=1,max=100"`
	QualityHigh *int     `json:"quality_high,omitempty" form:"quality_high" binding:"omitempty,min=1,max=100"`
	QualityLow  *int     `json:"quality_low,omitempty" form:"quality_low" binding:"omitempty,min=1,max=100"`
	Scale       *float64 `json:"scale,omitempty" form:"scale" binding:"omitempty,min=1,max=100"`
	Intensity   *float64 `json:"intensity,omitempty" form:"intensity" binding:"omitempty,min=1,max=100"`
	Denoise     *float64 `json:"denoise,omitempty" form:"denoise" binding:"omitempty,min=0,max=100"`
	Heatmap     bool     `json:"heatmap,omitempty" form:"heatmap"`
	Sensitivity *float64 `json:"sensitivity,omitempty" form:"sensitivity" binding:"omitempty,min=1,max=100"`
	Opacity     *float64 `json:"opacity,omitempty" form:"opacity" binding:"omitempty,min=0,max=1"`
	Split       *float64 `json:"split,omitempty" form:"split" binding:"omitempty,min=0,max=100"`
}

// AnalysisRequest represents a request to analyze a remote image
type AnalysisRequest struct {
	URL string `json:"url" binding:"required,url"`
	AnalysisParams
}

// QualityRequest represents a request to estimate the quality of a remote image
type QualityRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  []ValidationError `json:"fields,omitempty"`
}
