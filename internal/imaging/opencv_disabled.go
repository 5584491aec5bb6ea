//go:build !gocv

package imaging

import "errors"

// ErrOpenCVUnavailable is returned when the binary was built without the gocv tag.
var ErrOpenCVUnavailable = errors.New("opencv backend not compiled in (build with -tags gocv)")

// NewOpenCV reports that the OpenCV backend is unavailable in this build.
func NewOpenCV() (Backend, error) {
	return nil, ErrOpenCVUnavailable
}
