//go:build !opencv

package motion

import "image"

// ContourScorer is unavailable without OpenCV.
type ContourScorer struct{}

// NewContourScorer always fails in builds without OpenCV.
func NewContourScorer(roi image.Rectangle) (*ContourScorer, error) {
	return nil, ErrNoOpenCV
}

// Score always fails.
func (s *ContourScorer) Score(img image.Image) (float64, error) {
	return 0, ErrNoOpenCV
}

// Reset does nothing.
func (s *ContourScorer) Reset() {}

// Close does nothing.
func (s *ContourScorer) Close() error { return nil }
