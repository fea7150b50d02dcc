//go:build !opencv

package calibration

import "image"

// WindowSelector is unavailable without OpenCV.
type WindowSelector struct {
	Title string
}

// NewWindowSelector always fails in builds without OpenCV.
func NewWindowSelector(title string) (*WindowSelector, error) {
	return nil, ErrNoWindow
}

// Select always fails.
func (s *WindowSelector) Select(img image.Image) (image.Rectangle, error) {
	return image.Rectangle{}, ErrNoWindow
}
