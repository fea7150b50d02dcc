package calibration

import (
	"errors"
	"image"
)

// ErrNoWindow is returned by the ROI window in builds without the opencv tag.
var ErrNoWindow = errors.New("calibration: ROI window requires the opencv build tag")

// Selector asks an operator for a rectangle on a frame.
type Selector interface {
	Select(img image.Image) (image.Rectangle, error)
}

// FixedSelector returns a preset rectangle, clipped to the frame. It serves
// headless deployments where the browser sends the ROI itself.
type FixedSelector struct {
	Rect image.Rectangle
}

// Select returns the preset rectangle.
func (s FixedSelector) Select(img image.Image) (image.Rectangle, error) {
	if img == nil {
		return s.Rect, nil
	}
	return s.Rect.Intersect(img.Bounds()), nil
}
