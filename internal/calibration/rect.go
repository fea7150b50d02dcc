// Package calibration holds the operator's region of interest: its JSON
// document, the file store, frame upload decoding, the ROI selector and the
// per-browser calibration sessions.
package calibration

import (
	"errors"
	"fmt"
	"image"

	"github.com/sweeney/counterwatch/internal/geometry"
)

// ErrNoSelection means the operator confirmed an empty rectangle.
var ErrNoSelection = errors.New("no region selected")

// Rect is the persisted drawer region. X2 and Y2 are exclusive.
type Rect struct {
	X1     int `json:"x1"`
	Y1     int `json:"y1"`
	X2     int `json:"x2"`
	Y2     int `json:"y2"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromRectangle converts a selector result, rejecting zero width or height.
func FromRectangle(r image.Rectangle) (Rect, error) {
	r = r.Canon()
	if r.Dx() == 0 || r.Dy() == 0 {
		return Rect{}, ErrNoSelection
	}
	return Rect{
		X1:     r.Min.X,
		Y1:     r.Min.Y,
		X2:     r.Max.X,
		Y2:     r.Max.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
	}, nil
}

// Validate checks that the corners agree with the size and the area is
// non-zero.
func (r Rect) Validate() error {
	if r.X1 < 0 || r.Y1 < 0 {
		return fmt.Errorf("negative origin (%d,%d)", r.X1, r.Y1)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return ErrNoSelection
	}
	if r.X2 != r.X1+r.Width {
		return fmt.Errorf("x2 %d != x1 %d + width %d", r.X2, r.X1, r.Width)
	}
	if r.Y2 != r.Y1+r.Height {
		return fmt.Errorf("y2 %d != y1 %d + height %d", r.Y2, r.Y1, r.Height)
	}
	return nil
}

// Rectangle returns the region as an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Box returns the region as a geometry.Box.
func (r Rect) Box() geometry.Box {
	return geometry.BoxFromRect(r.Rectangle())
}
