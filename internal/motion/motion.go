// Package motion scores how much of a region changed since the previous frame.
package motion

import (
	"errors"
	"image"
	"image/color"
)

// ErrNoOpenCV is returned by OpenCV-backed scorers in builds without the
// opencv tag.
var ErrNoOpenCV = errors.New("motion: contour scorer requires the opencv build tag")

// DiffThreshold is the per-pixel grey level difference that counts as change.
const DiffThreshold = 25

// Scorer turns consecutive frames into a motion score in px².
// The first frame after construction or Reset scores 0.
type Scorer interface {
	Score(img image.Image) (float64, error)
	Reset()
	Close() error
}

// cropRect returns the part of roi inside bounds. An empty roi selects the
// whole frame.
func cropRect(bounds, roi image.Rectangle) image.Rectangle {
	if roi.Empty() {
		return bounds
	}
	return roi.Intersect(bounds)
}

// grayPlane converts the r region of img to 8-bit luma.
func grayPlane(img image.Image, r image.Rectangle) []uint8 {
	out := make([]uint8, r.Dx()*r.Dy())
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out[i] = color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			i++
		}
	}
	return out
}
