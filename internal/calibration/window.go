//go:build opencv

package calibration

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// WindowSelector opens an OpenCV window and lets the operator drag a box.
// Only one window is open at a time.
type WindowSelector struct {
	Title string
	mu    sync.Mutex
}

// NewWindowSelector creates a selector with the given window title.
func NewWindowSelector(title string) (*WindowSelector, error) {
	if title == "" {
		title = "Select Drawer Area"
	}
	return &WindowSelector{Title: title}, nil
}

// Select blocks until the operator confirms a selection.
func (s *WindowSelector) Select(img image.Image) (image.Rectangle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	gocv.CvtColor(mat, &mat, gocv.ColorRGBToBGR)

	w := gocv.NewWindow(s.Title)
	defer w.Close()

	r := w.SelectROI(mat)
	return r.Add(img.Bounds().Min), nil
}
