//go:build opencv

package motion

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const blurSize = 21

// ContourScorer reports the area of the largest changed blob in the ROI.
// It blurs, differences, thresholds and dilates before finding external
// contours.
type ContourScorer struct {
	roi    image.Rectangle
	prev   gocv.Mat
	kernel gocv.Mat
	mu     sync.Mutex
}

// NewContourScorer creates an OpenCV-backed scorer over roi.
func NewContourScorer(roi image.Rectangle) (*ContourScorer, error) {
	return &ContourScorer{
		roi:    roi.Canon(),
		prev:   gocv.NewMat(),
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}, nil
}

// Score returns the largest contour area in px².
func (s *ContourScorer) Score(img image.Image) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := cropRect(img.Bounds(), s.roi)
	if r.Empty() {
		return 0, nil
	}

	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return 0, fmt.Errorf("convert frame: %w", err)
	}
	defer frame.Close()

	region := frame.Region(r.Sub(img.Bounds().Min))
	defer region.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorRGBToGray)
	gocv.GaussianBlur(gray, &gray, image.Pt(blurSize, blurSize), 0, 0, gocv.BorderDefault)

	if s.prev.Empty() || s.prev.Rows() != gray.Rows() || s.prev.Cols() != gray.Cols() {
		gray.CopyTo(&s.prev)
		return 0, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(s.prev, gray, &diff)
	gocv.Threshold(diff, &diff, DiffThreshold, 255, gocv.ThresholdBinary)
	gocv.Dilate(diff, &diff, s.kernel)
	gocv.Dilate(diff, &diff, s.kernel)

	gray.CopyTo(&s.prev)

	contours := gocv.FindContours(diff, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	largest := 0.0
	for i := 0; i < contours.Size(); i++ {
		if a := gocv.ContourArea(contours.At(i)); a > largest {
			largest = a
		}
	}
	return largest, nil
}

// Reset drops the previous frame.
func (s *ContourScorer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.prev.Empty() {
		s.prev.Close()
		s.prev = gocv.NewMat()
	}
}

// Close releases the OpenCV buffers.
func (s *ContourScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev.Close()
	s.kernel.Close()
	return nil
}
