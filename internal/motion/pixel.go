package motion

import (
	"image"
	"sync"
)

// PixelScorer counts pixels in the ROI whose grey level moved by more than
// DiffThreshold since the previous frame. It needs no native libraries.
type PixelScorer struct {
	roi  image.Rectangle
	prev []uint8
	size image.Point
	mu   sync.Mutex
}

// NewPixelScorer creates a scorer over roi. An empty roi scores the whole frame.
func NewPixelScorer(roi image.Rectangle) *PixelScorer {
	return &PixelScorer{roi: roi.Canon()}
}

// Score returns the changed area in px².
func (s *PixelScorer) Score(img image.Image) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := cropRect(img.Bounds(), s.roi)
	if r.Empty() {
		return 0, nil
	}
	gray := grayPlane(img, r)

	// A new baseline is taken on the first frame and whenever the crop
	// changes size.
	if s.prev == nil || s.size != r.Size() {
		s.prev = gray
		s.size = r.Size()
		return 0, nil
	}

	changed := 0
	for i, v := range gray {
		d := int(v) - int(s.prev[i])
		if d < 0 {
			d = -d
		}
		if d > DiffThreshold {
			changed++
		}
	}
	s.prev = gray
	return float64(changed), nil
}

// Reset drops the previous frame.
func (s *PixelScorer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prev = nil
}

// Close is a no-op.
func (s *PixelScorer) Close() error {
	s.Reset()
	return nil
}
