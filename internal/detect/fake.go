package detect

import "image"

// FakeDetector is a test double that returns scripted detections.
type FakeDetector struct {
	// Frames contains the detections to return for successive Detect calls.
	// When exhausted, the last entry repeats.
	Frames [][]Detection
	// index tracks current position in Frames
	index int
	// Calls counts Detect invocations.
	Calls int
	// DetectError, if set, will be returned by Detect.
	DetectError error
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDetector creates a FakeDetector with the given per-frame detections.
func NewFakeDetector(frames [][]Detection) *FakeDetector {
	return &FakeDetector{Frames: frames}
}

// Detect returns the next scripted set of detections.
func (f *FakeDetector) Detect(img image.Image) ([]Detection, error) {
	f.Calls++
	if f.DetectError != nil {
		return nil, f.DetectError
	}
	if len(f.Frames) == 0 {
		return nil, nil
	}
	dets := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}
	return dets, nil
}

// Close marks the detector as closed.
func (f *FakeDetector) Close() error {
	f.Closed = true
	return nil
}
