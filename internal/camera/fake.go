package camera

import (
	"fmt"
	"image"
	"io"
)

// FakeSource is a test double that returns scripted frames.
type FakeSource struct {
	// Frames are returned in order. A nil entry returns the matching entry
	// of Errors instead.
	Frames []image.Image
	// Errors holds per-read errors, indexed like Frames.
	Errors []error
	next   int
	// Reads counts Read invocations.
	Reads int
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSource creates a FakeSource that returns frames then io.EOF.
func NewFakeSource(frames ...image.Image) *FakeSource {
	return &FakeSource{Frames: frames}
}

// Read returns the next scripted frame or error.
func (f *FakeSource) Read() (image.Image, error) {
	f.Reads++
	if f.next >= len(f.Frames) {
		return nil, fmt.Errorf("%w: %w", ErrFrameRead, io.EOF)
	}
	i := f.next
	f.next++
	if i < len(f.Errors) && f.Errors[i] != nil {
		return nil, f.Errors[i]
	}
	return f.Frames[i], nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}
