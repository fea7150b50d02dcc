package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"
)

// Latest holds the most recent annotated frame as JPEG.
type Latest struct {
	mu      sync.RWMutex
	jpeg    []byte
	frame   int
	updated time.Time
}

// NewLatest creates an empty holder.
func NewLatest() *Latest {
	return &Latest{frame: -1}
}

// Set encodes img and replaces the stored snapshot.
func (l *Latest) Set(frame int, img image.Image, at time.Time) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	l.mu.Lock()
	l.jpeg = buf.Bytes()
	l.frame = frame
	l.updated = at
	l.mu.Unlock()
	return nil
}

// Get returns the stored JPEG and its frame index. ok is false until the
// first Set.
func (l *Latest) Get() (data []byte, frame int, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.jpeg == nil {
		return nil, -1, false
	}
	return l.jpeg, l.frame, true
}

// Updated returns when the snapshot was last replaced.
func (l *Latest) Updated() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updated
}
