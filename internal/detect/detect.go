// Package detect provides object detection over camera frames.
// The real implementation runs a YOLO ONNX model through onnxruntime.
// The fake implementation allows testing without a model.
package detect

import (
	"errors"
	"image"

	"github.com/sweeney/counterwatch/internal/geometry"
)

// ErrModelLoad is returned when the detection model cannot be loaded.
// It is fatal: callers should not retry.
var ErrModelLoad = errors.New("model load failure")

// Detection is a single detected object.
type Detection struct {
	Box   geometry.Box
	Class int
	Label string
	Score float32
}

// Detector finds objects in a frame.
type Detector interface {
	// Detect returns zero or more detections in frame pixel coordinates.
	Detect(img image.Image) ([]Detection, error)

	// Close releases model resources.
	Close() error
}
