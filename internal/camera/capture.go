//go:build opencv

package camera

import (
	"fmt"
	"image"
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// CaptureSource reads frames through an OpenCV VideoCapture.
type CaptureSource struct {
	cap  *gocv.VideoCapture
	mat  gocv.Mat
	file bool
	mu   sync.Mutex
}

func openDevice(id int) (Source, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", ErrFrameRead, id, err)
	}
	return &CaptureSource{cap: vc, mat: gocv.NewMat()}, nil
}

func openFile(path string) (Source, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFrameRead, path, err)
	}
	return &CaptureSource{cap: vc, mat: gocv.NewMat(), file: true}, nil
}

// Read grabs the next frame. The end of a video file reports io.EOF.
func (c *CaptureSource) Read() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		if c.file {
			return nil, fmt.Errorf("%w: %w", ErrFrameRead, io.EOF)
		}
		return nil, fmt.Errorf("%w: capture returned no frame", ErrFrameRead)
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: convert frame: %v", ErrFrameRead, err)
	}
	return img, nil
}

// Close releases the capture device.
func (c *CaptureSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mat.Close()
	return c.cap.Close()
}
