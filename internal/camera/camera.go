// Package camera supplies frames from a camera device, a video file or a
// directory of stills.
package camera

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
)

// ErrFrameRead wraps every failure to open a source or read a frame.
var ErrFrameRead = errors.New("frame read failure")

// ErrNoOpenCV is returned for camera and video sources in builds without
// the opencv tag.
var ErrNoOpenCV = errors.New("camera: device and video sources require the opencv build tag")

// Source yields frames in order. An exhausted source returns an error
// wrapping both ErrFrameRead and io.EOF.
type Source interface {
	Read() (image.Image, error)
	Close() error
}

// ReadPolicy decides what the frame loop does after a failed read.
type ReadPolicy int

const (
	// PolicyStop ends the loop on the first failed read.
	PolicyStop ReadPolicy = iota
	// PolicySkip logs the failure and waits for the next tick.
	PolicySkip
)

func (p ReadPolicy) String() string {
	switch p {
	case PolicyStop:
		return "stop"
	case PolicySkip:
		return "skip"
	default:
		return fmt.Sprintf("ReadPolicy(%d)", int(p))
	}
}

// ParseReadPolicy accepts "stop" and "skip".
func ParseReadPolicy(s string) (ReadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stop":
		return PolicyStop, nil
	case "skip":
		return PolicySkip, nil
	default:
		return PolicyStop, fmt.Errorf("invalid read policy %q (want stop or skip)", s)
	}
}

// Open treats src as a device index first, then as a directory of frames,
// then as a video file.
func Open(src string) (Source, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrFrameRead)
	}
	if n, err := strconv.Atoi(src); err == nil {
		return openDevice(n)
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameRead, err)
	}
	if info.IsDir() {
		return NewDirSource(src)
	}
	return openFile(src)
}
