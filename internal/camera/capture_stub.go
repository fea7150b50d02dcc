//go:build !opencv

package camera

import "fmt"

func openDevice(id int) (Source, error) {
	return nil, fmt.Errorf("%w: device %d: %w", ErrFrameRead, id, ErrNoOpenCV)
}

func openFile(path string) (Source, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrFrameRead, path, ErrNoOpenCV)
}
