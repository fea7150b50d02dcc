package camera

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirSource reads still images from a directory in lexical filename order.
type DirSource struct {
	files []string
	next  int
}

// NewDirSource lists the JPEG and PNG files in dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameRead, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s", ErrFrameRead, dir)
	}
	sort.Strings(files)
	return &DirSource{files: files}, nil
}

// Len returns the number of frames in the directory.
func (d *DirSource) Len() int {
	return len(d.files)
}

// Read decodes the next file.
func (d *DirSource) Read() (image.Image, error) {
	if d.next >= len(d.files) {
		return nil, fmt.Errorf("%w: %w", ErrFrameRead, io.EOF)
	}
	path := d.files[d.next]
	d.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameRead, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrFrameRead, filepath.Base(path), err)
	}
	return img, nil
}

// Close is a no-op.
func (d *DirSource) Close() error {
	return nil
}
