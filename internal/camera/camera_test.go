package camera

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestParseReadPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ReadPolicy
		wantErr bool
	}{
		{"stop", PolicyStop, false},
		{"skip", PolicySkip, false},
		{" SKIP ", PolicySkip, false},
		{"retry", PolicyStop, true},
		{"", PolicyStop, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReadPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadPolicyString(t *testing.T) {
	if PolicyStop.String() != "stop" || PolicySkip.String() != "skip" {
		t.Errorf("got %q, %q", PolicyStop, PolicySkip)
	}
}

func TestDirSourceReadsInOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame_002.png"), 200)
	writePNG(t, filepath.Join(dir, "frame_001.png"), 100)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644)

	src, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if ds, ok := src.(*DirSource); !ok || ds.Len() != 2 {
		t.Fatalf("expected DirSource with 2 frames, got %T", src)
	}

	for _, want := range []uint8{100, 200} {
		img, err := src.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		got := color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y
		if got != want {
			t.Errorf("pixel: got %d, want %d", got, want)
		}
	}

	_, err = src.Read()
	if !errors.Is(err, io.EOF) || !errors.Is(err, ErrFrameRead) {
		t.Errorf("expected EOF wrapped in ErrFrameRead, got %v", err)
	}
}

func TestDirSourceDecodeError(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644)

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	_, err = src.Read()
	if !errors.Is(err, ErrFrameRead) {
		t.Errorf("expected ErrFrameRead, got %v", err)
	}
	if errors.Is(err, io.EOF) {
		t.Error("decode failure should not be EOF")
	}
}

func TestDirSourceEmpty(t *testing.T) {
	_, err := NewDirSource(t.TempDir())
	if !errors.Is(err, ErrFrameRead) {
		t.Errorf("expected ErrFrameRead, got %v", err)
	}
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.mp4"))
	if !errors.Is(err, ErrFrameRead) {
		t.Errorf("expected ErrFrameRead, got %v", err)
	}
	_, err = Open("")
	if !errors.Is(err, ErrFrameRead) {
		t.Errorf("empty source: expected ErrFrameRead, got %v", err)
	}
}

func TestFakeSource(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 1, 1))
	boom := errors.New("boom")
	f := &FakeSource{
		Frames: []image.Image{frame, nil, frame},
		Errors: []error{nil, boom},
	}

	if img, err := f.Read(); err != nil || img != frame {
		t.Fatalf("read 1: %v, %v", img, err)
	}
	if _, err := f.Read(); err != boom {
		t.Fatalf("read 2: expected scripted error, got %v", err)
	}
	if _, err := f.Read(); err != nil {
		t.Fatalf("read 3: %v", err)
	}
	if _, err := f.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("read 4: expected EOF, got %v", err)
	}
	if f.Reads != 4 {
		t.Errorf("Reads: got %d", f.Reads)
	}
	f.Close()
	if !f.Closed {
		t.Error("expected Closed")
	}
}
