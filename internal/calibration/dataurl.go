package calibration

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// ErrDataURL reports a frame upload that is not a base64 data URL.
var ErrDataURL = errors.New("malformed data url")

// DecodeDataURL splits "data:<mime>;base64,<payload>" and decodes the
// payload. It returns the bytes and the mime type.
func DecodeDataURL(s string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing comma", ErrDataURL)
	}
	if !strings.HasPrefix(header, "data:") {
		return nil, "", fmt.Errorf("%w: missing data: prefix", ErrDataURL)
	}
	mime, enc, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if enc != "base64" {
		return nil, "", fmt.Errorf("%w: unsupported encoding %q", ErrDataURL, enc)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDataURL, err)
	}
	return data, mime, nil
}

// DecodeFrame decodes a data URL holding a JPEG or PNG frame.
func DecodeFrame(s string) (image.Image, error) {
	data, _, err := DecodeDataURL(s)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}
