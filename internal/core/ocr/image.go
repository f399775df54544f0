package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"

	// decoders for the formats a camera roll may hand us
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the re-encode quality used before upload
const JPEGQuality = 90

// ErrImageUnavailable is returned when the image file is missing or cannot be decoded
var ErrImageUnavailable = errors.New("image not found or unreadable")

// ImageSource yields the bytes of the image to recognize
type ImageSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Location() string
}

// FileSource is an image on the local filesystem
type FileSource string

// Open opens the file
func (f FileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(string(f))
}

// Location returns the file path
func (f FileSource) Location() string {
	return string(f)
}

// LoadImage reads and decodes the image at path
func LoadImage(path string) (image.Image, error) {
	return LoadFrom(context.Background(), FileSource(path))
}

// LoadFrom reads and decodes the image behind src. Every failure wraps ErrImageUnavailable.
func LoadFrom(ctx context.Context, src ImageSource) (image.Image, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrImageUnavailable, src.Location(), err)
	}
	return img, nil
}

// EncodeJPEG re-encodes img as JPEG at JPEGQuality
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes data with the standard alphabet and no line wrapping
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
