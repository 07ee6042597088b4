// decode.go: Decoding uploaded images.
package generator

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP image and reports
// the format name.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, format, fmt.Errorf("decode image: %s has no pixels", format)
	}
	return img, format, nil
}

// DecodeBytes decodes an image held in memory.
func DecodeBytes(data []byte) (image.Image, error) {
	img, _, err := DecodeImage(bytes.NewReader(data))
	return img, err
}

// LoadImage reads and decodes the image file at path.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
