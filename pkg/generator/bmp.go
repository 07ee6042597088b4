// bmp.go: BMP writer.
package generator

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/bmp"
)

// writeBMP encodes img as an uncompressed BMP. Opaque images are written as
// 24-bit, anything with transparency as 32-bit.
func writeBMP(w io.Writer, img image.Image) error {
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("encode BMP: %w", err)
	}
	return nil
}
