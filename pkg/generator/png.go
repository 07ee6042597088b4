// png.go: PNG and JPEG writers.
package generator

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
)

// DefaultQuality is the JPEG quality used when Config.Quality is unset.
const DefaultQuality = 95

// writePNG encodes img as PNG.
func writePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// writeJPEG encodes img as JPEG at the configured quality.
func writeJPEG(w io.Writer, img image.Image, cfg Config) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality(cfg)}); err != nil {
		return fmt.Errorf("encode JPEG: %w", err)
	}
	return nil
}

func quality(cfg Config) int {
	if cfg.Quality <= 0 {
		return DefaultQuality
	}
	return min(cfg.Quality, 100)
}
