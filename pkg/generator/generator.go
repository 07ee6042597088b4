// Package generator writes composed images to disk or memory as PNG, JPEG,
// BMP or a still MJPEG AVI clip, and decodes uploaded images.
//
// Every writer takes a finished image.Image and hands it to the encoder
// registered for the output extension.
package generator

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config holds parameters for media generation.
type Config struct {
	Image    image.Image // Image to write; required
	Duration int         // Seconds, AVI only (default: 1)
	Quality  int         // JPEG quality for .jpg and .avi (default: 95)
}

// Generate creates an output file. The format is inferred from the file
// extension; see Formats.
func Generate(output string, cfg Config) error {
	ext := strings.ToLower(filepath.Ext(output))
	enc, ok := encoders[ext]
	if !ok {
		return unsupported(ext)
	}
	img, err := resolveImage(cfg)
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := enc.encode(f, img, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GenerateToWriter writes media to an io.Writer. The format is specified by
// ext, for example ".png". This is useful for in-memory generation
// (clipboard copies, HTTP downloads, WASM).
func GenerateToWriter(w io.Writer, ext string, cfg Config) error {
	ext = strings.ToLower(ext)
	enc, ok := encoders[ext]
	if !ok {
		return unsupported(ext)
	}
	img, err := resolveImage(cfg)
	if err != nil {
		return err
	}
	return enc.encode(w, img, cfg)
}

// ErrNoImage is returned when Config carries no image.
var ErrNoImage = errors.New("generator: no image to write")

func resolveImage(cfg Config) (image.Image, error) {
	if cfg.Image == nil || cfg.Image.Bounds().Empty() {
		return nil, ErrNoImage
	}
	return cfg.Image, nil
}

func unsupported(ext string) error {
	return fmt.Errorf("unsupported format %q: use one of %s", ext, strings.Join(Formats(), ", "))
}
