package generator

import (
	"image"
	"io"
	"slices"
)

// encoder writes one image in a single output format.
type encoder struct {
	contentType string
	encode      func(w io.Writer, img image.Image, cfg Config) error
}

var encoders = map[string]encoder{
	".png":  {"image/png", func(w io.Writer, img image.Image, _ Config) error { return writePNG(w, img) }},
	".jpg":  {"image/jpeg", writeJPEG},
	".jpeg": {"image/jpeg", writeJPEG},
	".bmp":  {"image/bmp", func(w io.Writer, img image.Image, _ Config) error { return writeBMP(w, img) }},
	".avi":  {"video/x-msvideo", writeAVI},
}

// Formats lists the supported output extensions.
func Formats() []string {
	exts := make([]string, 0, len(encoders))
	for ext := range encoders {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// ContentType returns the MIME type for an output extension, or "" if the
// extension is not supported.
func ContentType(ext string) string {
	return encoders[ext].contentType
}
