// Package palette finds the dominant colours of a screenshot and turns them
// into suggested backgrounds.
package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/EdlinOrg/prominentcolor"

	"github.com/xob0t/ShotBeautifier/pkg/generator"
)

// DefaultCount is the number of colours Extract looks for when asked for
// zero or fewer.
const DefaultCount = 8

// ErrEmptyImage is returned by Extract for a nil or zero-sized image.
var ErrEmptyImage = errors.New("palette: empty image")

// Extract returns up to k dominant colours of img, most common first.
// Duplicate colours are reported once. The clustering starts from random
// centroids, so repeated calls on one image may differ slightly; callers that
// need reproducible suggestions keep the returned palette and pass it back
// through ParseHex.
func Extract(img image.Image, k int) ([]color.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if k <= 0 {
		k = DefaultCount
	}

	items, err := prominentcolor.KmeansWithAll(k, img, prominentcolor.ArgumentNoCropping, prominentcolor.DefaultSize, nil)
	if err != nil {
		return nil, fmt.Errorf("extract palette: %w", err)
	}

	seen := make(map[color.RGBA]bool, len(items))
	colors := make([]color.RGBA, 0, len(items))
	for _, it := range items {
		c := color.RGBA{
			R: uint8(min(it.Color.R, 255)),
			G: uint8(min(it.Color.G, 255)),
			B: uint8(min(it.Color.B, 255)),
			A: 255,
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		colors = append(colors, c)
	}
	return colors, nil
}

// ParseHex parses a palette previously formatted with generator.FormatHex.
// Colours are made opaque.
func ParseHex(hexes []string) ([]color.RGBA, error) {
	colors := make([]color.RGBA, 0, len(hexes))
	for _, h := range hexes {
		if strings.TrimSpace(h) == "" || strings.EqualFold(strings.TrimSpace(h), "random") {
			return nil, fmt.Errorf("palette colour %q: want a hex colour", h)
		}
		c, err := generator.ParseColor(h)
		if err != nil {
			return nil, fmt.Errorf("palette: %w", err)
		}
		c.A = 255
		colors = append(colors, c)
	}
	return colors, nil
}

// IsLight reports whether c reads as a light colour, using the perceived
// brightness (299R + 587G + 114B) / 1000.
func IsLight(c color.RGBA) bool {
	brightness := (299*float64(c.R) + 587*float64(c.G) + 114*float64(c.B)) / 1000
	return brightness > 155
}

// Complement shifts every channel half way round the colour wheel.
func Complement(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R + 128, G: c.G + 128, B: c.B + 128, A: 255}
}

// Split separates colors into light and dark ones, keeping their order.
func Split(colors []color.RGBA) (light, dark []color.RGBA) {
	for _, c := range colors {
		if IsLight(c) {
			light = append(light, c)
		} else {
			dark = append(dark, c)
		}
	}
	return light, dark
}
