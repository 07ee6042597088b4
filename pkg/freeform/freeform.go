// Package freeform renders freeform gradients: a handful of coloured control
// points spread over a plane, blended per pixel by inverse squared distance.
package freeform

import (
	"errors"
	"image"
	"image/color"
	"math"
)

// ErrNoPoints is returned when a gradient is rendered without control points.
var ErrNoPoints = errors.New("freeform: gradient needs at least one point")

// ColorPoint is a control point. X and Y are percentages (0–100) of the
// raster width and height, so the same points fit any output size.
type ColorPoint struct {
	Color color.RGBA
	X, Y  float64
}

// Render rasterizes points into a new width×height opaque RGBA image.
// Non-positive dimensions are clamped to 1.
func Render(width, height int, points []ColorPoint) (*image.RGBA, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	width = max(width, 1)
	height = max(height, 1)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for py := 0; py < height; py++ {
		y := float64(py) / float64(height) * 100
		row := img.Pix[py*img.Stride:]
		for px := 0; px < width; px++ {
			c := ColorAt(float64(px)/float64(width)*100, y, points)
			i := px * 4
			row[i] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = 255
		}
	}
	return img, nil
}

// ColorAt returns the blended colour at (x, y) in percentage space. Each
// point weighs 1/(d²+1), which peaks at 1 on the point itself.
// The result for an empty point set is opaque black.
func ColorAt(x, y float64, points []ColorPoint) color.RGBA {
	var r, g, b, total float64
	for _, p := range points {
		dx := p.X - x
		dy := p.Y - y
		w := 1 / (dx*dx + dy*dy + 1)
		total += w
		r += float64(p.Color.R) * w
		g += float64(p.Color.G) * w
		b += float64(p.Color.B) * w
	}
	if total == 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{
		R: channel(r / total),
		G: channel(g / total),
		B: channel(b / total),
		A: 255,
	}
}

func channel(v float64) uint8 {
	return uint8(min(max(math.Round(v), 0), 255))
}
