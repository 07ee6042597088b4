// Package composite lays a screenshot over a decorative background.
//
// A Request carries the source image, the background, shadow and image
// styles, and the output size. The compositor derives a layout from it,
// fills a rounded background shape, and draws a drop-shadowed, rounded copy
// of the source on top. Preview and export requests built from the same
// Style render identically up to scale.
package composite

import (
	"image"
	"image/color"
	"math"

	"github.com/xob0t/ShotBeautifier/pkg/freeform"
)

// ── Background fills ──

// Background is one of Solid, LinearGradient, Freeform or Bitmap.
type Background interface {
	isBackground()
}

// Solid fills the background with one colour.
type Solid struct {
	Color color.RGBA
}

// Stop is a gradient colour at Position in [0, 1] along the gradient line.
type Stop struct {
	Color    color.RGBA
	Position float64
}

// LinearGradient follows CSS linear-gradient angles: 0° points up, 90° runs
// left to right, and the gradient line spans the background's corners.
type LinearGradient struct {
	Stops        []Stop
	AngleDegrees float64
}

// Freeform blends control points by inverse squared distance.
type Freeform struct {
	Points []freeform.ColorPoint
}

// Bitmap stretches an image over the background, ignoring its aspect ratio.
// The image may still be decoding when the request is made.
type Bitmap struct {
	Image *ImageFuture
}

func (Solid) isBackground()          {}
func (LinearGradient) isBackground() {}
func (Freeform) isBackground()       {}
func (Bitmap) isBackground()         {}

// ── Styles ──

// BackgroundStyle is the background fill with its opacity and rounding.
// CornerRadiusPercent is relative to the background's smaller side.
type BackgroundStyle struct {
	Fill                Background
	OpacityPercent      float64 // 0–100
	CornerRadiusPercent float64 // 0–100
}

// ShadowStyle describes the drop shadow under the image. Blur and distance
// are percentages of the drawn image's smaller side and of its width and
// height respectively.
type ShadowStyle struct {
	Color           color.RGBA
	OpacityPercent  float64 // 0–100
	BlurPercent     float64 // 0–20
	DistancePercent float64 // 0–20
}

// ImageStyle places and rounds the image inside the background.
type ImageStyle struct {
	CornerRadiusPercent float64 // 0–100
	PaddingPercent      float64 // 0–50, dampened to a quarter of the image
	OffsetXPercent      float64 // -50–50, of the drawn image width
	OffsetYPercent      float64 // -50–50, of the drawn image height
}

// Style groups the three style blocks a user edits.
type Style struct {
	Background BackgroundStyle
	Shadow     ShadowStyle
	Image      ImageStyle
}

// Request is one composition: a source, a style and an output size.
type Request struct {
	Source     image.Image
	Background BackgroundStyle
	Shadow     ShadowStyle
	Image      ImageStyle
	Width      int
	Height     int
}

// Request builds a composition request for src at the given output size.
func (s Style) Request(src image.Image, width, height int) Request {
	return Request{
		Source:     src,
		Background: s.Background,
		Shadow:     s.Shadow,
		Image:      s.Image,
		Width:      width,
		Height:     height,
	}
}

// ExportRequest builds a request at the source's native resolution.
func (s Style) ExportRequest(src image.Image) Request {
	b := src.Bounds()
	return s.Request(src, b.Dx(), b.Dy())
}

// DefaultStyle is the style a freshly uploaded image starts with.
func DefaultStyle() Style {
	return Style{
		Background: BackgroundStyle{
			Fill:                Solid{Color: color.RGBA{R: 0xff, A: 0xff}},
			OpacityPercent:      100,
			CornerRadiusPercent: 5,
		},
		Shadow: ShadowStyle{
			Color:           color.RGBA{A: 0xff},
			OpacityPercent:  60,
			BlurPercent:     10,
			DistancePercent: 5,
		},
		Image: ImageStyle{
			CornerRadiusPercent: 5,
			PaddingPercent:      30,
		},
	}
}

// ── Clamping ──

// Clamped returns the style with every percentage forced into its range.
func (s BackgroundStyle) Clamped() BackgroundStyle {
	s.OpacityPercent = clamp(s.OpacityPercent, 0, 100)
	s.CornerRadiusPercent = clamp(s.CornerRadiusPercent, 0, 100)
	return s
}

// Clamped returns the style with every percentage forced into its range.
func (s ShadowStyle) Clamped() ShadowStyle {
	s.OpacityPercent = clamp(s.OpacityPercent, 0, 100)
	s.BlurPercent = clamp(s.BlurPercent, 0, 20)
	s.DistancePercent = clamp(s.DistancePercent, 0, 20)
	return s
}

// Clamped returns the style with every percentage forced into its range.
func (s ImageStyle) Clamped() ImageStyle {
	s.CornerRadiusPercent = clamp(s.CornerRadiusPercent, 0, 100)
	s.PaddingPercent = clamp(s.PaddingPercent, 0, 50)
	s.OffsetXPercent = clamp(s.OffsetXPercent, -50, 50)
	s.OffsetYPercent = clamp(s.OffsetYPercent, -50, 50)
	return s
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return min(max(v, lo), hi)
}
