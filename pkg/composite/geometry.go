package composite

import (
	"image"
	"math"
)

// maxPaddingFraction caps the actual padding at a quarter of the fitted
// image's smaller side, whatever padding percentage was requested.
const maxPaddingFraction = 0.25

// Rect is a rectangle in canvas pixels with fractional coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Bounds returns the smallest pixel rectangle covering r.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.W)), int(math.Ceil(r.Y+r.H)),
	)
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// aligned reports whether every edge of r falls on a pixel boundary.
func (r Rect) aligned() bool {
	isInt := func(v float64) bool { return v == math.Trunc(v) }
	return isInt(r.X) && isInt(r.Y) && isInt(r.X+r.W) && isInt(r.Y+r.H)
}

// Layout is the geometry of one composition.
type Layout struct {
	Width, Height int // canvas size

	// FitWidth and FitHeight are the contain-fit size of the source before
	// padding is taken off.
	FitWidth, FitHeight float64

	Padding    float64
	Background Rect
	Image      Rect
}

// ComputeLayout fits a srcW×srcH image into a width×height canvas and
// derives the background and image rectangles. Canvas dimensions below 1
// are clamped to 1.
//
// Padding is taken off both sides of the fitted size, so the background is
// always exactly the contain-fit rectangle and the image inside it keeps the
// source aspect ratio only when Padding is 0 or the source is square.
func ComputeLayout(srcW, srcH, width, height int, st ImageStyle) Layout {
	width = max(width, 1)
	height = max(height, 1)
	st = st.Clamped()

	l := Layout{Width: width, Height: height}
	if srcW <= 0 || srcH <= 0 {
		return l
	}

	imageAspect := float64(srcW) / float64(srcH)
	canvasAspect := float64(width) / float64(height)
	if imageAspect > canvasAspect {
		l.FitWidth = float64(width)
		l.FitHeight = float64(width) * float64(srcH) / float64(srcW)
	} else {
		l.FitHeight = float64(height)
		l.FitWidth = float64(height) * float64(srcW) / float64(srcH)
	}

	minSide := min(l.FitWidth, l.FitHeight)
	l.Padding = minSide * maxPaddingFraction * (st.PaddingPercent / 100)

	drawW := l.FitWidth - 2*l.Padding
	drawH := l.FitHeight - 2*l.Padding

	bgW := drawW + 2*l.Padding
	bgH := drawH + 2*l.Padding
	l.Background = Rect{
		X: (float64(width) - bgW) / 2,
		Y: (float64(height) - bgH) / 2,
		W: bgW,
		H: bgH,
	}
	l.Image = Rect{
		X: l.Background.X + l.Padding + st.OffsetXPercent/100*drawW,
		Y: l.Background.Y + l.Padding + st.OffsetYPercent/100*drawH,
		W: drawW,
		H: drawH,
	}
	return l
}

// ImageRadius is the corner radius of the drawn image.
func (l Layout) ImageRadius(st ImageStyle) float64 {
	return st.Clamped().CornerRadiusPercent / 100 * min(l.Image.W, l.Image.H)
}

// BackgroundRadius is the corner radius of the background shape.
func (l Layout) BackgroundRadius(st BackgroundStyle) float64 {
	return st.Clamped().CornerRadiusPercent / 100 * min(l.Background.W, l.Background.H)
}

// canvas returns the canvas rectangle anchored at the origin.
func (l Layout) canvas() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}
