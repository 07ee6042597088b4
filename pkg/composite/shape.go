package composite

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498307936

// roundedRectMask rasterizes r with corner radius into an alpha mask covering
// canvas. The radius is limited to half the shorter side. Square corners on
// pixel boundaries are filled exactly instead of going through the
// anti-aliasing rasterizer.
func roundedRectMask(canvas image.Rectangle, r Rect, radius float64) *image.Alpha {
	mask := image.NewAlpha(canvas)
	if r.W <= 0 || r.H <= 0 {
		return mask
	}
	radius = min(max(radius, 0), r.W/2, r.H/2)

	if radius == 0 && r.aligned() {
		draw.Draw(mask, r.Bounds(), image.Opaque, image.Point{}, draw.Src)
		return mask
	}

	z := vector.NewRasterizer(canvas.Dx(), canvas.Dy())
	x0 := float32(r.X - float64(canvas.Min.X))
	y0 := float32(r.Y - float64(canvas.Min.Y))
	x1 := x0 + float32(r.W)
	y1 := y0 + float32(r.H)
	rad := float32(radius)
	k := float32(radius * (1 - kappa))

	z.MoveTo(x0+rad, y0)
	z.LineTo(x1-rad, y0)
	if rad > 0 {
		z.CubeTo(x1-k, y0, x1, y0+k, x1, y0+rad)
	}
	z.LineTo(x1, y1-rad)
	if rad > 0 {
		z.CubeTo(x1, y1-k, x1-k, y1, x1-rad, y1)
	}
	z.LineTo(x0+rad, y1)
	if rad > 0 {
		z.CubeTo(x0+k, y1, x0, y1-k, x0, y1-rad)
	}
	z.LineTo(x0, y0+rad)
	if rad > 0 {
		z.CubeTo(x0, y0+k, x0+k, y0, x0+rad, y0)
	}
	z.ClosePath()

	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// scaleAlpha multiplies every mask value by f in [0, 1].
func scaleAlpha(mask *image.Alpha, f float64) {
	if f >= 1 {
		return
	}
	for i, a := range mask.Pix {
		mask.Pix[i] = uint8(math.Round(float64(a) * f))
	}
}
