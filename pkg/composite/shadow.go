package composite

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// drawShadow paints the blurred drop shadow of the image rectangle onto dst.
// The blur length follows the canvas shadowBlur convention, so the Gaussian
// sigma is half of it.
func drawShadow(dst *image.RGBA, l Layout, img ImageStyle, st ShadowStyle) {
	st = st.Clamped()
	if st.OpacityPercent == 0 || l.Image.W <= 0 || l.Image.H <= 0 {
		return
	}

	blur := st.BlurPercent / 100 * min(l.Image.W, l.Image.H)
	sigma := blur / 2
	shifted := l.Image.Translate(
		st.DistancePercent/100*l.Image.W,
		st.DistancePercent/100*l.Image.H,
	)

	margin := int(math.Ceil(3*sigma)) + 1
	region := shifted.Bounds().Inset(-margin)
	if !region.Overlaps(dst.Bounds()) {
		return
	}

	mask := roundedRectMask(region, shifted, l.ImageRadius(img))
	scaleAlpha(mask, st.OpacityPercent/100)

	layer := image.NewNRGBA(region.Sub(region.Min))
	col := color.NRGBA{R: st.Color.R, G: st.Color.G, B: st.Color.B}
	for i, a := range mask.Pix {
		if a == 0 {
			continue
		}
		col.A = a
		layer.SetNRGBA(i%region.Dx(), i/region.Dx(), col)
	}

	if sigma > 0 {
		layer = imaging.Blur(layer, sigma)
	}
	draw.Draw(dst, region, rebaseNRGBA(layer, region.Min), region.Min, draw.Over)
}
