package composite

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
)

// drawBackground fills the rounded background rectangle on canvas with the
// style's fill at the style's opacity.
func (c *Compositor) drawBackground(ctx context.Context, canvas *image.RGBA, l Layout, st BackgroundStyle) error {
	st = st.Clamped()
	if st.Fill == nil || st.OpacityPercent == 0 {
		return nil
	}

	bounds := l.Background.Bounds().Intersect(canvas.Bounds())
	if bounds.Empty() {
		return nil
	}

	fill, err := c.backgroundFill(ctx, l.Background.Bounds(), l.Background, st.Fill)
	if err != nil {
		return err
	}

	mask := roundedRectMask(canvas.Bounds(), l.Background, l.BackgroundRadius(st))
	scaleAlpha(mask, st.OpacityPercent/100)
	draw.DrawMask(canvas, bounds, fill, bounds.Min, mask, bounds.Min, draw.Over)
	return nil
}

// backgroundFill returns an image whose coordinate space is the canvas and
// which is defined at least over area.
func (c *Compositor) backgroundFill(ctx context.Context, area image.Rectangle, r Rect, fill Background) (image.Image, error) {
	switch f := fill.(type) {
	case Solid:
		return image.NewUniform(opaque(f.Color)), nil
	case LinearGradient:
		return linearGradientFill(area, r, f), nil
	case Freeform:
		img, err := c.gradients.Render(area.Dx(), area.Dy(), f.Points)
		if err != nil {
			return nil, fmt.Errorf("freeform background: %w", err)
		}
		return rebaseRGBA(img, area.Min), nil
	case Bitmap:
		src, err := f.Image.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("bitmap background: %w", err)
		}
		if src == nil || src.Bounds().Empty() {
			return nil, fmt.Errorf("bitmap background: %w", ErrNoSource)
		}
		stretched := imaging.Resize(src, area.Dx(), area.Dy(), imaging.Linear)
		return rebaseNRGBA(stretched, area.Min), nil
	default:
		return nil, fmt.Errorf("unsupported background %T", fill)
	}
}

// linearGradientFill evaluates a CSS-style linear gradient over area. The
// gradient line passes through the centre of r at the given angle and is
// long enough that the stops at 0 and 1 touch r's corners. Stops are blended
// in gamma-encoded sRGB, as browsers and canvas gradients do.
func linearGradientFill(area image.Rectangle, r Rect, f LinearGradient) image.Image {
	rad := f.AngleDegrees * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := (math.Abs(r.W*dx) + math.Abs(r.H*dy)) / 2
	cx, cy := r.X+r.W/2, r.Y+r.H/2

	ramp := newGradientRamp(gg.Pt(cx-dx*half, cy-dy*half), gg.Pt(cx+dx*half, cy+dy*half), f.Stops)
	img := image.NewNRGBA(area)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			img.SetNRGBA(x, y, ramp.at(float64(x)+0.5, float64(y)+0.5))
		}
	}
	return img
}

// gradientRamp is a padded linear gradient between two points.
type gradientRamp struct {
	start, end gg.Point
	stops      []gg.ColorStop
}

func newGradientRamp(start, end gg.Point, stops []Stop) *gradientRamp {
	g := &gradientRamp{start: start, end: end}
	for _, s := range stops {
		g.stops = append(g.stops, gg.ColorStop{
			Offset: clamp(s.Position, 0, 1),
			Color:  gg.RGB(float64(s.Color.R)/255, float64(s.Color.G)/255, float64(s.Color.B)/255),
		})
	}
	sort.SliceStable(g.stops, func(i, j int) bool { return g.stops[i].Offset < g.stops[j].Offset })
	return g
}

func (g *gradientRamp) at(x, y float64) color.NRGBA {
	if len(g.stops) == 0 {
		return color.NRGBA{}
	}
	d := g.end.Sub(g.start)
	t := 0.0
	if lenSq := d.Dot(d); lenSq > 0 {
		t = gg.Pt(x, y).Sub(g.start).Dot(d) / lenSq
	}

	c := g.stops[len(g.stops)-1].Color
	if t <= g.stops[0].Offset {
		c = g.stops[0].Color
	} else {
		for i := 1; i < len(g.stops); i++ {
			b := g.stops[i]
			if t > b.Offset {
				continue
			}
			a := g.stops[i-1]
			c = b.Color
			if b.Offset > a.Offset {
				c = a.Color.Lerp(b.Color, (t-a.Offset)/(b.Offset-a.Offset))
			}
			break
		}
	}
	return color.NRGBA{R: unit8(c.R), G: unit8(c.G), B: unit8(c.B), A: 0xff}
}

// unit8 maps a [0,1] channel to 0..255 with rounding.
func unit8(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// rebaseRGBA returns a view of img, which starts at the origin, moved to
// start at off. The pixels are shared.
func rebaseRGBA(img *image.RGBA, off image.Point) *image.RGBA {
	return &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect.Add(off)}
}

func rebaseNRGBA(img *image.NRGBA, off image.Point) *image.NRGBA {
	return &image.NRGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect.Add(off)}
}

// opaque drops the alpha of a style colour; style colours are plain RGB.
func opaque(c color.RGBA) color.RGBA {
	c.A = 0xff
	return c
}
