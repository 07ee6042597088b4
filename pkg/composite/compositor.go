package composite

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/xob0t/ShotBeautifier/pkg/freeform"
)

// Compositor renders composition requests. It is safe for concurrent use;
// the only state it keeps is a small cache of rendered freeform gradients.
type Compositor struct {
	gradients *freeform.Renderer
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithGradientCache sets how many preview-sized freeform rasters each cache
// shard keeps.
func WithGradientCache(capacity int) Option {
	return func(c *Compositor) {
		c.gradients = freeform.NewRenderer(capacity)
	}
}

// New creates a Compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{}
	for _, opt := range opts {
		opt(c)
	}
	if c.gradients == nil {
		c.gradients = freeform.NewRenderer(freeform.DefaultCacheCapacity)
	}
	return c
}

var defaultCompositor = New()

// Apply renders req into target with the package's default Compositor.
func Apply(target draw.Image, req Request) error {
	return defaultCompositor.Apply(target, req)
}

// Apply renders req and replaces the contents of target with the result.
func (c *Compositor) Apply(target draw.Image, req Request) error {
	return c.ApplyContext(context.Background(), target, req)
}

// ApplyContext is Apply with a context bounding any wait for a bitmap
// background that is still loading.
func (c *Compositor) ApplyContext(ctx context.Context, target draw.Image, req Request) error {
	if noSurface(target) {
		Logger().Warn("composite: no target surface")
		return ErrSurfaceUnavailable
	}
	img, err := c.Compose(ctx, req)
	if err != nil {
		return err
	}
	blit(target, img)
	return nil
}

// noSurface reports whether dst is nil, including a nil pointer of one of
// the image package's types stored in the interface.
func noSurface(dst draw.Image) bool {
	switch d := dst.(type) {
	case nil:
		return true
	case *image.RGBA:
		return d == nil
	case *image.NRGBA:
		return d == nil
	case *image.RGBA64:
		return d == nil
	case *image.NRGBA64:
		return d == nil
	case *image.Alpha:
		return d == nil
	case *image.Alpha16:
		return d == nil
	case *image.Gray:
		return d == nil
	case *image.Gray16:
		return d == nil
	case *image.CMYK:
		return d == nil
	case *image.Paletted:
		return d == nil
	}
	return false
}

// Compose renders req into a new canvas of req.Width × req.Height, each
// clamped to at least 1.
func (c *Compositor) Compose(ctx context.Context, req Request) (*image.RGBA, error) {
	if req.Source == nil || req.Source.Bounds().Empty() {
		return nil, ErrNoSource
	}
	src := req.Source.Bounds()
	l := ComputeLayout(src.Dx(), src.Dy(), req.Width, req.Height, req.Image)

	Logger().Debug("composite: compose",
		"width", l.Width, "height", l.Height,
		"image", fmt.Sprintf("%.1fx%.1f", l.Image.W, l.Image.H),
		"padding", l.Padding)

	canvas := image.NewRGBA(l.canvas())
	if err := c.drawBackground(ctx, canvas, l, req.Background); err != nil {
		Logger().Warn("composite: background failed", "err", err)
		return nil, err
	}

	// Shadow and image go through a scratch surface so the background's
	// opacity never applies to them.
	scratch := image.NewRGBA(l.canvas())
	drawShadow(scratch, l, req.Image, req.Shadow)
	drawImage(scratch, l, req.Source, req.Image)
	draw.Draw(canvas, canvas.Bounds(), scratch, image.Point{}, draw.Over)

	return canvas, nil
}

// Backdrop renders only a background style over a whole width × height
// canvas, for wallpapers and suggestion swatches.
func (c *Compositor) Backdrop(ctx context.Context, st BackgroundStyle, width, height int) (*image.RGBA, error) {
	l := Layout{Width: max(width, 1), Height: max(height, 1)}
	l.Background = Rect{W: float64(l.Width), H: float64(l.Height)}
	canvas := image.NewRGBA(l.canvas())
	if err := c.drawBackground(ctx, canvas, l, st); err != nil {
		return nil, err
	}
	return canvas, nil
}

// drawImage draws src scaled into the layout's image rectangle, clipped to
// its rounded corners.
func drawImage(dst *image.RGBA, l Layout, src image.Image, st ImageStyle) {
	dr := l.Image.Bounds()
	if dr.Empty() {
		return
	}
	mask := roundedRectMask(dst.Bounds(), l.Image, l.ImageRadius(st))

	sr := src.Bounds()
	if dr.Size() == sr.Size() {
		draw.DrawMask(dst, dr, src, sr.Min, mask, dr.Min, draw.Over)
		return
	}
	xdraw.CatmullRom.Scale(dst, dr, src, sr, xdraw.Over, &xdraw.Options{DstMask: mask})
}

// blit clears target and copies img to its top-left corner.
func blit(target draw.Image, img *image.RGBA) {
	b := target.Bounds()
	draw.Draw(target, b, image.Transparent, image.Point{}, draw.Src)
	draw.Draw(target, img.Bounds().Add(b.Min), img, image.Point{}, draw.Src)
}
