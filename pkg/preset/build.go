package preset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/freeform"
	"github.com/xob0t/ShotBeautifier/pkg/generator"
)

// ImageResolver turns a background image source into a future that yields
// the decoded image.
type ImageResolver func(source string) *composite.ImageFuture

// FileImages loads background images from disk in the background.
func FileImages(source string) *composite.ImageFuture {
	return composite.Load(func() (image.Image, error) {
		return generator.LoadImage(source)
	})
}

// Build converts a preset into a compositor style, starting from
// composite.DefaultStyle for anything the preset leaves unset. Image
// backgrounds are resolved through images; nil means FileImages.
func Build(p *Preset, images ImageResolver) (composite.Style, error) {
	st := composite.DefaultStyle()
	if p == nil {
		return st, nil
	}
	if images == nil {
		images = FileImages
	}

	fill, err := buildFill(p.Background, st.Background.Fill, images)
	if err != nil {
		return st, fmt.Errorf("background: %w", err)
	}
	st.Background.Fill = fill
	setFloat(&st.Background.OpacityPercent, p.Background.Opacity)
	setFloat(&st.Background.CornerRadiusPercent, p.Background.CornerRadius)

	if p.Shadow.Color != "" {
		c, err := generator.ParseColor(p.Shadow.Color)
		if err != nil {
			return st, fmt.Errorf("shadow: %w", err)
		}
		st.Shadow.Color = opaque(c)
	}
	setFloat(&st.Shadow.OpacityPercent, p.Shadow.Opacity)
	setFloat(&st.Shadow.BlurPercent, p.Shadow.Blur)
	setFloat(&st.Shadow.DistancePercent, p.Shadow.Distance)

	setFloat(&st.Image.CornerRadiusPercent, p.Image.CornerRadius)
	setFloat(&st.Image.PaddingPercent, p.Image.Padding)
	setFloat(&st.Image.OffsetXPercent, p.Image.OffsetX)
	setFloat(&st.Image.OffsetYPercent, p.Image.OffsetY)

	return st, nil
}

func buildFill(b BackgroundSpec, def composite.Background, images ImageResolver) (composite.Background, error) {
	switch strings.ToLower(b.Type) {
	case "", FillSolid, "color":
		if b.Color == "" {
			return def, nil
		}
		c, err := generator.ParseColor(b.Color)
		if err != nil {
			return nil, err
		}
		return composite.Solid{Color: opaque(c)}, nil

	case FillGradient:
		if b.Gradient == "" {
			return nil, errors.New("gradient background without a gradient")
		}
		return LookupGradient(b.Gradient)

	case FillFreeform:
		if len(b.Points) == 0 {
			return nil, freeform.ErrNoPoints
		}
		points := make([]freeform.ColorPoint, len(b.Points))
		for i, ps := range b.Points {
			c, err := generator.ParseColor(ps.Color)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			points[i] = freeform.ColorPoint{Color: opaque(c), X: ps.X, Y: ps.Y}
		}
		return composite.Freeform{Points: points}, nil

	case FillImage:
		if b.Source == "" {
			return nil, errors.New("image background without a source")
		}
		return composite.Bitmap{Image: images(b.Source)}, nil

	case FillNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown background type %q", b.Type)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func opaque(c color.RGBA) color.RGBA {
	c.A = 0xff
	return c
}

// SpecFor describes a fill as preset JSON. Bitmap fills have no portable
// description and come back with an empty source.
func SpecFor(fill composite.Background) BackgroundSpec {
	switch f := fill.(type) {
	case composite.Solid:
		return BackgroundSpec{Type: FillSolid, Color: generator.FormatHex(f.Color)}
	case composite.LinearGradient:
		return BackgroundSpec{Type: FillGradient, Gradient: FormatLinearGradient(f)}
	case composite.Freeform:
		points := make([]PointSpec, len(f.Points))
		for i, p := range f.Points {
			points[i] = PointSpec{Color: generator.FormatHex(p.Color), X: p.X, Y: p.Y}
		}
		return BackgroundSpec{Type: FillFreeform, Points: points}
	case composite.Bitmap:
		return BackgroundSpec{Type: FillImage}
	default:
		return BackgroundSpec{Type: FillNone}
	}
}
