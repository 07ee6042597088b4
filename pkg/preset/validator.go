// validator.go: Check presets and describe them for humans.
package preset

import (
	"fmt"
	"strings"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/generator"
)

// Validate reports problems in a preset as warnings (never fatal errors):
// values that will be clamped, colours that cannot be parsed, and fills that
// are missing their parameters.
func Validate(p *Preset) []string {
	if p == nil {
		return nil
	}
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	checkColor := func(field, v string) {
		if v == "" {
			return
		}
		if _, err := generator.ParseColor(v); err != nil {
			warn("%s: %v", field, err)
		}
	}
	checkRange := func(field string, v *float64, lo, hi float64) {
		if v != nil && (*v < lo || *v > hi) {
			warn("%s %g is outside [%g, %g] and will be clamped", field, *v, lo, hi)
		}
	}

	if c := p.Canvas; c.Size != "" {
		if _, ok := Sizes[c.Size]; !ok {
			warn("unknown canvas size %q; using the image's native size", c.Size)
		}
	} else if (c.Width > 0) != (c.Height > 0) || c.Width < 0 || c.Height < 0 {
		warn("canvas needs both a positive width and height; using the image's native size")
	} else if err := CheckSize(c.Width, c.Height); err != nil {
		warn("%v; rendering will fail", err)
	}

	b := p.Background
	switch strings.ToLower(b.Type) {
	case "", FillSolid, "color":
		checkColor("background.color", b.Color)
	case FillGradient:
		if _, err := LookupGradient(b.Gradient); err != nil {
			warn("background.gradient: %v", err)
		}
	case FillFreeform:
		if len(b.Points) == 0 {
			warn("freeform background has no points")
		}
		for i, pt := range b.Points {
			checkColor(fmt.Sprintf("background.points[%d].color", i), pt.Color)
			if pt.X < 0 || pt.X > 100 || pt.Y < 0 || pt.Y > 100 {
				warn("background.points[%d] (%g, %g) lies outside the 0-100 plane", i, pt.X, pt.Y)
			}
		}
	case FillImage:
		if b.Source == "" {
			warn("image background has no source")
		}
	case FillNone:
	default:
		warn("unknown background type %q", b.Type)
	}
	checkRange("background.opacity", b.Opacity, 0, 100)
	checkRange("background.cornerRadius", b.CornerRadius, 0, 100)

	checkColor("shadow.color", p.Shadow.Color)
	checkRange("shadow.opacity", p.Shadow.Opacity, 0, 100)
	checkRange("shadow.blur", p.Shadow.Blur, 0, 20)
	checkRange("shadow.distance", p.Shadow.Distance, 0, 20)

	checkRange("image.cornerRadius", p.Image.CornerRadius, 0, 100)
	checkRange("image.padding", p.Image.Padding, 0, 50)
	checkRange("image.offsetX", p.Image.OffsetX, -50, 50)
	checkRange("image.offsetY", p.Image.OffsetY, -50, 50)

	return warnings
}

// Describe returns a human-readable summary of the preset with defaults
// filled in.
func Describe(p *Preset) string {
	var sb strings.Builder
	if p.Meta.Name != "" {
		fmt.Fprintf(&sb, "Preset: %s", p.Meta.Name)
		if p.Meta.Version != "" {
			fmt.Fprintf(&sb, " (v%s)", p.Meta.Version)
		}
		if p.Meta.Author != "" {
			fmt.Fprintf(&sb, " by %s", p.Meta.Author)
		}
		sb.WriteString("\n")
	}
	if p.Meta.Description != "" {
		sb.WriteString(p.Meta.Description + "\n")
	}
	sb.WriteString("\n")

	switch c := p.Canvas; {
	case c.Size != "":
		fmt.Fprintf(&sb, "Canvas:      %s\n", c.Size)
	case c.Width > 0 && c.Height > 0:
		fmt.Fprintf(&sb, "Canvas:      %dx%d\n", c.Width, c.Height)
	default:
		sb.WriteString("Canvas:      native image size\n")
	}

	def := composite.DefaultStyle()
	b := p.Background
	kind := b.Type
	if kind == "" {
		kind = FillSolid
	}
	fmt.Fprintf(&sb, "Background:  %s", kind)
	switch kind {
	case FillSolid, "color":
		fmt.Fprintf(&sb, " %s", orDefault(b.Color, "#ff0000"))
	case FillGradient:
		fmt.Fprintf(&sb, " %s", b.Gradient)
	case FillFreeform:
		fmt.Fprintf(&sb, " with %d points", len(b.Points))
	case FillImage:
		fmt.Fprintf(&sb, " %s", b.Source)
	}
	fmt.Fprintf(&sb, ", opacity %g%%, corners %g%%\n",
		value(b.Opacity, def.Background.OpacityPercent),
		value(b.CornerRadius, def.Background.CornerRadiusPercent))

	s := p.Shadow
	fmt.Fprintf(&sb, "Shadow:      %s, opacity %g%%, blur %g%%, distance %g%%\n",
		orDefault(s.Color, "#000000"),
		value(s.Opacity, def.Shadow.OpacityPercent),
		value(s.Blur, def.Shadow.BlurPercent),
		value(s.Distance, def.Shadow.DistancePercent))

	im := p.Image
	fmt.Fprintf(&sb, "Image:       corners %g%%, padding %g%%, offset (%g%%, %g%%)\n",
		value(im.CornerRadius, def.Image.CornerRadiusPercent),
		value(im.Padding, def.Image.PaddingPercent),
		value(im.OffsetX, def.Image.OffsetXPercent),
		value(im.OffsetY, def.Image.OffsetYPercent))

	return sb.String()
}

func value(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
