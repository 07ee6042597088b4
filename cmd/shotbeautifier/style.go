package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xob0t/ShotBeautifier/pkg/preset"
)

// styleFlags are the per-field style options shared by the render and
// backdrop modes. Only flags given on the command line override the preset.
type styleFlags struct {
	background    string
	opacity       float64
	bgCorner      float64
	shadowColor   string
	shadowOpacity float64
	blur          float64
	distance      float64
	corner        float64
	padding       float64
	offsetX       float64
	offsetY       float64
	size          string
	width         int
	height        int
}

func (sf *styleFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&sf.background, "background", "", "Background: hex colour, 'random', gradient name, linear-gradient(...) or image path")
	fs.StringVar(&sf.background, "bg", "", "Shorthand for --background")
	fs.Float64Var(&sf.opacity, "opacity", 100, "Background opacity, 0-100")
	fs.Float64Var(&sf.bgCorner, "bg-corner", 5, "Background corner radius, 0-100")
	fs.StringVar(&sf.shadowColor, "shadow-color", "#000000", "Shadow colour")
	fs.Float64Var(&sf.shadowOpacity, "shadow-opacity", 60, "Shadow opacity, 0-100")
	fs.Float64Var(&sf.blur, "blur", 10, "Shadow blur, 0-20")
	fs.Float64Var(&sf.distance, "distance", 5, "Shadow distance, 0-20")
	fs.Float64Var(&sf.corner, "corner", 5, "Image corner radius, 0-100")
	fs.Float64Var(&sf.padding, "padding", 30, "Image padding, 0-50")
	fs.Float64Var(&sf.offsetX, "offset-x", 0, "Image horizontal offset, -50-50")
	fs.Float64Var(&sf.offsetY, "offset-y", 0, "Image vertical offset, -50-50")
	fs.StringVar(&sf.size, "size", "", "Named output size (see help)")
	fs.IntVar(&sf.width, "w", 0, "Output width in pixels")
	fs.IntVar(&sf.width, "width", 0, "Output width in pixels")
	fs.IntVar(&sf.height, "h", 0, "Output height in pixels")
	fs.IntVar(&sf.height, "height", 0, "Output height in pixels")
}

// overrides turns the flags that were actually set into preset overrides.
func (sf *styleFlags) overrides(fs *flag.FlagSet) (*preset.Overrides, error) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	o := &preset.Overrides{}
	pick := func(v float64, names ...string) *float64 {
		for _, n := range names {
			if set[n] {
				return preset.Float(v)
			}
		}
		return nil
	}

	switch {
	case sf.size != "":
		if _, ok := preset.Sizes[sf.size]; !ok {
			return nil, fmt.Errorf("unknown size %q", sf.size)
		}
		o.Canvas = &preset.Canvas{Size: sf.size}
	case sf.width > 0 || sf.height > 0:
		if sf.width <= 0 || sf.height <= 0 {
			return nil, fmt.Errorf("-w and -h must be given together")
		}
		o.Canvas = &preset.Canvas{Width: sf.width, Height: sf.height}
	}

	bg := preset.BackgroundSpec{
		Opacity:      pick(sf.opacity, "opacity"),
		CornerRadius: pick(sf.bgCorner, "bg-corner"),
	}
	if sf.background != "" {
		fill, err := parseBackground(sf.background)
		if err != nil {
			return nil, err
		}
		fill.Opacity, fill.CornerRadius = bg.Opacity, bg.CornerRadius
		bg = fill
	}
	if bg.Type != "" || bg.Opacity != nil || bg.CornerRadius != nil {
		o.Background = &bg
	}

	sh := preset.ShadowSpec{
		Opacity:  pick(sf.shadowOpacity, "shadow-opacity"),
		Blur:     pick(sf.blur, "blur"),
		Distance: pick(sf.distance, "distance"),
	}
	if set["shadow-color"] {
		sh.Color = sf.shadowColor
	}
	if sh != (preset.ShadowSpec{}) {
		o.Shadow = &sh
	}

	im := preset.ImageSpec{
		CornerRadius: pick(sf.corner, "corner"),
		Padding:      pick(sf.padding, "padding"),
		OffsetX:      pick(sf.offsetX, "offset-x"),
		OffsetY:      pick(sf.offsetY, "offset-y"),
	}
	if im != (preset.ImageSpec{}) {
		o.Image = &im
	}
	return o, nil
}

// parseBackground reads a --background value. Colours and gradients are
// tried first; anything else must name an existing image file.
func parseBackground(s string) (preset.BackgroundSpec, error) {
	switch {
	case strings.HasPrefix(s, "#"), strings.EqualFold(s, "random"):
		return preset.BackgroundSpec{Type: preset.FillSolid, Color: s}, nil
	case strings.EqualFold(s, "none"):
		return preset.BackgroundSpec{Type: preset.FillNone}, nil
	}
	if _, err := preset.LookupGradient(s); err == nil {
		return preset.BackgroundSpec{Type: preset.FillGradient, Gradient: s}, nil
	} else if strings.HasPrefix(strings.ToLower(s), "linear-gradient(") {
		return preset.BackgroundSpec{}, err
	}
	if _, err := os.Stat(s); err != nil {
		return preset.BackgroundSpec{}, fmt.Errorf("background %q is not a colour, gradient or readable image", s)
	}
	return preset.BackgroundSpec{Type: preset.FillImage, Source: s}, nil
}
