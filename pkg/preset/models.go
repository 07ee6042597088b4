// Package preset describes beautifier styles as JSON: standalone preset
// files, .shotpreset bundles carrying background images, and override files
// that tweak a preset without editing it.
package preset

import (
	"errors"
	"fmt"
)

// ── Preset types ──

// Preset is the top-level structure of a preset.json file. Every numeric
// style field is optional; nil inherits the built-in default.
type Preset struct {
	Meta       Meta           `json:"meta"`
	Canvas     Canvas         `json:"canvas"`
	Background BackgroundSpec `json:"background"`
	Shadow     ShadowSpec     `json:"shadow"`
	Image      ImageSpec      `json:"image"`
}

// Meta holds preset metadata.
type Meta struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// Canvas defines output dimensions. A named size wins over Width/Height;
// with neither, output uses the source image's native size.
type Canvas struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Size   string `json:"size,omitempty"`
}

// Background fill kinds.
const (
	FillSolid    = "solid"
	FillGradient = "gradient"
	FillFreeform = "freeform"
	FillImage    = "image"
	FillNone     = "none"
)

// BackgroundSpec selects and styles the background fill.
type BackgroundSpec struct {
	Type         string      `json:"type,omitempty"`     // solid (default), gradient, freeform, image, none
	Color        string      `json:"color,omitempty"`    // solid: "#rrggbb"
	Gradient     string      `json:"gradient,omitempty"` // gradient: catalog name or "linear-gradient(...)"
	Points       []PointSpec `json:"points,omitempty"`   // freeform control points
	Source       string      `json:"source,omitempty"`   // image: path, resolved from bundle assets
	Opacity      *float64    `json:"opacity,omitempty"`
	CornerRadius *float64    `json:"cornerRadius,omitempty"`
}

// PointSpec is one freeform control point; X and Y are percentages.
type PointSpec struct {
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ShadowSpec styles the drop shadow.
type ShadowSpec struct {
	Color    string   `json:"color,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Blur     *float64 `json:"blur,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// ImageSpec rounds, pads and offsets the screenshot.
type ImageSpec struct {
	CornerRadius *float64 `json:"cornerRadius,omitempty"`
	Padding      *float64 `json:"padding,omitempty"`
	OffsetX      *float64 `json:"offsetX,omitempty"`
	OffsetY      *float64 `json:"offsetY,omitempty"`
}

// ── Override types ──

// Overrides is the top-level structure of an overrides file. Only the
// fields present replace the preset's values.
type Overrides struct {
	Canvas     *Canvas         `json:"canvas,omitempty"`
	Background *BackgroundSpec `json:"background,omitempty"`
	Shadow     *ShadowSpec     `json:"shadow,omitempty"`
	Image      *ImageSpec      `json:"image,omitempty"`
}

// ── Output sizes ──

// Sizes maps size names to [width, height].
var Sizes = map[string][2]int{
	"720p":             {1280, 720},
	"1080p":            {1920, 1080},
	"4k":               {3840, 2160},
	"instagram_square": {1080, 1080},
	"instagram_story":  {1080, 1920},
	"youtube_thumb":    {1280, 720},
	"twitter_post":     {1600, 900},
	"linkedin_post":    {1200, 627},
	"dribbble_shot":    {1600, 1200},
}

// Output size limits. A larger canvas is refused rather than allocated.
const (
	MaxSide   = 16384
	MaxPixels = 8192 * 8192
)

// ErrCanvasTooLarge is returned by CheckSize.
var ErrCanvasTooLarge = errors.New("canvas too large")

// CheckSize rejects output sizes beyond MaxSide on either side or MaxPixels
// in area.
func CheckSize(w, h int) error {
	if w > MaxSide || h > MaxSide || int64(w)*int64(h) > MaxPixels {
		return fmt.Errorf("%w: %dx%d (at most %d per side and %d pixels)", ErrCanvasTooLarge, w, h, MaxSide, MaxPixels)
	}
	return nil
}

// Resolve returns the output size for a source of the given native size.
func (c Canvas) Resolve(nativeW, nativeH int) (int, int) {
	if dims, ok := Sizes[c.Size]; ok {
		return dims[0], dims[1]
	}
	if c.Width > 0 && c.Height > 0 {
		return c.Width, c.Height
	}
	return nativeW, nativeH
}

// Float returns a pointer to v, for building presets in code.
func Float(v float64) *float64 {
	return &v
}
