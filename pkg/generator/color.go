// color.go: Colour parsing and formatting.
package generator

import (
	"crypto/rand"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa" (the leading '#' is
// optional) or "random". An empty string is treated as "random".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "random") {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return color.RGBA{}, fmt.Errorf("random color: %w", err)
		}
		return color.RGBA{R: buf[0], G: buf[1], B: buf[2], A: 255}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #rgb, #rrggbb or #rrggbbaa", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// FormatHex renders c as "#rrggbb", or "#rrggbbaa" when it is not opaque.
func FormatHex(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
