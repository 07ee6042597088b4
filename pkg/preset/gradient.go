// gradient.go: CSS linear-gradient syntax and the stock gradient catalog.
package preset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/generator"
)

// CatalogEntry is a named stock gradient.
type CatalogEntry struct {
	Name string `json:"name"`
	CSS  string `json:"css"`
}

var catalog = []CatalogEntry{
	{"sunset", "linear-gradient(135deg, #ff7e5f, #feb47b)"},
	{"ocean", "linear-gradient(90deg, #2e3192, #1bffff)"},
	{"purple-bliss", "linear-gradient(135deg, #360033, #0b8793)"},
	{"peach", "linear-gradient(45deg, #ed4264, #ffedbc)"},
	{"mint", "linear-gradient(180deg, #00b09b, #96c93d)"},
	{"midnight", "linear-gradient(160deg, #232526, #414345)"},
	{"candy", "linear-gradient(120deg, #f093fb, #f5576c)"},
	{"sky", "linear-gradient(to right, #56ccf2, #2f80ed)"},
	{"citrus", "linear-gradient(225deg, #fdc830, #f37335)"},
	{"aurora", "linear-gradient(135deg, #00c9ff, #92fe9d 50%, #fc466b)"},
	{"slate", "linear-gradient(to bottom, #bdc3c7, #2c3e50)"},
	{"rose", "linear-gradient(300deg, #ee9ca7, #ffdde1)"},
}

// Catalog returns the stock gradients.
func Catalog() []CatalogEntry {
	return append([]CatalogEntry(nil), catalog...)
}

// LookupGradient resolves a catalog name or a linear-gradient expression.
func LookupGradient(s string) (composite.LinearGradient, error) {
	for _, e := range catalog {
		if strings.EqualFold(e.Name, s) {
			return ParseLinearGradient(e.CSS)
		}
	}
	return ParseLinearGradient(s)
}

var sideAngles = map[string]float64{
	"to top":          0,
	"to right":        90,
	"to bottom":       180,
	"to left":         270,
	"to top right":    45,
	"to right top":    45,
	"to bottom right": 135,
	"to right bottom": 135,
	"to bottom left":  225,
	"to left bottom":  225,
	"to top left":     315,
	"to left top":     315,
}

// ParseLinearGradient parses "linear-gradient(<angle>, <color> [<pos>%], ...)".
// The angle is "<n>deg", "<n>turn" or a "to <side>" keyword and defaults to
// 180deg (top to bottom). Colours are hex. Missing stop positions are spread
// evenly between their neighbours, and positions never decrease.
func ParseLinearGradient(s string) (composite.LinearGradient, error) {
	var g composite.LinearGradient

	body := strings.TrimSpace(s)
	lower := strings.ToLower(body)
	if !strings.HasPrefix(lower, "linear-gradient(") || !strings.HasSuffix(lower, ")") {
		return g, fmt.Errorf("invalid gradient %q: expected linear-gradient(...)", s)
	}
	body = body[len("linear-gradient(") : len(body)-1]

	parts := strings.Split(body, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	g.AngleDegrees = 180
	if angle, ok, err := parseAngle(parts[0]); err != nil {
		return g, fmt.Errorf("invalid gradient %q: %w", s, err)
	} else if ok {
		g.AngleDegrees = angle
		parts = parts[1:]
	}

	if len(parts) < 2 {
		return g, fmt.Errorf("invalid gradient %q: need at least two colours", s)
	}

	positions := make([]float64, len(parts))
	for i, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 || len(fields) > 2 {
			return g, fmt.Errorf("invalid colour stop %q", part)
		}
		c, err := generator.ParseColor(fields[0])
		if err != nil || strings.EqualFold(fields[0], "random") {
			return g, fmt.Errorf("invalid colour stop %q", part)
		}
		positions[i] = math.NaN()
		if len(fields) == 2 {
			pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64)
			if err != nil || !strings.HasSuffix(fields[1], "%") {
				return g, fmt.Errorf("invalid stop position %q", fields[1])
			}
			positions[i] = pct / 100
		}
		c.A = 0xff
		g.Stops = append(g.Stops, composite.Stop{Color: c})
	}

	fillPositions(positions)
	for i := range g.Stops {
		g.Stops[i].Position = positions[i]
	}
	return g, nil
}

// parseAngle reports ok=false when part is not an angle at all.
func parseAngle(part string) (float64, bool, error) {
	lower := strings.ToLower(strings.Join(strings.Fields(part), " "))
	if a, ok := sideAngles[lower]; ok {
		return a, true, nil
	}
	if strings.HasPrefix(lower, "to ") {
		return 0, false, fmt.Errorf("unknown direction %q", part)
	}

	unit := 1.0
	switch {
	case strings.HasSuffix(lower, "deg"):
		lower = strings.TrimSuffix(lower, "deg")
	case strings.HasSuffix(lower, "turn"):
		lower = strings.TrimSuffix(lower, "turn")
		unit = 360
	default:
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(lower, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid angle %q", part)
	}
	return v * unit, true, nil
}

// fillPositions replaces NaN entries following the CSS rules: the ends
// default to 0 and 1, gaps are interpolated, and each position is at least
// the one before it.
func fillPositions(pos []float64) {
	n := len(pos)
	if math.IsNaN(pos[0]) {
		pos[0] = 0
	}
	if math.IsNaN(pos[n-1]) {
		pos[n-1] = 1
	}
	for i := 1; i < n; i++ {
		if !math.IsNaN(pos[i]) {
			pos[i] = max(pos[i], pos[i-1])
			continue
		}
		j := i
		for math.IsNaN(pos[j]) {
			j++
		}
		end := max(pos[j], pos[i-1])
		step := (end - pos[i-1]) / float64(j-i+1)
		for k := i; k < j; k++ {
			pos[k] = pos[i-1] + step*float64(k-i+1)
		}
	}
}

// FormatLinearGradient writes g back as a linear-gradient expression that
// ParseLinearGradient accepts.
func FormatLinearGradient(g composite.LinearGradient) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "linear-gradient(%sdeg", strconv.FormatFloat(g.AngleDegrees, 'f', -1, 64))
	for _, s := range g.Stops {
		fmt.Fprintf(&sb, ", %s %s%%", generator.FormatHex(s.Color), strconv.FormatFloat(s.Position*100, 'f', -1, 64))
	}
	sb.WriteString(")")
	return sb.String()
}
