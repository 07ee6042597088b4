package palette

import (
	"image/color"
	"math/rand/v2"

	"github.com/xob0t/ShotBeautifier/pkg/composite"
	"github.com/xob0t/ShotBeautifier/pkg/freeform"
)

// Suggest builds up to ten backgrounds from an image palette: eight freeform
// gradients drawn from the palette, its complements and its light colours, a
// dark-to-light linear gradient at a random angle, and one solid colour.
// Recipes whose colour set turns out empty are left out, so an empty palette
// yields nil.
func Suggest(rng *rand.Rand, colors []color.RGBA) []composite.Background {
	if len(colors) == 0 {
		return nil
	}

	light, dark := Split(colors)
	matching := make([]color.RGBA, len(colors))
	for i, c := range colors {
		matching[i] = Complement(c)
	}
	mixed := append(append([]color.RGBA(nil), colors...), matching...)

	between := func(lo, n int) int { return lo + rng.IntN(n) }
	head := func(cs []color.RGBA, n int) []color.RGBA { return cs[:min(n, len(cs))] }

	sets := [][]color.RGBA{
		colors,
		head(colors, 3),
		light,
		head(mixed, between(5, 4)),
		head(mixed, between(3, 3)),
		head(matching, between(4, 5)),
		head(matching, between(3, 4)),
		head(mixed, between(1, 3)),
	}
	counts := []func() int{
		func() int { return between(4, 5) },
		func() int { return 3 },
		func() int { return between(3, 5) },
		func() int { return between(4, 5) },
		func() int { return between(3, 3) },
		func() int { return between(4, 5) },
		func() int { return between(3, 4) },
		func() int { return between(1, 3) },
	}

	var out []composite.Background
	for i, set := range sets {
		n := counts[i]()
		if len(set) == 0 {
			continue
		}
		out = append(out, composite.Freeform{Points: freeform.Generate(rng, set, n)})
	}

	out = append(out, contrastGradient(rng, colors, light, dark))
	out = append(out, composite.Solid{Color: colors[rng.IntN(len(colors))]})
	return out
}

// contrastGradient runs from the first dark colour through the middle of the
// palette to the first light colour.
func contrastGradient(rng *rand.Rand, colors, light, dark []color.RGBA) composite.LinearGradient {
	var cs []color.RGBA
	if len(dark) > 0 {
		cs = append(cs, dark[0])
	}
	cs = append(cs, colors[len(colors)/2])
	if len(light) > 0 {
		cs = append(cs, light[0])
	}
	return composite.LinearGradient{
		Stops:        EvenStops(cs),
		AngleDegrees: float64(rng.IntN(360)),
	}
}

// EvenStops spreads colours evenly from position 0 to 1.
func EvenStops(cs []color.RGBA) []composite.Stop {
	stops := make([]composite.Stop, len(cs))
	for i, c := range cs {
		pos := 0.0
		if len(cs) > 1 {
			pos = float64(i) / float64(len(cs)-1)
		}
		stops[i] = composite.Stop{Color: c, Position: pos}
	}
	return stops
}
