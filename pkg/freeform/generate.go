package freeform

import (
	"image/color"
	"math/rand/v2"
)

// Generate picks up to n of colors in random order and scatters them over the
// plane. The input slice is not modified. Pass a seeded rng to reproduce a
// layout.
func Generate(rng *rand.Rand, colors []color.RGBA, n int) []ColorPoint {
	if n <= 0 || len(colors) == 0 {
		return nil
	}

	shuffled := append([]color.RGBA(nil), colors...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	shuffled = shuffled[:min(n, len(shuffled))]

	points := make([]ColorPoint, len(shuffled))
	for i, c := range shuffled {
		points[i] = ColorPoint{
			Color: color.RGBA{R: c.R, G: c.G, B: c.B, A: 255},
			X:     rng.Float64() * 100,
			Y:     rng.Float64() * 100,
		}
	}
	return points
}

// NewRand returns a generator seeded for Generate.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
