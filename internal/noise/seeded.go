package noise

import (
	perlin "github.com/aquilax/go-perlin"
)

// Seeded wraps go-perlin with a seed-derived permutation. Unlike Reference,
// its output depends on the seed, so two worlds with different seeds differ.
type Seeded struct {
	p *perlin.Perlin
}

// NewSeeded builds a single-octave source; octave layering is left to the
// caller so both sources compose the same way.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{p: perlin.NewPerlin(2, 2, 1, seed)}
}

func (s *Seeded) Noise3D(x, y, z float64) float64 {
	return clamp(s.p.Noise3D(x, y, z), -1, 1)
}

// New returns the source named by kind: "seeded", "value", or anything else
// for the reference permutation.
func New(kind string, seed int64) Source {
	switch kind {
	case "seeded":
		return NewSeeded(seed)
	case "value":
		return Value{Seed: seed}
	default:
		return Reference{}
	}
}
