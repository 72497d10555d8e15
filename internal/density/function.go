// Package density maps world positions to a scalar rock density and samples
// it onto per-chunk lattices. Values below the surface threshold are open
// space, values at or above it are solid.
package density

import (
	"github.com/go-gl/mathgl/mgl32"

	"cavern/internal/noise"
)

// Function is a pure density lookup. Implementations must be deterministic
// and safe to call from many goroutines at once.
type Function interface {
	Density(p mgl32.Vec3) float32
}

// Func adapts a plain function to Function.
type Func func(p mgl32.Vec3) float32

func (f Func) Density(p mgl32.Vec3) float32 { return f(p) }

// Cave constants. Changing any of these changes every generated world.
const (
	caveScale = 0.002

	primaryFreq     = 0.3
	primaryWeight   = 1.0
	secondaryFreq   = 0.8
	secondaryWeight = 0.3

	openBias = 0.2

	gradientOrigin = 5000.0
	gradientSpan   = 20000.0
	gradientWeight = 0.2

	chamberFreq   = 0.05
	chamberCutoff = -0.1
	chamberCarve  = 1.5
	tunnelFreq    = 0.1
	tunnelCutoff  = -0.2
	tunnelCarve   = 0.8
)

// Cave is the large open cave formula: two inverted noise layers, a constant
// bias toward open space, a gentle vertical gradient, and two threshold
// carves for chambers and tunnels.
type Cave struct {
	Source noise.Source
}

// NewCave returns a Cave over src, or over the reference noise when src is nil.
func NewCave(src noise.Source) *Cave {
	if src == nil {
		src = noise.Reference{}
	}
	return &Cave{Source: src}
}

func (c *Cave) Density(p mgl32.Vec3) float32 {
	nx := float64(p[0]) * caveScale
	ny := float64(p[1]) * caveScale
	nz := float64(p[2]) * caveScale

	d := c.Source.Noise3D(nx*primaryFreq, ny*primaryFreq, nz*primaryFreq) * primaryWeight
	d += c.Source.Noise3D(nx*secondaryFreq, ny*secondaryFreq, nz*secondaryFreq) * secondaryWeight

	d = -d
	d += openBias
	d += (float64(p[2]) - gradientOrigin) / gradientSpan * gradientWeight

	if c.Source.Noise3D(nx*chamberFreq, ny*chamberFreq, nz*chamberFreq) < chamberCutoff {
		d -= chamberCarve
	}
	if c.Source.Noise3D(nx*tunnelFreq, ny*tunnelFreq, nz*tunnelFreq) < tunnelCutoff {
		d -= tunnelCarve
	}
	return float32(d)
}

// Fractal replaces the two fixed cave layers with configurable octave noise.
// Bias and vertical gradient match Cave; there are no carves.
type Fractal struct {
	Source      noise.Source
	Frequency   float64
	Octaves     int
	Lacunarity  float64
	Persistence float64
}

func (f *Fractal) Density(p mgl32.Vec3) float32 {
	n := noise.Fractal(f.Source, float64(p[0]), float64(p[1]), float64(p[2]),
		f.Octaves, f.Frequency, f.Lacunarity, f.Persistence)
	d := -n + openBias + (float64(p[2])-gradientOrigin)/gradientSpan*gradientWeight
	return float32(d)
}

// Constant is a uniform field, mostly useful for tests and empty regions.
type Constant float32

func (c Constant) Density(mgl32.Vec3) float32 { return float32(c) }
