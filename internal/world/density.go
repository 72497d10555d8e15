package world

import (
	"cavern/internal/config"
	"cavern/internal/density"
	"cavern/internal/noise"
)

// NewDensityFunction builds the density function cfg selects.
func NewDensityFunction(cfg config.Config) density.Function {
	src := noise.New(cfg.Noise.Source, cfg.Noise.Seed)
	if cfg.DensityMode == config.DensityModeFractal {
		return &density.Fractal{
			Source:      src,
			Frequency:   float64(cfg.Noise.Frequency),
			Octaves:     cfg.Noise.Octaves,
			Lacunarity:  float64(cfg.Noise.Lacunarity),
			Persistence: float64(cfg.Noise.Persistence),
		}
	}
	return density.NewCave(src)
}
