package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"cavern/internal/config"
	"cavern/internal/physics"
	"cavern/internal/world"
)

// probeCmd samples the density at a point and casts a ray from it.
func probeCmd(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file (defaults when empty)")
	from := fs.String("from", "0,0,0", "ray origin x,y,z")
	dir := fs.String("dir", "0,0,-1", "ray direction x,y,z")
	maxDist := fs.Float64("max", 10000, "maximum ray length")
	step := fs.Float64("step", 0, "march step (0 = a quarter voxel)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	origin, err := parseVec3(*from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	direction, err := parseVec3(*dir)
	if err != nil {
		return fmt.Errorf("-dir: %w", err)
	}
	stepSize := float32(*step)
	if stepSize <= 0 {
		stepSize = cfg.VoxelSize / 4
	}

	fn := world.NewDensityFunction(cfg)
	fmt.Printf("density at %v: %.4f (chunk %v)\n",
		origin, fn.Density(origin), world.WorldToChunk(origin, cfg.ChunkWorldSize()))

	r := physics.Raycast(origin, direction, physics.MinReachDistance, float32(*maxDist), stepSize, cfg.CaveThreshold, fn)
	if !r.Hit {
		fmt.Printf("no surface within %.0f\n", *maxDist)
		return nil
	}
	fmt.Printf("hit at %v, distance %.2f, normal %v\n", r.Point, r.Distance, r.Normal)
	return nil
}

func parseVec3(s string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("want x,y,z, got %q", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
