package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidateChunkSizeBounds(t *testing.T) {
	for _, size := range []int{0, -1, 129, 1000} {
		cfg := Default()
		cfg.ChunkSize = size
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("chunk size %d: expected ErrInvalid, got %v", size, err)
		}
	}
	for _, size := range []int{1, 64, 128} {
		cfg := Default()
		cfg.ChunkSize = size
		if err := cfg.Validate(); err != nil {
			t.Errorf("chunk size %d: unexpected error %v", size, err)
		}
	}
}

func TestValidateRejectsBadEnums(t *testing.T) {
	mutations := map[string]func(*Config){
		"voxel size":   func(c *Config) { c.VoxelSize = 0 },
		"density mode": func(c *Config) { c.DensityMode = "swiss" },
		"noise source": func(c *Config) { c.Noise.Source = "white" },
		"normals":      func(c *Config) { c.Mesh.Normals = "vertex" },
		"dedup":        func(c *Config) { c.Mesh.Dedup.Strategy = "bucket" },
		"merge":        func(c *Config) { c.Mesh.Dedup.MergeDistance = 0 },
		"render":       func(c *Config) { c.Render.Path = "nanite" },
		"lod bands":    func(c *Config) { c.LODBands = []float32{100, 50} },
		"mu":           func(c *Config) { c.Mesh.Smoothing.Mu = 0.5 },
		"per tick":     func(c *Config) { c.ChunksPerTick = 0 },
	}
	for name, mutate := range mutations {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cave.yaml")
	raw := []byte(`
voxel_size: 25
chunk_size: 32
tick_interval: 250ms
noise:
  source: seeded
  seed: 7
mesh:
  normals: face
  dedup:
    strategy: hash
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VoxelSize != 25 || cfg.ChunkSize != 32 {
		t.Errorf("voxel/chunk = %v/%d, want 25/32", cfg.VoxelSize, cfg.ChunkSize)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("tick interval = %v, want 250ms", cfg.TickInterval)
	}
	if cfg.Noise.Source != NoiseSourceSeeded || cfg.Noise.Seed != 7 {
		t.Errorf("noise = %+v", cfg.Noise)
	}
	if cfg.Mesh.Dedup.Strategy != DedupHash {
		t.Errorf("dedup strategy = %q, want hash", cfg.Mesh.Dedup.Strategy)
	}
	// untouched fields keep their defaults
	if cfg.ViewDistance != 5 || cfg.Mesh.Dedup.MergeDistance != 0.1 {
		t.Errorf("defaults lost: view=%d merge=%v", cfg.ViewDistance, cfg.Mesh.Dedup.MergeDistance)
	}
	if cfg.ChunkWorldSize() != 800 {
		t.Errorf("ChunkWorldSize = %v, want 800", cfg.ChunkWorldSize())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("chunk_size: 256\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
