package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

const (
	MinChunkSize = 1
	MaxChunkSize = 128

	NoiseSourceReference = "reference"
	NoiseSourceSeeded    = "seeded"
	NoiseSourceValue     = "value"

	DensityModeCave    = "cave"
	DensityModeFractal = "fractal"

	NormalsGradient = "gradient"
	NormalsFace     = "face"

	DedupSort = "sort"
	DedupHash = "hash"

	RenderStandard  = "standard"
	RenderAlternate = "alternate"
	RenderBoth      = "both"
)

// Config holds every generation and streaming tunable. It is passed by value;
// nothing mutates a Config after it has been handed to a component.
type Config struct {
	VoxelSize       float32       `yaml:"voxel_size"`
	ChunkSize       int           `yaml:"chunk_size"`
	ViewDistance    int           `yaml:"view_distance"`
	MaxActiveChunks int           `yaml:"max_active_chunks"`
	ChunksPerTick   int           `yaml:"chunks_per_tick"`
	AsyncGeneration bool          `yaml:"async_generation"`
	Workers         int           `yaml:"workers"`     // 0 = runtime.NumCPU()
	SliceCount      int           `yaml:"slice_count"` // >1 extracts by Z-slices in parallel
	PoolCapacity    int           `yaml:"pool_capacity"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	LODBands        []float32     `yaml:"lod_bands"`

	CaveThreshold float32 `yaml:"cave_threshold"`
	DensityMode   string  `yaml:"density_mode"`

	Noise   NoiseConfig   `yaml:"noise"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Memory  MemoryConfig  `yaml:"memory"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

type NoiseConfig struct {
	Source      string  `yaml:"source"`
	Seed        int64   `yaml:"seed"`
	Frequency   float32 `yaml:"frequency"`
	Octaves     int     `yaml:"octaves"`
	Lacunarity  float32 `yaml:"lacunarity"`
	Persistence float32 `yaml:"persistence"`
}

type MeshConfig struct {
	Normals   string          `yaml:"normals"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
}

type DedupConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Strategy       string  `yaml:"strategy"`
	MergeDistance  float32 `yaml:"merge_distance"`
	MinVertices    int     `yaml:"min_vertices"`
	AverageNormals bool    `yaml:"average_normals_on_merge"`
}

type SmoothingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Iterations int     `yaml:"iterations"`
	Lambda     float32 `yaml:"lambda"`
	Mu         float32 `yaml:"mu"`
}

type MemoryConfig struct {
	KeepMeshData     bool `yaml:"keep_mesh_data"`
	KeepDensityField bool `yaml:"keep_density_field"`
}

type RenderConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the stock large-cave settings.
func Default() Config {
	return Config{
		VoxelSize:       50,
		ChunkSize:       64,
		ViewDistance:    5,
		MaxActiveChunks: 2000,
		ChunksPerTick:   5,
		AsyncGeneration: true,
		SliceCount:      1,
		PoolCapacity:    50,
		TickInterval:    100 * time.Millisecond,
		LODBands:        []float32{5000, 10000, 20000},
		CaveThreshold:   0,
		DensityMode:     DensityModeCave,
		Noise: NoiseConfig{
			Source:      NoiseSourceReference,
			Frequency:   0.002,
			Octaves:     2,
			Lacunarity:  2,
			Persistence: 0.3,
		},
		Mesh: MeshConfig{
			Normals: NormalsGradient,
			Dedup: DedupConfig{
				Enabled:        true,
				Strategy:       DedupSort,
				MergeDistance:  0.1,
				MinVertices:    80000,
				AverageNormals: true,
			},
			Smoothing: SmoothingConfig{
				Iterations: 5,
				Lambda:     0.5,
				Mu:         -0.53,
			},
		},
		Memory: MemoryConfig{
			KeepMeshData:     true,
			KeepDensityField: true,
		},
		Render:  RenderConfig{Path: RenderStandard},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ChunkWorldSize is the edge length of one chunk in world units.
func (c Config) ChunkWorldSize() float32 {
	return float32(c.ChunkSize) * c.VoxelSize
}

// ValidChunkSize reports whether n voxels per axis is accepted.
func ValidChunkSize(n int) bool {
	return n >= MinChunkSize && n <= MaxChunkSize
}

// Validate checks ranges and enum values.
func (c Config) Validate() error {
	if !(c.VoxelSize > 0) {
		return invalid("voxel_size must be > 0, got %v", c.VoxelSize)
	}
	if !ValidChunkSize(c.ChunkSize) {
		return invalid("chunk_size must be in [%d,%d], got %d", MinChunkSize, MaxChunkSize, c.ChunkSize)
	}
	if c.ViewDistance < 0 {
		return invalid("view_distance must be >= 0, got %d", c.ViewDistance)
	}
	if c.MaxActiveChunks < 1 {
		return invalid("max_active_chunks must be >= 1, got %d", c.MaxActiveChunks)
	}
	if c.ChunksPerTick < 1 {
		return invalid("chunks_per_tick must be >= 1, got %d", c.ChunksPerTick)
	}
	if c.Workers < 0 {
		return invalid("workers must be >= 0, got %d", c.Workers)
	}
	if c.SliceCount < 1 {
		return invalid("slice_count must be >= 1, got %d", c.SliceCount)
	}
	if c.PoolCapacity < 0 {
		return invalid("pool_capacity must be >= 0, got %d", c.PoolCapacity)
	}
	for i := 1; i < len(c.LODBands); i++ {
		if c.LODBands[i] <= c.LODBands[i-1] {
			return invalid("lod_bands must be ascending, got %v", c.LODBands)
		}
	}

	switch c.DensityMode {
	case DensityModeCave, DensityModeFractal:
	default:
		return invalid("density_mode %q", c.DensityMode)
	}

	switch c.Noise.Source {
	case NoiseSourceReference, NoiseSourceSeeded, NoiseSourceValue:
	default:
		return invalid("noise.source %q", c.Noise.Source)
	}
	if !(c.Noise.Frequency > 0) {
		return invalid("noise.frequency must be > 0, got %v", c.Noise.Frequency)
	}
	if c.Noise.Octaves < 1 || c.Noise.Octaves > 8 {
		return invalid("noise.octaves must be in [1,8], got %d", c.Noise.Octaves)
	}
	if c.Noise.Lacunarity < 1 {
		return invalid("noise.lacunarity must be >= 1, got %v", c.Noise.Lacunarity)
	}
	if c.Noise.Persistence < 0 || c.Noise.Persistence > 1 {
		return invalid("noise.persistence must be in [0,1], got %v", c.Noise.Persistence)
	}

	switch c.Mesh.Normals {
	case NormalsGradient, NormalsFace:
	default:
		return invalid("mesh.normals %q", c.Mesh.Normals)
	}

	d := c.Mesh.Dedup
	switch d.Strategy {
	case DedupSort, DedupHash:
	default:
		return invalid("mesh.dedup.strategy %q", d.Strategy)
	}
	if !(d.MergeDistance > 0) {
		return invalid("mesh.dedup.merge_distance must be > 0, got %v", d.MergeDistance)
	}
	if d.MinVertices < 0 {
		return invalid("mesh.dedup.min_vertices must be >= 0, got %d", d.MinVertices)
	}

	s := c.Mesh.Smoothing
	if s.Iterations < 0 || s.Iterations > 20 {
		return invalid("mesh.smoothing.iterations must be in [0,20], got %d", s.Iterations)
	}
	if s.Lambda < 0 || s.Lambda > 1 {
		return invalid("mesh.smoothing.lambda must be in [0,1], got %v", s.Lambda)
	}
	if s.Mu < -1 || s.Mu > 0 {
		return invalid("mesh.smoothing.mu must be in [-1,0], got %v", s.Mu)
	}

	switch c.Render.Path {
	case RenderStandard, RenderAlternate, RenderBoth:
	default:
		return invalid("render.path %q", c.Render.Path)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
