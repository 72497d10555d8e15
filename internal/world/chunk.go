package world

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"cavern/internal/config"
	"cavern/internal/density"
	"cavern/internal/meshing"
)

// Chunk owns one density field and one mesh. The generating flag is the only
// state read across goroutines; buffers are swapped in under mu.
type Chunk struct {
	Coord     ChunkCoord
	VoxelSize float32
	Size      int

	generating atomic.Bool
	ticket     uint64

	mu    sync.Mutex
	field *density.Field
	mesh  *meshing.Mesh
}

// NewChunk returns an empty chunk ready for its first generation.
func NewChunk() *Chunk {
	return &Chunk{}
}

// IsGenerating reports whether a generation pass is in flight.
func (c *Chunk) IsGenerating() bool {
	return c.generating.Load()
}

// Origin is the world position of lattice point (0,0,0).
func (c *Chunk) Origin() mgl32.Vec3 {
	return ChunkToWorld(c.Coord, float32(c.Size)*c.VoxelSize)
}

// beginGeneration validates the geometry and marks the chunk busy. On error
// nothing about the chunk changes.
func (c *Chunk) beginGeneration(coord ChunkCoord, voxelSize float32, size int, ticket uint64) error {
	if !config.ValidChunkSize(size) {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	if !c.generating.CompareAndSwap(false, true) {
		return ErrChunkGenerating
	}
	c.Coord = coord
	c.VoxelSize = voxelSize
	c.Size = size
	c.ticket = ticket
	return nil
}

// commit installs finished buffers and clears the generating flag.
func (c *Chunk) commit(mesh *meshing.Mesh, field *density.Field) {
	c.mu.Lock()
	c.mesh = mesh
	c.field = field
	c.mu.Unlock()
	c.generating.Store(false)
}

// abort clears the generating flag without installing anything.
func (c *Chunk) abort() {
	c.generating.Store(false)
}

// Mesh returns the committed mesh, or nil.
func (c *Chunk) Mesh() *meshing.Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mesh
}

// Field returns the committed density field, or nil once released.
func (c *Chunk) Field() *density.Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.field
}

func (c *Chunk) releaseMesh() {
	c.mu.Lock()
	c.mesh = nil
	c.mu.Unlock()
}

func (c *Chunk) releaseField() {
	c.mu.Lock()
	c.field = nil
	c.mu.Unlock()
}

// Reset clears buffers for reuse. It refuses while generation is in flight.
func (c *Chunk) Reset() error {
	if c.IsGenerating() {
		return ErrChunkGenerating
	}
	c.mu.Lock()
	c.mesh = nil
	c.field = nil
	c.mu.Unlock()
	c.Coord = ChunkCoord{}
	c.ticket = 0
	return nil
}

// ModifyTerrain is the edit hook. Sculpting is not implemented; the call is
// logged so callers can see edits arriving.
func (c *Chunk) ModifyTerrain(pos mgl32.Vec3, radius, strength float32, log *zap.Logger) {
	log.Warn("terrain modification not implemented",
		zap.Stringer("chunk", c.Coord),
		zap.Float32s("at", pos[:]),
		zap.Float32("radius", radius),
		zap.Float32("strength", strength),
		zap.Bool("densityResident", c.Field() != nil))
}
