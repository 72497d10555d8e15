package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord is a position on the chunk grid. Z is up.
type ChunkCoord struct {
	X, Y, Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

func (c ChunkCoord) Add(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// WorldToChunk returns the chunk containing pos for chunks of edge size.
func WorldToChunk(pos mgl32.Vec3, size float32) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(float64(pos[0] / size))),
		Y: int(math.Floor(float64(pos[1] / size))),
		Z: int(math.Floor(float64(pos[2] / size))),
	}
}

// ChunkToWorld returns the minimum corner of c.
func ChunkToWorld(c ChunkCoord, size float32) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X) * size, float32(c.Y) * size, float32(c.Z) * size}
}

// ChunkCenter returns the midpoint of c.
func ChunkCenter(c ChunkCoord, size float32) mgl32.Vec3 {
	half := size / 2
	return ChunkToWorld(c, size).Add(mgl32.Vec3{half, half, half})
}
