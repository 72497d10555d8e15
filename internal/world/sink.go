package world

import (
	"cavern/internal/meshing"
)

// RenderSink builds a drawable, collidable representation from committed
// buffers. It runs on the driver goroutine after commit.
type RenderSink interface {
	BuildChunk(c ChunkCoord, m *meshing.Mesh) error
	RemoveChunk(c ChunkCoord)
}

// LODSink is implemented by sinks that want level-of-detail changes.
type LODSink interface {
	SetChunkLOD(c ChunkCoord, lod int)
}

// AltBuilder builds the alternate, aggressively simplified representation.
type AltBuilder interface {
	BuildAlternate(c ChunkCoord, m *meshing.Mesh) error
}

type EventKind int

const (
	EventGenerated EventKind = iota
	EventFailed
	EventEvicted
	EventLODChanged
)

func (k EventKind) String() string {
	switch k {
	case EventGenerated:
		return "generated"
	case EventFailed:
		return "failed"
	case EventEvicted:
		return "evicted"
	case EventLODChanged:
		return "lod"
	default:
		return "unknown"
	}
}

// ChunkEvent is delivered to listeners registered with OnChunkEvent.
type ChunkEvent struct {
	Kind      EventKind
	Coord     ChunkCoord
	LOD       int
	Vertices  int
	Triangles int
	Err       error
}

// nopSink discards everything; used when no sink is configured.
type nopSink struct{}

func (nopSink) BuildChunk(ChunkCoord, *meshing.Mesh) error { return nil }
func (nopSink) RemoveChunk(ChunkCoord)                     {}
