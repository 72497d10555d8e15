package main

import (
	"cavern/internal/meshing"
	"cavern/internal/world"
)

// statsSink stands in for a renderer: it records what would be uploaded.
type statsSink struct {
	built     int
	triangles map[world.ChunkCoord]int
	lods      map[world.ChunkCoord]int
}

func newStatsSink() *statsSink {
	return &statsSink{
		triangles: make(map[world.ChunkCoord]int),
		lods:      make(map[world.ChunkCoord]int),
	}
}

func (s *statsSink) BuildChunk(c world.ChunkCoord, m *meshing.Mesh) error {
	s.built++
	s.triangles[c] = m.TriangleCount()
	return nil
}

func (s *statsSink) RemoveChunk(c world.ChunkCoord) {
	delete(s.triangles, c)
	delete(s.lods, c)
}

func (s *statsSink) SetChunkLOD(c world.ChunkCoord, lod int) {
	s.lods[c] = lod
}

func (s *statsSink) totalTriangles() int {
	n := 0
	for _, t := range s.triangles {
		n += t
	}
	return n
}
