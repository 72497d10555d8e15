// Package snapshot writes committed chunk meshes to a zstd-compressed file:
// one JSON header line followed by a gob body.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"

	"cavern/internal/meshing"
	"cavern/internal/world"
)

const Version = 1

var ErrVersion = errors.New("snapshot: unsupported version")

type Header struct {
	Version   int        `json:"version"`
	Seed      int64      `json:"seed"`
	Source    string     `json:"noise_source"`
	ChunkSize int        `json:"chunk_size"`
	VoxelSize float32    `json:"voxel_size"`
	Viewer    [3]float32 `json:"viewer"`
	Chunks    int        `json:"chunks"`
	Triangles int        `json:"triangles"`
	CreatedAt time.Time  `json:"created_at"`
}

type SnapshotV1 struct {
	Header Header    `json:"header"`
	Chunks []ChunkV1 `json:"chunks"`
}

type ChunkV1 struct {
	X, Y, Z   int
	LOD       int
	Origin    [3]float32
	Vertices  [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Triangles []int32
}

// FromMeshes converts committed meshes into snapshot chunks and fills in
// the header's chunk and triangle counts.
func FromMeshes(h Header, meshes []world.ChunkMesh) SnapshotV1 {
	snap := SnapshotV1{Header: h, Chunks: make([]ChunkV1, 0, len(meshes))}
	snap.Header.Version = Version
	for _, cm := range meshes {
		m := cm.Mesh
		c := ChunkV1{
			X: cm.Coord.X, Y: cm.Coord.Y, Z: cm.Coord.Z,
			LOD:       cm.LOD,
			Origin:    cm.Origin,
			Vertices:  make([][3]float32, len(m.Vertices)),
			Normals:   make([][3]float32, len(m.Normals)),
			UVs:       make([][2]float32, len(m.UVs)),
			Triangles: append([]int32(nil), m.Triangles...),
		}
		for i, v := range m.Vertices {
			c.Vertices[i] = v
		}
		for i, n := range m.Normals {
			c.Normals[i] = n
		}
		for i, uv := range m.UVs {
			c.UVs[i] = uv
		}
		snap.Header.Triangles += m.TriangleCount()
		snap.Chunks = append(snap.Chunks, c)
	}
	snap.Header.Chunks = len(snap.Chunks)
	return snap
}

// Coord returns the chunk's grid position.
func (c ChunkV1) Coord() world.ChunkCoord {
	return world.ChunkCoord{X: c.X, Y: c.Y, Z: c.Z}
}

// Mesh rebuilds the chunk's mesh.
func (c ChunkV1) Mesh() *meshing.Mesh {
	m := &meshing.Mesh{
		Vertices:  make([]mgl32.Vec3, len(c.Vertices)),
		Normals:   make([]mgl32.Vec3, len(c.Normals)),
		UVs:       make([]mgl32.Vec2, len(c.UVs)),
		Triangles: append([]int32(nil), c.Triangles...),
	}
	for i, v := range c.Vertices {
		m.Vertices[i] = v
	}
	for i, n := range c.Normals {
		m.Normals[i] = n
	}
	for i, uv := range c.UVs {
		m.UVs[i] = uv
	}
	return m
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func open(path string) (*bufio.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	closeAll := func() {
		dec.Close()
		f.Close()
	}
	return bufio.NewReaderSize(dec, 256*1024), closeAll, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	br, closeAll, err := open(path)
	if err != nil {
		return h, err
	}
	defer closeAll()
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	br, closeAll, err := open(path)
	if err != nil {
		return snap, err
	}
	defer closeAll()

	// the gob body repeats the header
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}
	return snap, nil
}
