package meshing

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// DedupStrategy selects how near-coincident vertices are found.
type DedupStrategy int

const (
	// DedupSort snaps vertices to a grid of cell mergeDistance and merges
	// equal keys. Two points within mergeDistance on opposite sides of a cell
	// boundary stay separate.
	DedupSort DedupStrategy = iota
	// DedupHash buckets vertices by cell and probes the 27 surrounding cells
	// for a vertex within mergeDistance.
	DedupHash
)

func (s DedupStrategy) String() string {
	if s == DedupHash {
		return "hash"
	}
	return "sort"
}

// ParseDedupStrategy maps "hash" to DedupHash and anything else to DedupSort.
func ParseDedupStrategy(s string) DedupStrategy {
	if s == "hash" {
		return DedupHash
	}
	return DedupSort
}

type DedupOptions struct {
	Strategy      DedupStrategy
	MergeDistance float32
	// MinVertices skips meshes smaller than this.
	MinVertices int
	// AverageNormals blends the normals of merged vertices instead of keeping
	// the representative's.
	AverageNormals bool
}

type DedupStats struct {
	VerticesBefore int
	VerticesAfter  int
	Degenerate     int
	Skipped        bool
}

// Deduplicate welds vertices in place and drops triangles that collapse.
// Vertex order is preserved: each surviving vertex keeps its relative
// position, and a merged group is represented by its lowest original index.
func Deduplicate(m *Mesh, opts DedupOptions) DedupStats {
	stats := DedupStats{VerticesBefore: len(m.Vertices), VerticesAfter: len(m.Vertices)}
	if len(m.Vertices) == 0 || len(m.Vertices) < opts.MinVertices || opts.MergeDistance <= 0 {
		stats.Skipped = true
		return stats
	}

	var remap []int32
	if opts.Strategy == DedupHash {
		remap = HashRemap(m.Vertices, opts.MergeDistance)
	} else {
		remap = SortRemap(m.Vertices, opts.MergeDistance)
	}

	// remap points at representatives; compact them in original order
	newIndex := make([]int32, len(m.Vertices))
	count := int32(0)
	for i, r := range remap {
		if int32(i) == r {
			newIndex[i] = count
			count++
		}
	}

	hasNormals := len(m.Normals) == len(m.Vertices)
	hasUVs := len(m.UVs) == len(m.Vertices)

	if hasNormals && opts.AverageNormals {
		sums := make([]mgl32.Vec3, count)
		for i, r := range remap {
			sums[newIndex[r]] = sums[newIndex[r]].Add(m.Normals[i])
		}
		for i, r := range remap {
			if int32(i) == r {
				if n := safeNormalize(sums[newIndex[i]]); n.Len() > 0 {
					m.Normals[i] = n
				}
			}
		}
	}

	w := 0
	for i, r := range remap {
		if int32(i) != r {
			continue
		}
		m.Vertices[w] = m.Vertices[i]
		if hasNormals {
			m.Normals[w] = m.Normals[i]
		}
		if hasUVs {
			m.UVs[w] = m.UVs[i]
		}
		w++
	}
	m.Vertices = m.Vertices[:w]
	if hasNormals {
		m.Normals = m.Normals[:w]
	}
	if hasUVs {
		m.UVs = m.UVs[:w]
	}

	t := 0
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a := newIndex[remap[m.Triangles[i]]]
		b := newIndex[remap[m.Triangles[i+1]]]
		c := newIndex[remap[m.Triangles[i+2]]]
		if a == b || b == c || a == c {
			stats.Degenerate++
			continue
		}
		m.Triangles[t], m.Triangles[t+1], m.Triangles[t+2] = a, b, c
		t += 3
	}
	m.Triangles = m.Triangles[:t]

	stats.VerticesAfter = w
	return stats
}

type cellKey struct{ x, y, z int64 }

func cellOf(v mgl32.Vec3, inv float64) cellKey {
	return cellKey{
		int64(math.Floor(float64(v[0]) * inv)),
		int64(math.Floor(float64(v[1]) * inv)),
		int64(math.Floor(float64(v[2]) * inv)),
	}
}

// HashRemap maps every vertex to the index of the first earlier vertex
// within d, or to itself.
func HashRemap(verts []mgl32.Vec3, d float32) []int32 {
	remap := make([]int32, len(verts))
	grid := make(map[cellKey][]int32, len(verts))
	inv := 1 / float64(d)
	d2 := d * d

	for i, v := range verts {
		c := cellOf(v, inv)
		found := int32(-1)
	probe:
		for dz := int64(-1); dz <= 1; dz++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dx := int64(-1); dx <= 1; dx++ {
					for _, j := range grid[cellKey{c.x + dx, c.y + dy, c.z + dz}] {
						if distSq(verts[j], v) <= d2 {
							found = j
							break probe
						}
					}
				}
			}
		}
		if found >= 0 {
			remap[i] = found
			continue
		}
		remap[i] = int32(i)
		grid[c] = append(grid[c], int32(i))
	}
	return remap
}

type quantized struct {
	x, y, z int64
	index   int32
}

// SortRemap quantises vertices to round(p/d), sorts by (key, index), and
// maps each run of equal keys onto its first vertex.
func SortRemap(verts []mgl32.Vec3, d float32) []int32 {
	inv := 1 / float64(d)
	keys := make([]quantized, len(verts))
	for i, v := range verts {
		keys[i] = quantized{
			x:     int64(math.Floor(float64(v[0])*inv + 0.5)),
			y:     int64(math.Floor(float64(v[1])*inv + 0.5)),
			z:     int64(math.Floor(float64(v[2])*inv + 0.5)),
			index: int32(i),
		}
	}
	slices.SortFunc(keys, func(a, b quantized) int {
		switch {
		case a.x != b.x:
			return cmpInt64(a.x, b.x)
		case a.y != b.y:
			return cmpInt64(a.y, b.y)
		case a.z != b.z:
			return cmpInt64(a.z, b.z)
		default:
			return int(a.index - b.index)
		}
	})

	remap := make([]int32, len(verts))
	rep := int32(-1)
	for i, k := range keys {
		if i == 0 || k.x != keys[i-1].x || k.y != keys[i-1].y || k.z != keys[i-1].z {
			rep = k.index
		}
		remap[k.index] = rep
	}
	return remap
}

func cmpInt64(a, b int64) int {
	if a < b {
		return -1
	}
	return 1
}

func distSq(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}
