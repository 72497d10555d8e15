package meshing

import (
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"

	"cavern/internal/density"
)

// Tolerance for the interpolation endpoint guards.
const interpEpsilon = 1e-5

// MaxSlices caps slice-parallel extraction.
const MaxSlices = 8

var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// edgeCorners lists each edge's corners ordered lower to upper along its
// axis, so a shared edge interpolates identically from either cube.
var edgeCorners = [12][2]int{
	{0, 1}, {1, 2}, {3, 2}, {0, 3},
	{4, 5}, {5, 6}, {7, 6}, {4, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// edgeAxis is 0, 1 or 2 for edges running along X, Y or Z.
var edgeAxis = [12]uint8{0, 1, 0, 1, 0, 1, 0, 1, 2, 2, 2, 2}

// cornerAxis marks an edgeKey naming a lattice corner rather than an edge.
// Crossings that snap onto a corner share one vertex across every edge
// touching it.
const cornerAxis = 3

// edgeKey names a lattice edge by its lower corner and axis.
type edgeKey struct {
	x, y, z int32
	axis    uint8
}

// Interpolate returns the threshold crossing between p1 and p2. It snaps to
// an endpoint when that corner sits on the threshold, and to p1 when the two
// densities are equal.
func Interpolate(threshold float32, p1, p2 mgl32.Vec3, v1, v2 float32) mgl32.Vec3 {
	if abs32(threshold-v1) < interpEpsilon {
		return p1
	}
	if abs32(threshold-v2) < interpEpsilon {
		return p2
	}
	if abs32(v1-v2) < interpEpsilon {
		return p1
	}
	t := (threshold - v1) / (v2 - v1)
	return p1.Add(p2.Sub(p1).Mul(t))
}

// CubeIndex sets bit i when corner i is below threshold.
func CubeIndex(corners [8]float32, threshold float32) uint8 {
	var idx uint8
	for i, v := range corners {
		if v < threshold {
			idx |= 1 << i
		}
	}
	return idx
}

// Extractor runs marching cubes over a density field.
type Extractor struct {
	Threshold float32
	VoxelSize float32
}

// Extract polygonises the whole field in one pass, welding shared edges
// through a chunk-wide cache.
func (e Extractor) Extract(f *density.Field) *Mesh {
	return e.ExtractRange(f, 0, f.Size)
}

// ExtractRange polygonises cubes with z in [z0, z1). Edges are cached only
// within the range, so vertices on the range boundary are not shared with a
// neighbouring range.
func (e Extractor) ExtractRange(f *density.Field, z0, z1 int) *Mesh {
	z0 = max(z0, 0)
	z1 = min(z1, f.Size)
	m := &Mesh{}
	if z1 <= z0 {
		return m
	}
	cache := make(map[edgeKey]int32, f.Size*f.Size*(z1-z0))

	var corners [8]float32
	for z := z0; z < z1; z++ {
		for y := 0; y < f.Size; y++ {
			for x := 0; x < f.Size; x++ {
				for i, o := range cornerOffsets {
					corners[i] = f.At(x+o[0], y+o[1], z+o[2])
				}
				idx := CubeIndex(corners, e.Threshold)
				edges := edgeTable[idx]
				if edges == 0 {
					continue
				}

				var verts [12]int32
				for i := range 12 {
					if edges&(1<<i) == 0 {
						continue
					}
					verts[i] = e.edgeVertex(m, cache, x, y, z, i, &corners)
				}

				row := &triTable[idx]
				for i := 0; row[i] != -1; i += 3 {
					a, b, c := verts[row[i]], verts[row[i+1]], verts[row[i+2]]
					if a == b || b == c || a == c {
						continue
					}
					// emitted as (a, c, b) so triangles face the open side
					m.Triangles = append(m.Triangles, a, c, b)
				}
			}
		}
	}
	return m
}

func (e Extractor) edgeVertex(m *Mesh, cache map[edgeKey]int32, x, y, z, edge int, corners *[8]float32) int32 {
	lo, hi := edgeCorners[edge][0], edgeCorners[edge][1]
	ol, oh := cornerOffsets[lo], cornerOffsets[hi]
	key := edgeKey{int32(x + ol[0]), int32(y + ol[1]), int32(z + ol[2]), edgeAxis[edge]}
	switch {
	case abs32(e.Threshold-corners[lo]) < interpEpsilon:
		key.axis = cornerAxis
	case abs32(e.Threshold-corners[hi]) < interpEpsilon:
		key = edgeKey{int32(x + oh[0]), int32(y + oh[1]), int32(z + oh[2]), cornerAxis}
	}
	if v, ok := cache[key]; ok {
		return v
	}
	p1 := mgl32.Vec3{float32(x+ol[0]) * e.VoxelSize, float32(y+ol[1]) * e.VoxelSize, float32(z+ol[2]) * e.VoxelSize}
	p2 := mgl32.Vec3{float32(x+oh[0]) * e.VoxelSize, float32(y+oh[1]) * e.VoxelSize, float32(z+oh[2]) * e.VoxelSize}
	v := int32(len(m.Vertices))
	m.Vertices = append(m.Vertices, Interpolate(e.Threshold, p1, p2, corners[lo], corners[hi]))
	cache[key] = v
	return v
}

// SliceCount clamps a requested slice count to [1, MaxSlices] and to the
// number of z layers.
func SliceCount(size, requested int) int {
	n := min(max(requested, 1), MaxSlices)
	return min(n, max(size, 1))
}

// ExtractSliced partitions the field into z-slabs, extracts them on pool,
// and concatenates the results in slab order. Boundary vertices are
// duplicated between slabs; run Deduplicate to weld them.
func (e Extractor) ExtractSliced(f *density.Field, slices int, pool pond.Pool) (*Mesh, error) {
	n := SliceCount(f.Size, slices)
	if n == 1 || pool == nil {
		return e.Extract(f), nil
	}

	parts := make([]*Mesh, n)
	group := pool.NewGroup()
	for i := range n {
		z0 := f.Size * i / n
		z1 := f.Size * (i + 1) / n
		group.Submit(func() {
			parts[i] = e.ExtractRange(f, z0, z1)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("sliced extraction: %w", err)
	}

	out := &Mesh{}
	for _, p := range parts {
		out.Append(p)
	}
	return out, nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
