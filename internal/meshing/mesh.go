package meshing

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh holds parallel vertex buffers and a triangle index list. Positions are
// chunk-local; add the chunk origin for world space.
type Mesh struct {
	Vertices  []mgl32.Vec3
	Triangles []int32
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
}

func (m *Mesh) VertexCount() int   { return len(m.Vertices) }
func (m *Mesh) TriangleCount() int { return len(m.Triangles) / 3 }
func (m *Mesh) Empty() bool        { return len(m.Triangles) == 0 }

// Reset truncates every buffer, keeping capacity for reuse.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Triangles = m.Triangles[:0]
	m.Normals = m.Normals[:0]
	m.UVs = m.UVs[:0]
}

// Append concatenates o onto m, offsetting o's indices by m's vertex count.
// Normals and UVs are carried only when both meshes have them.
func (m *Mesh) Append(o *Mesh) {
	base := int32(len(m.Vertices))
	keepNormals := len(m.Normals) == len(m.Vertices) && len(o.Normals) == len(o.Vertices)
	keepUVs := len(m.UVs) == len(m.Vertices) && len(o.UVs) == len(o.Vertices)

	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, idx := range o.Triangles {
		m.Triangles = append(m.Triangles, idx+base)
	}
	if keepNormals {
		m.Normals = append(m.Normals, o.Normals...)
	} else {
		m.Normals = m.Normals[:0]
	}
	if keepUVs {
		m.UVs = append(m.UVs, o.UVs...)
	} else {
		m.UVs = m.UVs[:0]
	}
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:  append([]mgl32.Vec3(nil), m.Vertices...),
		Triangles: append([]int32(nil), m.Triangles...),
		Normals:   append([]mgl32.Vec3(nil), m.Normals...),
		UVs:       append([]mgl32.Vec2(nil), m.UVs...),
	}
}

// SurfaceArea sums triangle areas in float64.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a := m.Vertices[m.Triangles[i]]
		b := m.Vertices[m.Triangles[i+1]]
		c := m.Vertices[m.Triangles[i+2]]
		area += 0.5 * float64(b.Sub(a).Cross(c.Sub(a)).Len())
	}
	return area
}

// Bounds returns the axis-aligned box of the vertices. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3, ok bool) {
	if len(m.Vertices) == 0 {
		return lo, hi, false
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for k := range 3 {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	return lo, hi, true
}

// PlanarUVs projects chunk-local positions onto the XY plane at scale.
func PlanarUVs(m *Mesh, scale float32) {
	if cap(m.UVs) >= len(m.Vertices) {
		m.UVs = m.UVs[:len(m.Vertices)]
	} else {
		m.UVs = make([]mgl32.Vec2, len(m.Vertices))
	}
	for i, v := range m.Vertices {
		m.UVs[i] = mgl32.Vec2{v[0] * scale, v[1] * scale}
	}
}
