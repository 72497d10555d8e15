package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"cavern/internal/density"
)

// FaceNormals gives every vertex the normal of the last triangle that
// references it. Normals point toward open space, the same side as
// GradientNormals. Vertices in no triangle get a zero normal.
func FaceNormals(m *Mesh) {
	m.Normals = resizeVec3(m.Normals, len(m.Vertices))
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		i0, i1, i2 := m.Triangles[i], m.Triangles[i+1], m.Triangles[i+2]
		a, b, c := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]
		n := safeNormalize(c.Sub(a).Cross(b.Sub(a)))
		m.Normals[i0] = n
		m.Normals[i1] = n
		m.Normals[i2] = n
	}
}

// GradientNormals sets each normal to the negated, normalised central
// difference gradient of fn around origin+vertex. eps is the half-width of
// the difference stencil; half a voxel is a good default.
func GradientNormals(m *Mesh, fn density.Function, origin mgl32.Vec3, eps float32) {
	m.Normals = resizeVec3(m.Normals, len(m.Vertices))
	for i, v := range m.Vertices {
		m.Normals[i] = Gradient(fn, origin.Add(v), eps)
	}
}

// Gradient returns normalize(-grad(fn)) at p. A flat neighbourhood gives +Z.
func Gradient(fn density.Function, p mgl32.Vec3, eps float32) mgl32.Vec3 {
	dx := fn.Density(p.Add(mgl32.Vec3{eps, 0, 0})) - fn.Density(p.Sub(mgl32.Vec3{eps, 0, 0}))
	dy := fn.Density(p.Add(mgl32.Vec3{0, eps, 0})) - fn.Density(p.Sub(mgl32.Vec3{0, eps, 0}))
	dz := fn.Density(p.Add(mgl32.Vec3{0, 0, eps})) - fn.Density(p.Sub(mgl32.Vec3{0, 0, eps}))
	g := mgl32.Vec3{-dx, -dy, -dz}
	if g.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return g.Normalize()
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

func resizeVec3(s []mgl32.Vec3, n int) []mgl32.Vec3 {
	if cap(s) >= n {
		s = s[:n]
		clear(s)
		return s
	}
	return make([]mgl32.Vec3, n)
}
