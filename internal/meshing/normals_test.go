package meshing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"cavern/internal/density"
)

func TestGradientNormalsPointIntoOpenSpace(t *testing.T) {
	centre := mgl32.Vec3{4, 4, 4}
	fn := density.Func(func(p mgl32.Vec3) float32 { return p.Sub(centre).Len() - 2.6 })
	f, _ := density.Build(fn, mgl32.Vec3{}, 1, 8)
	m := unitExtractor().Extract(f)

	GradientNormals(m, fn, mgl32.Vec3{}, 0.5)
	if len(m.Normals) != m.VertexCount() {
		t.Fatalf("normals %d, vertices %d", len(m.Normals), m.VertexCount())
	}
	for i, n := range m.Normals {
		if d := n.Len(); d < 0.999 || d > 1.001 {
			t.Fatalf("normal %d not unit: %f", i, d)
		}
		inward := centre.Sub(m.Vertices[i]).Normalize()
		if n.Dot(inward) < 0.99 {
			t.Errorf("normal %d = %v, want close to %v", i, n, inward)
		}
	}
}

func TestGradientNormalsUseOrigin(t *testing.T) {
	// density increases with z, so the open side is -z
	fn := density.Func(func(p mgl32.Vec3) float32 { return p[2] - 1000 })
	m := &Mesh{Vertices: []mgl32.Vec3{{0, 0, 0}}}
	GradientNormals(m, fn, mgl32.Vec3{0, 0, 1000}, 25)
	if !m.Normals[0].ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("normal = %v, want (0,0,-1)", m.Normals[0])
	}
	if g := Gradient(density.Constant(3), mgl32.Vec3{}, 1); g != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("flat field gradient = %v, want +Z fallback", g)
	}
}

func TestFaceNormalsAgreeWithGradient(t *testing.T) {
	centre := mgl32.Vec3{4, 4, 4}
	fn := density.Func(func(p mgl32.Vec3) float32 { return p.Sub(centre).Len() - 2.6 })
	f, _ := density.Build(fn, mgl32.Vec3{}, 1, 8)
	m := unitExtractor().Extract(f)

	FaceNormals(m)
	face := append([]mgl32.Vec3(nil), m.Normals...)
	GradientNormals(m, fn, mgl32.Vec3{}, 0.5)
	for i := range face {
		if face[i].Dot(m.Normals[i]) <= 0 {
			t.Errorf("vertex %d: face normal %v opposes gradient %v", i, face[i], m.Normals[i])
		}
	}
}

func TestFaceNormalsUnaveraged(t *testing.T) {
	// two triangles sharing vertices 1 and 2, folded along that edge
	m := &Mesh{
		Vertices:  []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 1}},
		Triangles: []int32{0, 2, 1, 1, 2, 3},
	}
	FaceNormals(m)
	first := mgl32.Vec3{1, 0, 0}.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	if !m.Normals[0].ApproxEqual(first) {
		t.Errorf("vertex 0 normal = %v, want %v", m.Normals[0], first)
	}
	// shared vertices take the later triangle's normal
	if m.Normals[1] != m.Normals[3] || m.Normals[2] != m.Normals[3] {
		t.Errorf("shared vertices not overwritten: %v", m.Normals)
	}
}
