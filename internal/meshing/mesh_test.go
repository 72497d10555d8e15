package meshing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAppendOffsetsIndices(t *testing.T) {
	a := &Mesh{Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, Triangles: []int32{0, 1, 2}}
	b := &Mesh{Vertices: []mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}}, Triangles: []int32{0, 2, 1}}
	a.Append(b)
	want := []int32{0, 1, 2, 3, 5, 4}
	for i := range want {
		if a.Triangles[i] != want[i] {
			t.Fatalf("triangles = %v, want %v", a.Triangles, want)
		}
	}
	if a.VertexCount() != 6 {
		t.Errorf("vertices = %d, want 6", a.VertexCount())
	}
}

func TestSurfaceArea(t *testing.T) {
	m := &Mesh{
		Vertices:  []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0}},
		Triangles: []int32{0, 1, 2, 1, 3, 2},
	}
	if a := m.SurfaceArea(); a != 4 {
		t.Errorf("area = %f, want 4", a)
	}
	lo, hi, ok := m.Bounds()
	if !ok || lo != (mgl32.Vec3{}) || hi != (mgl32.Vec3{2, 2, 0}) {
		t.Errorf("bounds = %v %v %v", lo, hi, ok)
	}
}

func TestPlanarUVs(t *testing.T) {
	m := &Mesh{Vertices: []mgl32.Vec3{{100, 250, 7}, {-50, 0, 3}}}
	PlanarUVs(m, 0.01)
	if len(m.UVs) != 2 {
		t.Fatalf("uvs = %d, want 2", len(m.UVs))
	}
	if !m.UVs[0].ApproxEqual(mgl32.Vec2{1, 2.5}) || !m.UVs[1].ApproxEqual(mgl32.Vec2{-0.5, 0}) {
		t.Errorf("uvs = %v", m.UVs)
	}
}

func TestReset(t *testing.T) {
	m := &Mesh{Vertices: make([]mgl32.Vec3, 4), Triangles: make([]int32, 6)}
	m.Reset()
	if !m.Empty() || m.VertexCount() != 0 || cap(m.Vertices) != 4 {
		t.Errorf("reset left %d vertices, cap %d", m.VertexCount(), cap(m.Vertices))
	}
}
