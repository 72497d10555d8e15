package meshing

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type SmoothOptions struct {
	Iterations int
	Lambda     float32
	Mu         float32
}

// DefaultSmoothOptions are the usual Taubin factors; mu slightly larger in
// magnitude than lambda keeps the volume from shrinking.
func DefaultSmoothOptions() SmoothOptions {
	return SmoothOptions{Iterations: 5, Lambda: 0.5, Mu: -0.53}
}

// TaubinSmooth relaxes vertices toward the mean of their edge neighbours,
// alternating a lambda (shrink) and a mu (inflate) step each iteration. It
// only makes sense on a welded mesh: unshared vertices have no neighbours
// and stay put.
func TaubinSmooth(m *Mesh, opts SmoothOptions) {
	if opts.Iterations <= 0 || len(m.Vertices) == 0 {
		return
	}
	adj := adjacency(m)
	scratch := make([]mgl32.Vec3, len(m.Vertices))
	for range opts.Iterations {
		laplacianStep(m.Vertices, scratch, adj, opts.Lambda)
		laplacianStep(m.Vertices, scratch, adj, opts.Mu)
	}
}

func laplacianStep(verts, scratch []mgl32.Vec3, adj [][]int32, factor float32) {
	for i, v := range verts {
		nb := adj[i]
		if len(nb) == 0 {
			scratch[i] = v
			continue
		}
		var sum mgl32.Vec3
		for _, j := range nb {
			sum = sum.Add(verts[j])
		}
		avg := sum.Mul(1 / float32(len(nb)))
		scratch[i] = v.Add(avg.Sub(v).Mul(factor))
	}
	copy(verts, scratch)
}

func adjacency(m *Mesh) [][]int32 {
	adj := make([][]int32, len(m.Vertices))
	link := func(a, b int32) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a, b, c := m.Triangles[i], m.Triangles[i+1], m.Triangles[i+2]
		link(a, b)
		link(b, c)
		link(c, a)
	}
	for i := range adj {
		slices.Sort(adj[i])
		adj[i] = slices.Compact(adj[i])
	}
	return adj
}
