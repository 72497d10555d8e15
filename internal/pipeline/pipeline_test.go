package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"cavern/internal/config"
	"cavern/internal/density"
	"cavern/internal/meshing"
)

var sphere = density.Func(func(p mgl32.Vec3) float32 {
	return p.Sub(mgl32.Vec3{4, 4, 4}).Len() - 2.6
})

func testSettings() Settings {
	return Settings{
		VoxelSize:    1,
		ChunkSize:    8,
		Threshold:    0,
		Slices:       1,
		DedupEnabled: true,
		Dedup:        meshing.DedupOptions{Strategy: meshing.DedupSort, MergeDistance: 0.01},
	}
}

func TestSettingsFromDefaults(t *testing.T) {
	s := SettingsFrom(config.Default())
	if s.VoxelSize != 50 || s.ChunkSize != 64 || s.Threshold != 0 {
		t.Errorf("geometry = %v/%d/%v", s.VoxelSize, s.ChunkSize, s.Threshold)
	}
	if !s.DedupEnabled || s.Dedup.Strategy != meshing.DedupSort || s.Dedup.MinVertices != 80000 {
		t.Errorf("dedup = %v %+v", s.DedupEnabled, s.Dedup)
	}
	if s.Normals != NormalsGradient || s.SmoothEnabled {
		t.Errorf("normals=%v smooth=%v", s.Normals, s.SmoothEnabled)
	}
	if s.Smooth.Iterations != 5 || s.Smooth.Lambda != 0.5 || s.Smooth.Mu != -0.53 {
		t.Errorf("smooth = %+v", s.Smooth)
	}
}

func TestRunProducesCompleteBuffers(t *testing.T) {
	res := Run(Request{ID: 7, Settings: testSettings(), Density: sphere}, nil, zap.NewNop())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.ID != 7 {
		t.Errorf("ID = %d, want 7", res.ID)
	}
	m := res.Mesh
	if m.VertexCount() != 126 || m.TriangleCount() != 248 {
		t.Errorf("mesh %d/%d, want 126/248", m.VertexCount(), m.TriangleCount())
	}
	if len(m.Normals) != m.VertexCount() || len(m.UVs) != m.VertexCount() {
		t.Errorf("normals %d uvs %d vertices %d", len(m.Normals), len(m.UVs), m.VertexCount())
	}
	if len(res.Field.Values) != 9*9*9 {
		t.Errorf("field len = %d", len(res.Field.Values))
	}
	if res.Duration <= 0 {
		t.Error("duration not recorded")
	}
}

func TestRunSlicedWeldsSeams(t *testing.T) {
	slices := pond.NewPool(4)
	defer slices.StopAndWait()

	s := testSettings()
	s.Slices = 4
	res := Run(Request{Settings: s, Density: sphere}, slices, zap.NewNop())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Mesh.VertexCount() != 126 {
		t.Errorf("welded sliced mesh has %d vertices, want 126", res.Mesh.VertexCount())
	}
	if res.Dedup.VerticesBefore <= res.Dedup.VerticesAfter {
		t.Errorf("expected seam vertices to merge: %+v", res.Dedup)
	}
}

func TestRunFaceNormalsAveraged(t *testing.T) {
	s := testSettings()
	s.Normals = NormalsFace
	s.Dedup.AverageNormals = true
	res := Run(Request{Settings: s, Density: sphere}, nil, zap.NewNop())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	for i, n := range res.Mesh.Normals {
		if l := n.Len(); l < 0.999 || l > 1.001 {
			t.Fatalf("normal %d length %f", i, l)
		}
	}
}

func TestRunSmoothing(t *testing.T) {
	s := testSettings()
	s.SmoothEnabled = true
	s.Smooth = meshing.DefaultSmoothOptions()
	res := Run(Request{Settings: s, Density: sphere}, nil, zap.NewNop())
	if res.Err != nil || res.Mesh.TriangleCount() != 248 {
		t.Fatalf("err=%v triangles=%d", res.Err, res.Mesh.TriangleCount())
	}
}

func TestRunErrors(t *testing.T) {
	s := testSettings()
	if res := Run(Request{Settings: s}, nil, zap.NewNop()); !errors.Is(res.Err, ErrNoDensity) {
		t.Errorf("nil density err = %v", res.Err)
	}
	s.ChunkSize = 129
	if res := Run(Request{Settings: s, Density: sphere}, nil, zap.NewNop()); !errors.Is(res.Err, density.ErrInvalidSize) {
		t.Errorf("oversize chunk err = %v", res.Err)
	}
	boom := density.Func(func(mgl32.Vec3) float32 { panic("bad sample") })
	if res := Run(Request{ID: 3, Settings: testSettings(), Density: boom}, nil, zap.NewNop()); res.Err == nil || res.ID != 3 {
		t.Errorf("panic not converted: %+v", res)
	}
}

// pinch has one lattice point just above the threshold, so every crossing
// around it lies within the merge distance and welding collapses the
// triangles.
var pinch = density.Func(func(p mgl32.Vec3) float32 {
	if p == (mgl32.Vec3{2, 2, 2}) {
		return 0.01
	}
	return -1
})

func TestRunNilLoggerKeepsMesh(t *testing.T) {
	s := testSettings()
	s.ChunkSize = 4
	s.Dedup = meshing.DedupOptions{Strategy: meshing.DedupHash, MergeDistance: 0.1}
	res := Run(Request{Settings: s, Density: pinch}, nil, nil)
	if res.Err != nil {
		t.Fatalf("Run with nil logger: %v", res.Err)
	}
	if res.Dedup.Degenerate != 8 {
		t.Errorf("degenerate = %d, want 8", res.Dedup.Degenerate)
	}
	if res.Mesh == nil || res.Mesh.TriangleCount() != 0 {
		t.Errorf("mesh = %+v, want every triangle welded away", res.Mesh)
	}
}

func gated(release <-chan struct{}) density.Function {
	return density.Func(func(p mgl32.Vec3) float32 {
		<-release
		return sphere(p)
	})
}

func TestWorkerPoolDeliversResults(t *testing.T) {
	p := NewWorkerPool(2, 2, 4, zap.NewNop())
	defer p.Shutdown()

	for id := uint64(1); id <= 3; id++ {
		if !p.SubmitJob(Request{ID: id, Settings: testSettings(), Density: sphere}) {
			t.Fatalf("submit %d rejected", id)
		}
	}
	seen := map[uint64]bool{}
	for range 3 {
		select {
		case res := <-p.Results():
			p.Done()
			if res.Err != nil {
				t.Fatal(res.Err)
			}
			seen[res.ID] = true
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for results")
		}
	}
	if len(seen) != 3 || p.Outstanding() != 0 {
		t.Errorf("seen=%v outstanding=%d", seen, p.Outstanding())
	}
}

func TestWorkerPoolBoundsQueue(t *testing.T) {
	release := make(chan struct{})
	p := NewWorkerPool(1, 0, 2, zap.NewNop())
	defer p.Shutdown()

	fn := gated(release)
	if !p.SubmitJob(Request{ID: 1, Settings: testSettings(), Density: fn}) ||
		!p.SubmitJob(Request{ID: 2, Settings: testSettings(), Density: fn}) {
		t.Fatal("first two submits should be accepted")
	}
	if p.SubmitJob(Request{ID: 3, Settings: testSettings(), Density: fn}) {
		t.Fatal("third submit should be rejected while two are outstanding")
	}
	close(release)
	for range 2 {
		<-p.Results()
		p.Done()
	}
	if !p.SubmitJob(Request{ID: 4, Settings: testSettings(), Density: sphere}) {
		t.Fatal("submit after draining should be accepted")
	}
	<-p.Results()
	p.Done()
}

func TestWorkerPoolShutdown(t *testing.T) {
	p := NewWorkerPool(1, 0, 4, zap.NewNop())
	p.Shutdown()
	p.Shutdown()
	if p.SubmitJob(Request{Settings: testSettings(), Density: sphere}) {
		t.Error("submit after shutdown should fail")
	}
}
