// Package pipeline turns a chunk origin into finished mesh buffers. Requests
// carry every input by value, so a request can run on any goroutine without
// touching live chunk or manager state.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"cavern/internal/config"
	"cavern/internal/density"
	"cavern/internal/logger"
	"cavern/internal/meshing"
	"cavern/internal/profiling"
)

// UVScale maps chunk-local units to texture space.
const UVScale = 0.01

// NormalStrategy picks how vertex normals are estimated.
type NormalStrategy int

const (
	NormalsGradient NormalStrategy = iota
	NormalsFace
)

// Settings is the value-captured generation configuration.
type Settings struct {
	VoxelSize float32
	ChunkSize int
	Threshold float32
	Slices    int

	Normals NormalStrategy

	DedupEnabled bool
	Dedup        meshing.DedupOptions

	SmoothEnabled bool
	Smooth        meshing.SmoothOptions
}

// SettingsFrom copies the generation fields out of cfg.
func SettingsFrom(cfg config.Config) Settings {
	s := Settings{
		VoxelSize:    cfg.VoxelSize,
		ChunkSize:    cfg.ChunkSize,
		Threshold:    cfg.CaveThreshold,
		Slices:       cfg.SliceCount,
		DedupEnabled: cfg.Mesh.Dedup.Enabled,
		Dedup: meshing.DedupOptions{
			Strategy:       meshing.ParseDedupStrategy(cfg.Mesh.Dedup.Strategy),
			MergeDistance:  cfg.Mesh.Dedup.MergeDistance,
			MinVertices:    cfg.Mesh.Dedup.MinVertices,
			AverageNormals: cfg.Mesh.Dedup.AverageNormals,
		},
		SmoothEnabled: cfg.Mesh.Smoothing.Enabled,
		Smooth: meshing.SmoothOptions{
			Iterations: cfg.Mesh.Smoothing.Iterations,
			Lambda:     cfg.Mesh.Smoothing.Lambda,
			Mu:         cfg.Mesh.Smoothing.Mu,
		},
	}
	if cfg.Mesh.Normals == config.NormalsFace {
		s.Normals = NormalsFace
	}
	return s
}

// Request is one chunk's worth of work. ID is opaque to the pipeline and is
// echoed back on the Result.
type Request struct {
	ID       uint64
	Origin   mgl32.Vec3
	Settings Settings
	Density  density.Function
}

type Result struct {
	ID       uint64
	Mesh     *meshing.Mesh
	Field    *density.Field
	Dedup    meshing.DedupStats
	Duration time.Duration
	Err      error
}

var ErrNoDensity = errors.New("pipeline: request has no density function")

// Run executes density sampling, extraction, optional welding and
// smoothing, then normals and UVs. slicePool may be nil, in which case
// extraction is single-pass regardless of Settings.Slices. A nil log falls
// back to the package logger.
func Run(req Request, slicePool pond.Pool, log *zap.Logger) (res Result) {
	start := time.Now()
	log = logger.Or(log)
	res.ID = req.ID
	defer func() {
		if r := recover(); r != nil {
			res = Result{ID: req.ID, Err: fmt.Errorf("pipeline: panic: %v", r)}
		}
		res.Duration = time.Since(start)
	}()

	s := req.Settings
	if req.Density == nil {
		res.Err = ErrNoDensity
		return res
	}

	stop := profiling.Track("pipeline.density")
	field, err := density.Build(req.Density, req.Origin, s.VoxelSize, s.ChunkSize)
	stop()
	if err != nil {
		res.Err = err
		return res
	}
	res.Field = field

	stop = profiling.Track("pipeline.extract")
	ex := meshing.Extractor{Threshold: s.Threshold, VoxelSize: s.VoxelSize}
	var mesh *meshing.Mesh
	if s.Slices > 1 && slicePool != nil {
		mesh, err = ex.ExtractSliced(field, s.Slices, slicePool)
	} else {
		mesh = ex.Extract(field)
	}
	stop()
	if err != nil {
		res.Err = err
		return res
	}

	// face normals taken before welding get averaged across the seam
	normalsDone := false
	if s.DedupEnabled && s.Normals == NormalsFace && s.Dedup.AverageNormals && !s.SmoothEnabled {
		meshing.FaceNormals(mesh)
		normalsDone = true
	}

	if s.DedupEnabled {
		stop = profiling.Track("pipeline.dedup")
		res.Dedup = meshing.Deduplicate(mesh, s.Dedup)
		stop()
		if res.Dedup.Degenerate > 0 {
			log.Debug("dropped degenerate triangles",
				zap.Uint64("id", req.ID),
				zap.Int("degenerate", res.Dedup.Degenerate),
				zap.Int("verticesBefore", res.Dedup.VerticesBefore),
				zap.Int("verticesAfter", res.Dedup.VerticesAfter))
		}
	}

	if s.SmoothEnabled {
		stop = profiling.Track("pipeline.smooth")
		meshing.TaubinSmooth(mesh, s.Smooth)
		stop()
	}

	if !normalsDone {
		stop = profiling.Track("pipeline.normals")
		switch s.Normals {
		case NormalsFace:
			meshing.FaceNormals(mesh)
		default:
			meshing.GradientNormals(mesh, req.Density, req.Origin, s.VoxelSize*0.5)
		}
		stop()
	}

	meshing.PlanarUVs(mesh, UVScale)
	res.Mesh = mesh
	return res
}
