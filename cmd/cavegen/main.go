// Command cavegen streams cave chunks around a moving viewer without a
// renderer, reports timings, and exports or inspects mesh snapshots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
	"go.uber.org/zap"

	"cavern/internal/config"
	"cavern/internal/logger"
	"cavern/internal/persistence/snapshot"
	"cavern/internal/profiling"
	"cavern/internal/world"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n  cavegen run [flags]\n  cavegen inspect [-chunks] <snapshot>\n  cavegen probe [flags]\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "inspect":
		err = inspectCmd(os.Args[2:])
	case "probe":
		err = probeCmd(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "cavegen:", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath string
	ticks      int
	pathKind   string
	speed      float64
	radius     float64
	height     float64
	realtime   bool
	reportN    int
	out        string
	logLevel   string
	dev        bool

	view    int
	workers int
	seed    int64
	source  string
	sync    bool
}

func runCmd(args []string) error {
	var o runOptions
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "YAML config file (defaults when empty)")
	fs.IntVar(&o.ticks, "ticks", 200, "ticks to run")
	fs.StringVar(&o.pathKind, "path", "line", "viewer path: still, line or circle")
	fs.Float64Var(&o.speed, "speed", 400, "viewer speed in world units per tick")
	fs.Float64Var(&o.radius, "radius", 20000, "circle path radius")
	fs.Float64Var(&o.height, "height", 0, "viewer height")
	fs.BoolVar(&o.realtime, "realtime", false, "sleep tick_interval between ticks")
	fs.IntVar(&o.reportN, "report", 20, "log stats every N ticks (0 disables)")
	fs.StringVar(&o.out, "out", "", "write a mesh snapshot here when done")
	fs.StringVar(&o.logLevel, "log-level", "", "override logging.level")
	fs.BoolVar(&o.dev, "dev", false, "development logging")
	fs.IntVar(&o.view, "view", -1, "override view_distance")
	fs.IntVar(&o.workers, "workers", -1, "override workers (0 = NumCPU)")
	fs.Int64Var(&o.seed, "seed", 0, "override noise.seed")
	fs.StringVar(&o.source, "source", "", "override noise.source")
	fs.BoolVar(&o.sync, "sync", false, "generate on the driver goroutine")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	log, err := logger.Init(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	path, err := newViewerPath(o.pathKind, float32(o.speed), float32(o.radius), float32(o.height))
	if err != nil {
		return err
	}

	sink := newStatsSink()
	streamer, err := world.NewChunkStreamer(cfg, world.WithLogger(log), world.WithRenderSink(sink))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var runErr error
	closer.Bind(func() {
		cancel()
		<-done
		_ = log.Sync()
	})

	go func() {
		defer close(done)
		defer streamer.Close()
		runErr = drive(ctx, streamer, sink, path, cfg, o, log)
	}()
	go func() {
		<-done
		if runErr != nil {
			closer.Fatalln("cavegen:", runErr)
		}
		closer.Close()
	}()
	// Hold exits the process once the bound cleanup has run.
	closer.Hold()
	return runErr
}

func loadConfig(o runOptions) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.dev {
		cfg.Logging.Development = true
	}
	if o.view >= 0 {
		cfg.ViewDistance = o.view
	}
	if o.workers >= 0 {
		cfg.Workers = o.workers
	}
	if o.seed != 0 {
		cfg.Noise.Seed = o.seed
	}
	if o.source != "" {
		cfg.Noise.Source = o.source
	}
	if o.sync {
		cfg.AsyncGeneration = false
	}
	return cfg, cfg.Validate()
}

func drive(ctx context.Context, s *world.ChunkStreamer, sink *statsSink, path viewerPath,
	cfg config.Config, o runOptions, log *zap.Logger) error {
	start := time.Now()
	var limiter *tickLimiter
	if o.realtime {
		limiter = newTickLimiter(cfg.TickInterval)
	}
	var viewer mgl32.Vec3
	for tick := 0; tick < o.ticks; tick++ {
		if ctx.Err() != nil {
			log.Info("interrupted", zap.Int("tick", tick))
			break
		}
		profiling.ResetTick()
		viewer = path.At(tick)
		s.UpdateAroundViewer(viewer)
		r := s.Tick()

		if o.reportN > 0 && tick%o.reportN == 0 {
			st := s.Stats()
			log.Info("tick",
				zap.Int("tick", tick),
				zap.Float32s("viewer", viewer[:]),
				zap.Int("committed", r.Committed),
				zap.Int("dispatched", r.Dispatched),
				zap.Int("evicted", r.Evicted),
				zap.Int("active", st.Active),
				zap.Int("queued", st.Queued),
				zap.Int("generating", st.Generating),
				zap.String("top", profiling.TopN(3)))
		}
		if limiter != nil {
			limiter.Wait(ctx)
		}
	}

	if ctx.Err() == nil {
		if err := s.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	st := s.Stats()
	fmt.Printf("chunks: %d active, %d pooled, %d generated, %d failed, %d evicted, %d queued\n",
		st.Active, st.Pooled, st.Generated, st.Failed, st.Evicted, st.Queued)
	fmt.Printf("meshes: %d built, %d resident, %d triangles\n", sink.built, len(sink.triangles), sink.totalTriangles())
	fmt.Printf("elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("stages: %s\n", profiling.TopNTotal(8))

	if o.out == "" {
		return nil
	}
	snap := snapshot.FromMeshes(snapshot.Header{
		Seed:      cfg.Noise.Seed,
		Source:    cfg.Noise.Source,
		ChunkSize: cfg.ChunkSize,
		VoxelSize: cfg.VoxelSize,
		Viewer:    viewer,
		CreatedAt: time.Now().UTC(),
	}, s.Meshes())
	if err := snapshot.WriteSnapshot(o.out, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	log.Info("snapshot written",
		zap.String("path", o.out),
		zap.Int("chunks", snap.Header.Chunks),
		zap.Int("triangles", snap.Header.Triangles))
	return nil
}

func inspectCmd(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	listChunks := fs.Bool("chunks", false, "list every chunk")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		usage()
		return errors.New("inspect needs one snapshot path")
	}
	path := fs.Arg(0)

	h, err := snapshot.ReadHeader(path)
	if err != nil {
		return err
	}
	fmt.Printf("version %d, seed %d (%s), chunk %d x %.2f, viewer %v\n",
		h.Version, h.Seed, h.Source, h.ChunkSize, h.VoxelSize, h.Viewer)
	fmt.Printf("%d chunks, %d triangles, written %s\n", h.Chunks, h.Triangles, h.CreatedAt.Format(time.RFC3339))
	if !*listChunks {
		return nil
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return err
	}
	for _, c := range snap.Chunks {
		m := c.Mesh()
		fmt.Printf("%-14s lod %d  %6d verts %6d tris  area %.1f\n",
			c.Coord(), c.LOD, m.VertexCount(), m.TriangleCount(), m.SurfaceArea())
	}
	return nil
}
