package world

import (
	"context"
	"errors"
	"math"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"cavern/internal/config"
	"cavern/internal/density"
	"cavern/internal/logger"
	"cavern/internal/meshing"
	"cavern/internal/pipeline"
	"cavern/internal/profiling"
)

// verticalReach limits the required region to this many chunks above and
// below the viewer's chunk.
const verticalReach = 2

var errSubmitRejected = errors.New("world: worker queue full")

// ChunkStreamer keeps the chunks around a viewer generated. All methods
// must be called from one driver goroutine; generation itself runs on a
// worker pool and comes back through Tick.
type ChunkStreamer struct {
	cfg      config.Config
	settings pipeline.Settings
	density  density.Function

	customDensity bool

	log       *zap.Logger
	now       func() time.Time
	sink      RenderSink
	alt       AltBuilder
	listeners []func(ChunkEvent)

	store    *ChunkStore
	pool     *ChunkPool
	queue    *GenerationQueue
	required map[ChunkCoord]struct{}
	deferred map[ChunkCoord]struct{}
	inflight map[uint64]*Chunk
	ticket   uint64

	workers *pipeline.WorkerPool
	slices  pond.Pool

	viewer    mgl32.Vec3
	hasViewer bool
	closed    bool

	counters counters
}

type counters struct {
	generated, failed, evicted, lodChanges int
}

type Option func(*ChunkStreamer)

func WithLogger(l *zap.Logger) Option {
	return func(s *ChunkStreamer) { s.log = l }
}

// WithClock replaces time.Now for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ChunkStreamer) { s.now = now }
}

func WithRenderSink(r RenderSink) Option {
	return func(s *ChunkStreamer) { s.sink = r }
}

func WithAltBuilder(b AltBuilder) Option {
	return func(s *ChunkStreamer) { s.alt = b }
}

// WithDensityFunction overrides the function cfg would select.
func WithDensityFunction(fn density.Function) Option {
	return func(s *ChunkStreamer) {
		s.density = fn
		s.customDensity = fn != nil
	}
}

// NewChunkStreamer validates cfg and starts the worker pool when
// generation is asynchronous.
func NewChunkStreamer(cfg config.Config, opts ...Option) (*ChunkStreamer, error) {
	s := &ChunkStreamer{
		store:    NewChunkStore(),
		queue:    NewGenerationQueue(),
		required: make(map[ChunkCoord]struct{}),
		deferred: make(map[ChunkCoord]struct{}),
		inflight: make(map[uint64]*Chunk),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = logger.Or(s.log)
	if s.sink == nil {
		s.sink = nopSink{}
	}
	if err := s.apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// apply installs cfg and builds the executors it asks for.
func (s *ChunkStreamer) apply(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		s.log.Error("rejecting configuration", zap.Error(err))
		return err
	}
	if cfg.Render.Path != config.RenderStandard && s.alt == nil {
		s.log.Error("render path needs an alternate builder", zap.String("path", cfg.Render.Path))
		return ErrMissingCollaborator
	}
	if !s.customDensity {
		s.density = NewDensityFunction(cfg)
	}
	s.stopExecutors()
	s.cfg = cfg
	s.settings = pipeline.SettingsFrom(cfg)
	s.pool = NewChunkPool(cfg.PoolCapacity)

	sliceWorkers := 0
	if cfg.SliceCount > 1 {
		sliceWorkers = meshing.SliceCount(cfg.ChunkSize, cfg.SliceCount)
	}
	if cfg.AsyncGeneration {
		n := cfg.Workers
		if n == 0 {
			n = runtime.NumCPU()
		}
		s.workers = pipeline.NewWorkerPool(n, sliceWorkers, max(cfg.ChunksPerTick*4, n*2), s.log)
	} else if sliceWorkers > 1 {
		s.slices = pond.NewPool(sliceWorkers)
	}
	return nil
}

func (s *ChunkStreamer) stopExecutors() {
	if s.workers != nil {
		s.workers.Shutdown()
		s.workers = nil
	}
	if s.slices != nil {
		s.slices.StopAndWait()
		s.slices = nil
	}
}

// Config returns the active configuration.
func (s *ChunkStreamer) Config() config.Config { return s.cfg }

// OnChunkEvent registers fn for generated, failed, evicted and LOD events.
func (s *ChunkStreamer) OnChunkEvent(fn func(ChunkEvent)) {
	s.listeners = append(s.listeners, fn)
}

func (s *ChunkStreamer) emit(e ChunkEvent) {
	for _, fn := range s.listeners {
		fn(e)
	}
}

func (s *ChunkStreamer) chunkWorldSize() float32 { return s.cfg.ChunkWorldSize() }

func (s *ChunkStreamer) WorldToChunk(pos mgl32.Vec3) ChunkCoord {
	return WorldToChunk(pos, s.chunkWorldSize())
}

func (s *ChunkStreamer) ChunkToWorld(c ChunkCoord) mgl32.Vec3 {
	return ChunkToWorld(c, s.chunkWorldSize())
}

// SampleDensityAt evaluates the active density function at pos.
func (s *ChunkStreamer) SampleDensityAt(pos mgl32.Vec3) float32 {
	return s.density.Density(pos)
}

// Viewer returns the last viewer position and whether one was set.
func (s *ChunkStreamer) Viewer() (mgl32.Vec3, bool) {
	return s.viewer, s.hasViewer
}

// priority favours chunks close to the viewer. Without a viewer every
// chunk scores zero.
func (s *ChunkStreamer) priority(c ChunkCoord) float32 {
	if !s.hasViewer {
		return 0
	}
	d := s.viewer.Sub(ChunkCenter(c, s.chunkWorldSize())).Len()
	return 10000 / (d + 1)
}

func (s *ChunkStreamer) lodFor(c ChunkCoord) int {
	if !s.hasViewer {
		return 0
	}
	d := s.viewer.Sub(ChunkCenter(c, s.chunkWorldSize())).Len()
	return LODForDistance(d, s.cfg.LODBands)
}

// RequestChunk queues c unless it is already active or queued.
func (s *ChunkStreamer) RequestChunk(c ChunkCoord) bool {
	if s.closed || s.store.Has(c) || s.queue.Contains(c) {
		return false
	}
	return s.queue.Push(GenerationTask{Coord: c, Priority: s.priority(c), Requested: s.now()})
}

// UpdateAroundViewer recomputes the required region around pos, queues
// what is missing, drops queued work that is no longer needed, and evicts
// active chunks outside the region. Chunks still generating are evicted on
// a later tick.
func (s *ChunkStreamer) UpdateAroundViewer(pos mgl32.Vec3) {
	if s.closed {
		return
	}
	defer profiling.Track("world.UpdateAroundViewer")()
	s.viewer = pos
	s.hasViewer = true

	centre := s.WorldToChunk(pos)
	v := s.cfg.ViewDistance
	required := make(map[ChunkCoord]struct{}, (2*v+1)*(2*v+1)*(2*verticalReach+1))
	var order []ChunkCoord
	for x := -v; x <= v; x++ {
		for y := -v; y <= v; y++ {
			for z := -verticalReach; z <= verticalReach; z++ {
				if x*x+y*y+z*z > v*v {
					continue
				}
				c := centre.Add(ChunkCoord{X: x, Y: y, Z: z})
				required[c] = struct{}{}
				order = append(order, c)
			}
		}
	}
	s.required = required
	for c := range s.deferred {
		if s.isRequired(c) {
			delete(s.deferred, c)
		}
	}

	s.queue.Retain(s.isRequired, s.priority)
	for _, c := range order {
		s.RequestChunk(c)
	}
	for _, c := range s.store.Coords() {
		if !s.isRequired(c) {
			s.evict(c)
		}
	}
}

func (s *ChunkStreamer) isRequired(c ChunkCoord) bool {
	_, ok := s.required[c]
	return ok
}

// evict removes c, or defers it while its generation is in flight.
func (s *ChunkStreamer) evict(c ChunkCoord) bool {
	data, ok := s.store.Get(c)
	if !ok {
		delete(s.deferred, c)
		return false
	}
	if data.Chunk.IsGenerating() {
		if _, already := s.deferred[c]; !already {
			s.log.Debug("eviction deferred while generating", zap.Stringer("chunk", c))
		}
		s.deferred[c] = struct{}{}
		return false
	}
	delete(s.deferred, c)
	s.store.Delete(c)
	if data.Built {
		s.sink.RemoveChunk(c)
	}
	s.releaseChunk(data.Chunk)
	s.counters.evicted++
	s.emit(ChunkEvent{Kind: EventEvicted, Coord: c, LOD: data.LOD})
	return true
}

func (s *ChunkStreamer) releaseChunk(c *Chunk) {
	pooled, err := s.pool.Release(c)
	if err != nil {
		s.log.Error("chunk released while generating", zap.Stringer("chunk", c.Coord), zap.Error(err))
		return
	}
	if !pooled {
		s.log.Debug("chunk pool full, discarding chunk", zap.Int("capacity", s.pool.Capacity()))
	}
}

// TickReport counts what one Tick did.
type TickReport struct {
	Committed  int
	Failed     int
	Evicted    int
	LODChanges int
	Dispatched int
}

// Tick commits finished chunks, retries deferred evictions, updates LODs,
// and dispatches up to ChunksPerTick queued tasks in priority order.
func (s *ChunkStreamer) Tick() TickReport {
	if s.closed {
		return TickReport{}
	}
	defer profiling.Track("world.Tick")()
	before := s.counters

	s.drainCompletions()
	s.retryDeferred()
	s.updateLODs()
	dispatched := s.processQueue()

	return TickReport{
		Committed:  s.counters.generated - before.generated,
		Failed:     s.counters.failed - before.failed,
		Evicted:    s.counters.evicted - before.evicted,
		LODChanges: s.counters.lodChanges - before.lodChanges,
		Dispatched: dispatched,
	}
}

func (s *ChunkStreamer) drainCompletions() {
	if s.workers == nil {
		return
	}
	for {
		select {
		case res := <-s.workers.Results():
			s.workers.Done()
			s.complete(res)
		default:
			return
		}
	}
}

func (s *ChunkStreamer) retryDeferred() {
	for c := range s.deferred {
		if s.isRequired(c) {
			delete(s.deferred, c)
			continue
		}
		s.evict(c)
	}
}

func (s *ChunkStreamer) updateLODs() {
	if !s.hasViewer {
		return
	}
	lodSink, _ := s.sink.(LODSink)
	for _, data := range s.store.Snapshot() {
		if !data.Generated {
			continue
		}
		lod := s.lodFor(data.Coord)
		if lod == data.LOD {
			continue
		}
		data.LOD = lod
		if lodSink != nil && data.Built {
			lodSink.SetChunkLOD(data.Coord, lod)
		}
		s.counters.lodChanges++
		s.emit(ChunkEvent{Kind: EventLODChanged, Coord: data.Coord, LOD: lod})
	}
}

func (s *ChunkStreamer) processQueue() int {
	dispatched := 0
	for dispatched < s.cfg.ChunksPerTick {
		if s.store.Len() >= s.cfg.MaxActiveChunks {
			break
		}
		task, ok := s.queue.Pop()
		if !ok {
			break
		}
		if s.store.Has(task.Coord) {
			continue
		}
		err := s.dispatch(task)
		if errors.Is(err, errSubmitRejected) {
			s.queue.Push(task)
			break
		}
		if err != nil {
			continue
		}
		dispatched++
	}
	return dispatched
}

func (s *ChunkStreamer) dispatch(task GenerationTask) error {
	chunk := s.pool.Acquire()
	s.ticket++
	ticket := s.ticket
	if err := chunk.beginGeneration(task.Coord, s.cfg.VoxelSize, s.cfg.ChunkSize, ticket); err != nil {
		s.log.Error("chunk generation rejected", zap.Stringer("chunk", task.Coord), zap.Error(err))
		s.releaseChunk(chunk)
		return err
	}

	s.store.Put(&ChunkData{
		Coord:       task.Coord,
		Chunk:       chunk,
		RequestedAt: task.Requested,
		LastAccess:  s.now(),
	})
	s.inflight[ticket] = chunk

	req := pipeline.Request{
		ID:       ticket,
		Origin:   chunk.Origin(),
		Settings: s.settings,
		Density:  s.density,
	}
	if s.workers == nil {
		s.complete(pipeline.Run(req, s.slices, s.log))
		return nil
	}
	if !s.workers.SubmitJob(req) {
		delete(s.inflight, ticket)
		chunk.abort()
		s.store.Delete(task.Coord)
		s.releaseChunk(chunk)
		return errSubmitRejected
	}
	return nil
}

// complete commits a finished result. Results for chunks that were
// dropped by RegenerateAll or Close are ignored.
func (s *ChunkStreamer) complete(res pipeline.Result) {
	chunk, ok := s.inflight[res.ID]
	if !ok {
		s.log.Debug("discarding stale generation result", zap.Uint64("ticket", res.ID))
		return
	}
	delete(s.inflight, res.ID)
	c := chunk.Coord
	data, ok := s.store.Get(c)
	if !ok || data.Chunk != chunk {
		chunk.abort()
		return
	}

	if res.Err != nil {
		s.log.Error("chunk generation failed", zap.Stringer("chunk", c), zap.Error(res.Err))
		chunk.abort()
		s.store.Delete(c)
		delete(s.deferred, c)
		s.releaseChunk(chunk)
		s.counters.failed++
		s.emit(ChunkEvent{Kind: EventFailed, Coord: c, Err: res.Err})
		return
	}

	chunk.commit(res.Mesh, res.Field)
	now := s.now()
	data.Generated = true
	data.GeneratedAt = now
	data.LastAccess = now
	data.LOD = s.lodFor(c)
	s.counters.generated++

	_, deferred := s.deferred[c]
	if leaving := deferred && !s.isRequired(c); !leaving {
		data.Built = s.handOff(c, res.Mesh, data.LOD)
	}
	if !s.cfg.Memory.KeepMeshData {
		chunk.releaseMesh()
	}
	if !s.cfg.Memory.KeepDensityField {
		chunk.releaseField()
	}

	s.log.Debug("chunk committed",
		zap.Stringer("chunk", c),
		zap.Int("vertices", res.Mesh.VertexCount()),
		zap.Int("triangles", res.Mesh.TriangleCount()),
		zap.Duration("took", res.Duration))
	s.emit(ChunkEvent{
		Kind:      EventGenerated,
		Coord:     c,
		LOD:       data.LOD,
		Vertices:  res.Mesh.VertexCount(),
		Triangles: res.Mesh.TriangleCount(),
	})
}

// handOff passes committed buffers to the configured render path. It
// reports whether the render sink accepted the chunk.
func (s *ChunkStreamer) handOff(c ChunkCoord, m *meshing.Mesh, lod int) bool {
	if m.Empty() {
		return false
	}
	built := false
	path := s.cfg.Render.Path
	if path == config.RenderStandard || path == config.RenderBoth {
		if err := s.sink.BuildChunk(c, m); err != nil {
			s.log.Warn("render sink rejected chunk", zap.Stringer("chunk", c), zap.Error(err))
		} else {
			built = true
			if ls, ok := s.sink.(LODSink); ok {
				ls.SetChunkLOD(c, lod)
			}
		}
	}
	if path == config.RenderAlternate || path == config.RenderBoth {
		if err := s.alt.BuildAlternate(c, m); err != nil {
			s.log.Warn("alternate builder rejected chunk", zap.Stringer("chunk", c), zap.Error(err))
		}
	}
	return built
}

// Flush ticks until nothing is queued or in flight, waiting on workers
// between ticks. It stops early when the queue cannot make progress, for
// example when MaxActiveChunks is reached.
func (s *ChunkStreamer) Flush(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := s.Tick()
		if s.closed {
			return ErrClosed
		}
		if len(s.inflight) == 0 {
			if s.queue.Len() == 0 || r.Dispatched == 0 {
				return nil
			}
			continue
		}
		select {
		case res := <-s.workers.Results():
			s.workers.Done()
			s.complete(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ModifyTerrain forwards an edit to every active chunk within the radius
// and marks it dirty. It returns the number of chunks touched.
func (s *ChunkStreamer) ModifyTerrain(pos mgl32.Vec3, radius, strength float32) int {
	size := s.chunkWorldSize()
	r := int(math.Ceil(float64(radius/size))) + 1
	centre := s.WorldToChunk(pos)
	touched := 0
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				c := centre.Add(ChunkCoord{X: x, Y: y, Z: z})
				data, ok := s.store.Get(c)
				if !ok || data.Chunk == nil {
					continue
				}
				data.Chunk.ModifyTerrain(pos, radius, strength, s.log)
				data.Dirty = true
				touched++
			}
		}
	}
	return touched
}

// Stats is a point-in-time count of chunk states.
type Stats struct {
	Total      int
	Active     int
	Pooled     int
	Queued     int
	Generating int
	Deferred   int

	Generated  int
	Failed     int
	Evicted    int
	LODChanges int
	Pool       PoolStats
}

func (s *ChunkStreamer) Stats() Stats {
	active := s.store.Len()
	return Stats{
		Total:      active + s.pool.Len(),
		Active:     active,
		Pooled:     s.pool.Len(),
		Queued:     s.queue.Len(),
		Generating: len(s.inflight),
		Deferred:   len(s.deferred),
		Generated:  s.counters.generated,
		Failed:     s.counters.failed,
		Evicted:    s.counters.evicted,
		LODChanges: s.counters.lodChanges,
		Pool:       s.pool.Stats(),
	}
}

// ActiveChunk returns a copy of the metadata for c.
func (s *ChunkStreamer) ActiveChunk(c ChunkCoord) (ChunkData, bool) {
	d, ok := s.store.Get(c)
	if !ok {
		return ChunkData{}, false
	}
	return *d, true
}

// Queue returns the pending tasks in processing order.
func (s *ChunkStreamer) Queue() []GenerationTask {
	return s.queue.Tasks()
}

// ChunkMesh is a committed chunk's mesh, copied out for export.
type ChunkMesh struct {
	Coord  ChunkCoord
	Origin mgl32.Vec3
	LOD    int
	Mesh   *meshing.Mesh
}

// Meshes copies every committed, resident mesh in coordinate order.
func (s *ChunkStreamer) Meshes() []ChunkMesh {
	var out []ChunkMesh
	for _, d := range s.store.Snapshot() {
		if !d.Generated {
			continue
		}
		m := d.Chunk.Mesh()
		if m == nil {
			continue
		}
		out = append(out, ChunkMesh{Coord: d.Coord, Origin: d.Chunk.Origin(), LOD: d.LOD, Mesh: m.Clone()})
	}
	return out
}

// RegenerateAll drops every chunk and the queue, then re-runs the viewer
// update if a viewer position is known. Results still in flight are
// discarded when they arrive.
func (s *ChunkStreamer) RegenerateAll() {
	if s.closed {
		return
	}
	s.cleanupAll()
	s.queue.Clear()
	if s.hasViewer {
		s.UpdateAroundViewer(s.viewer)
	}
	s.log.Info("all chunks regenerated")
}

// SetConfig validates and installs cfg, rebuilds the executors, and
// regenerates everything. An invalid cfg leaves the streamer untouched.
func (s *ChunkStreamer) SetConfig(cfg config.Config) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.apply(cfg); err != nil {
		return err
	}
	s.RegenerateAll()
	return nil
}

func (s *ChunkStreamer) cleanupAll() {
	for _, d := range s.store.Clear() {
		if d.Built {
			s.sink.RemoveChunk(d.Coord)
		}
	}
	s.pool.Drain()
	clear(s.inflight)
	clear(s.deferred)
}

// Close stops the workers and destroys every chunk. The streamer is unusable
// afterwards.
func (s *ChunkStreamer) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.stopExecutors()
	s.cleanupAll()
	s.queue.Clear()
}
