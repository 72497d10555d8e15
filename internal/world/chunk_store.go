package world

import (
	"slices"
	"sync"
	"time"
)

// ChunkData is the manager's bookkeeping for one active coordinate.
type ChunkData struct {
	Coord     ChunkCoord
	Chunk     *Chunk
	Generated bool
	Built     bool // accepted by the render sink
	Dirty     bool
	LOD       int

	RequestedAt time.Time
	GeneratedAt time.Time
	LastAccess  time.Time
}

// ChunkStore maps active coordinates to their data. Writes come from the
// driver; readers on other goroutines may use Get, Len and Coords.
type ChunkStore struct {
	chunks   map[ChunkCoord]*ChunkData
	mu       sync.RWMutex
	modCount uint64 // bumped on every add or remove
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkCoord]*ChunkData)}
}

func (cs *ChunkStore) Get(c ChunkCoord) (*ChunkData, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	d, ok := cs.chunks[c]
	return d, ok
}

func (cs *ChunkStore) Has(c ChunkCoord) bool {
	_, ok := cs.Get(c)
	return ok
}

func (cs *ChunkStore) Put(d *ChunkData) {
	cs.mu.Lock()
	cs.chunks[d.Coord] = d
	cs.modCount++
	cs.mu.Unlock()
}

func (cs *ChunkStore) Delete(c ChunkCoord) (*ChunkData, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	d, ok := cs.chunks[c]
	if ok {
		delete(cs.chunks, c)
		cs.modCount++
	}
	return d, ok
}

func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// ModCount changes whenever the active set changes.
func (cs *ChunkStore) ModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// Coords returns the active coordinates in X, Y, Z order.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for c := range cs.chunks {
		out = append(out, c)
	}
	cs.mu.RUnlock()
	slices.SortFunc(out, compareCoords)
	return out
}

// Snapshot returns the entries in coordinate order. The pointers are live.
func (cs *ChunkStore) Snapshot() []*ChunkData {
	coords := cs.Coords()
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]*ChunkData, 0, len(coords))
	for _, c := range coords {
		if d, ok := cs.chunks[c]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Clear removes everything and returns what was there.
func (cs *ChunkStore) Clear() []*ChunkData {
	all := cs.Snapshot()
	cs.mu.Lock()
	clear(cs.chunks)
	cs.modCount++
	cs.mu.Unlock()
	return all
}

func compareCoords(a, b ChunkCoord) int {
	switch {
	case a.X != b.X:
		return a.X - b.X
	case a.Y != b.Y:
		return a.Y - b.Y
	default:
		return a.Z - b.Z
	}
}
