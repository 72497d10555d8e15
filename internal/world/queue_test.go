package world

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGenerationQueueOrder(t *testing.T) {
	q := NewGenerationQueue()
	q.Push(GenerationTask{Coord: ChunkCoord{X: 1}, Priority: 5})
	q.Push(GenerationTask{Coord: ChunkCoord{X: 2}, Priority: 9})
	q.Push(GenerationTask{Coord: ChunkCoord{X: 3}, Priority: 5})
	q.Push(GenerationTask{Coord: ChunkCoord{X: 4}, Priority: 1})

	want := []int{2, 1, 3, 4}
	for i, x := range want {
		task, ok := q.Pop()
		if !ok || task.Coord.X != x {
			t.Fatalf("pop %d = %v, want X=%d", i, task.Coord, x)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("pop on empty queue succeeded")
	}
}

func TestGenerationQueueRejectsPending(t *testing.T) {
	q := NewGenerationQueue()
	c := ChunkCoord{Y: 7}
	if !q.Push(GenerationTask{Coord: c, Priority: 1}) {
		t.Fatal("first push rejected")
	}
	if q.Push(GenerationTask{Coord: c, Priority: 100}) {
		t.Fatal("duplicate push accepted")
	}
	if q.Len() != 1 || !q.Contains(c) {
		t.Fatalf("len %d contains %v", q.Len(), q.Contains(c))
	}
	q.Pop()
	if q.Contains(c) {
		t.Fatal("popped coord still pending")
	}
	if !q.Push(GenerationTask{Coord: c}) {
		t.Fatal("push after pop rejected")
	}
}

func TestGenerationQueueRetain(t *testing.T) {
	q := NewGenerationQueue()
	for x := 0; x < 5; x++ {
		q.Push(GenerationTask{Coord: ChunkCoord{X: x}, Priority: float32(x)})
	}
	q.Retain(
		func(c ChunkCoord) bool { return c.X%2 == 0 },
		func(c ChunkCoord) float32 { return float32(-c.X) },
	)
	got := q.Tasks()
	if len(got) != 3 {
		t.Fatalf("kept %d tasks, want 3", len(got))
	}
	for i, x := range []int{0, 2, 4} {
		if got[i].Coord.X != x || got[i].Priority != float32(-x) {
			t.Fatalf("task %d = %+v", i, got[i])
		}
	}
	if q.Contains(ChunkCoord{X: 1}) {
		t.Fatal("dropped coord still pending")
	}
	q.Clear()
	if q.Len() != 0 || q.Contains(ChunkCoord{}) {
		t.Fatal("Clear left tasks behind")
	}
}

func TestChunkPoolCapacity(t *testing.T) {
	p := NewChunkPool(1)
	a, b := p.Acquire(), p.Acquire()
	if pooled, err := p.Release(a); !pooled || err != nil {
		t.Fatalf("release a: pooled=%v err=%v", pooled, err)
	}
	if pooled, err := p.Release(b); pooled || err != nil {
		t.Fatalf("release b: pooled=%v err=%v", pooled, err)
	}
	if p.Acquire() != a {
		t.Fatal("pool did not hand back the released chunk")
	}
	st := p.Stats()
	if st.Created != 2 || st.Reused != 1 || st.Released != 1 || st.Dropped != 1 {
		t.Fatalf("stats %+v", st)
	}
}

func TestChunkPoolRefusesGenerating(t *testing.T) {
	p := NewChunkPool(4)
	c := p.Acquire()
	if err := c.beginGeneration(ChunkCoord{X: 1}, 1, 8, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Release(c); !errors.Is(err, ErrChunkGenerating) {
		t.Fatalf("err %v, want ErrChunkGenerating", err)
	}
	if p.Len() != 0 {
		t.Fatal("generating chunk entered the pool")
	}
	c.abort()
	if pooled, err := p.Release(c); !pooled || err != nil {
		t.Fatalf("release after abort: pooled=%v err=%v", pooled, err)
	}
	if c.Coord != (ChunkCoord{}) {
		t.Fatalf("released chunk kept coord %v", c.Coord)
	}
}

func TestBeginGenerationRejectsInvalidSize(t *testing.T) {
	for _, size := range []int{0, -3, 129} {
		c := NewChunk()
		err := c.beginGeneration(ChunkCoord{X: 1, Y: 2, Z: 3}, 1, size, 9)
		if !errors.Is(err, ErrInvalidChunkSize) {
			t.Fatalf("size %d: err %v, want ErrInvalidChunkSize", size, err)
		}
		if c.IsGenerating() || c.Coord != (ChunkCoord{}) || c.Size != 0 {
			t.Fatalf("size %d: chunk changed after rejection: %+v", size, c)
		}
	}
}

func TestBeginGenerationExclusive(t *testing.T) {
	c := NewChunk()
	if err := c.beginGeneration(ChunkCoord{}, 1, 8, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.beginGeneration(ChunkCoord{X: 1}, 1, 8, 2); !errors.Is(err, ErrChunkGenerating) {
		t.Fatalf("second begin: %v", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrChunkGenerating) {
		t.Fatalf("reset while generating: %v", err)
	}
	c.commit(nil, nil)
	if c.IsGenerating() {
		t.Fatal("flag still set after commit")
	}
}

func TestChunkStoreCoordsSorted(t *testing.T) {
	s := NewChunkStore()
	for _, c := range []ChunkCoord{{X: 2}, {X: -1, Y: 5}, {X: -1, Y: 0, Z: 3}, {}} {
		s.Put(&ChunkData{Coord: c})
	}
	want := []ChunkCoord{{X: -1, Y: 0, Z: 3}, {X: -1, Y: 5}, {}, {X: 2}}
	got := s.Coords()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Coords = %v, want %v", got, want)
		}
	}
	mods := s.ModCount()
	if _, ok := s.Delete(ChunkCoord{X: 2}); !ok || s.ModCount() != mods+1 {
		t.Fatal("delete did not bump modCount")
	}
	if _, ok := s.Delete(ChunkCoord{X: 2}); ok {
		t.Fatal("second delete succeeded")
	}
	if n := len(s.Clear()); n != 3 || s.Len() != 0 {
		t.Fatalf("Clear returned %d, len %d", n, s.Len())
	}
}

func TestWorldToChunkFloors(t *testing.T) {
	cases := []struct {
		pos  mgl32.Vec3
		want ChunkCoord
	}{
		{mgl32.Vec3{0, 0, 0}, ChunkCoord{}},
		{mgl32.Vec3{-0.5, 8, 15.9}, ChunkCoord{X: -1, Y: 1, Z: 1}},
		{mgl32.Vec3{-8, -8.01, 3200}, ChunkCoord{X: -1, Y: -2, Z: 400}},
	}
	for _, tc := range cases {
		if got := WorldToChunk(tc.pos, 8); got != tc.want {
			t.Errorf("WorldToChunk(%v) = %v, want %v", tc.pos, got, tc.want)
		}
	}
	if got := ChunkToWorld(ChunkCoord{X: -2, Y: 1, Z: 3}, 3200); got != (mgl32.Vec3{-6400, 3200, 9600}) {
		t.Errorf("ChunkToWorld = %v", got)
	}
	if got := ChunkCenter(ChunkCoord{X: 1}, 8); got != (mgl32.Vec3{12, 4, 4}) {
		t.Errorf("ChunkCenter = %v", got)
	}
}

func TestLODForDistance(t *testing.T) {
	bands := []float32{5000, 10000, 20000}
	cases := map[float32]int{0: 0, 5000: 0, 5001: 1, 10000: 1, 15000: 2, 20001: 3}
	for d, want := range cases {
		if got := LODForDistance(d, bands); got != want {
			t.Errorf("LODForDistance(%v) = %d, want %d", d, got, want)
		}
	}
}
