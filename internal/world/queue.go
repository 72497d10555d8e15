package world

import (
	"sort"
	"time"
)

// GenerationTask asks for one chunk. Higher Priority runs first.
type GenerationTask struct {
	Coord     ChunkCoord
	Priority  float32
	Requested time.Time
}

// GenerationQueue keeps pending tasks sorted by descending priority, with
// ties in insertion order, and rejects coordinates already pending.
type GenerationQueue struct {
	tasks   []GenerationTask
	pending map[ChunkCoord]struct{}
}

func NewGenerationQueue() *GenerationQueue {
	return &GenerationQueue{pending: make(map[ChunkCoord]struct{})}
}

// Push inserts t after every task of equal or higher priority. It returns
// false if t.Coord is already pending.
func (q *GenerationQueue) Push(t GenerationTask) bool {
	if _, ok := q.pending[t.Coord]; ok {
		return false
	}
	i := sort.Search(len(q.tasks), func(i int) bool { return q.tasks[i].Priority < t.Priority })
	q.tasks = append(q.tasks, GenerationTask{})
	copy(q.tasks[i+1:], q.tasks[i:])
	q.tasks[i] = t
	q.pending[t.Coord] = struct{}{}
	return true
}

// Pop removes the highest-priority task.
func (q *GenerationQueue) Pop() (GenerationTask, bool) {
	if len(q.tasks) == 0 {
		return GenerationTask{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	delete(q.pending, t.Coord)
	return t, true
}

// Peek returns the next task without removing it.
func (q *GenerationQueue) Peek() (GenerationTask, bool) {
	if len(q.tasks) == 0 {
		return GenerationTask{}, false
	}
	return q.tasks[0], true
}

func (q *GenerationQueue) Len() int { return len(q.tasks) }

func (q *GenerationQueue) Contains(c ChunkCoord) bool {
	_, ok := q.pending[c]
	return ok
}

// Retain keeps tasks for which keep returns true, reassigning their
// priority from prio, and re-sorts stably.
func (q *GenerationQueue) Retain(keep func(ChunkCoord) bool, prio func(ChunkCoord) float32) {
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if !keep(t.Coord) {
			delete(q.pending, t.Coord)
			continue
		}
		t.Priority = prio(t.Coord)
		kept = append(kept, t)
	}
	clear(q.tasks[len(kept):])
	q.tasks = kept
	sort.SliceStable(q.tasks, func(i, j int) bool { return q.tasks[i].Priority > q.tasks[j].Priority })
}

// Tasks returns a copy of the queue in processing order.
func (q *GenerationQueue) Tasks() []GenerationTask {
	return append([]GenerationTask(nil), q.tasks...)
}

func (q *GenerationQueue) Clear() {
	q.tasks = nil
	clear(q.pending)
}
