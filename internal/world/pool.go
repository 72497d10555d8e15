package world

// ChunkPool holds reset chunks for reuse. It is owned by the driver.
type ChunkPool struct {
	free     []*Chunk
	capacity int

	created  int
	reused   int
	released int
	dropped  int
}

func NewChunkPool(capacity int) *ChunkPool {
	return &ChunkPool{capacity: max(capacity, 0)}
}

// Acquire returns a pooled chunk, or a new one when the pool is empty.
func (p *ChunkPool) Acquire() *Chunk {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.reused++
		return c
	}
	p.created++
	return NewChunk()
}

// Release resets c and keeps it when there is room. It reports whether c
// was pooled; a generating chunk is never accepted.
func (p *ChunkPool) Release(c *Chunk) (bool, error) {
	if err := c.Reset(); err != nil {
		return false, err
	}
	if len(p.free) >= p.capacity {
		p.dropped++
		return false, nil
	}
	p.free = append(p.free, c)
	p.released++
	return true, nil
}

func (p *ChunkPool) Len() int      { return len(p.free) }
func (p *ChunkPool) Capacity() int { return p.capacity }

// Drain empties the pool.
func (p *ChunkPool) Drain() {
	clear(p.free)
	p.free = p.free[:0]
}

// PoolStats counts pool traffic since creation.
type PoolStats struct {
	Created, Reused, Released, Dropped int
}

func (p *ChunkPool) Stats() PoolStats {
	return PoolStats{Created: p.created, Reused: p.reused, Released: p.released, Dropped: p.dropped}
}
