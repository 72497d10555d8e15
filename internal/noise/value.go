package noise

import "math"

// Value is seeded lattice value noise: random scalars at integer points,
// blended with the quintic fade. Cheaper than gradient noise but blockier.
type Value struct {
	Seed int64
}

func hash3(x, y, z int64, seed int64) uint64 {
	// SplitMix64 finalizer over a per-axis golden-ratio mix
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v = v ^ (v >> 31)
	return v
}

// lattice maps the hash of a grid point to [-1,1].
func lattice(x, y, z int64, seed int64) float64 {
	h := hash3(x, y, z, seed)
	return float64(h&0xFFFFFFFF)/float64(0xFFFFFFFF)*2 - 1
}

func (n Value) Noise3D(x, y, z float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	z0 := math.Floor(z)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	fx := fade(x - x0)
	fy := fade(y - y0)
	fz := fade(z - z0)

	v000 := lattice(ix, iy, iz, n.Seed)
	v100 := lattice(ix+1, iy, iz, n.Seed)
	v010 := lattice(ix, iy+1, iz, n.Seed)
	v110 := lattice(ix+1, iy+1, iz, n.Seed)
	v001 := lattice(ix, iy, iz+1, n.Seed)
	v101 := lattice(ix+1, iy, iz+1, n.Seed)
	v011 := lattice(ix, iy+1, iz+1, n.Seed)
	v111 := lattice(ix+1, iy+1, iz+1, n.Seed)

	i0 := lerp(lerp(v000, v100, fx), lerp(v010, v110, fx), fy)
	i1 := lerp(lerp(v001, v101, fx), lerp(v011, v111, fx), fy)
	return lerp(i0, i1, fz)
}
