package noise

// Fractal sums octaves of src, each at lacunarity times the previous frequency
// and persistence times the previous amplitude, normalised by the total
// amplitude so the result stays within the source's range.
func Fractal(src Source, x, y, z float64, octaves int, frequency, lacunarity, persistence float64) float64 {
	amplitude := 1.0
	sum := 0.0
	norm := 0.0
	for range octaves {
		sum += src.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		norm += amplitude
		frequency *= lacunarity
		amplitude *= persistence
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
