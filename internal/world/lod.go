package world

// LODForDistance returns how many of bands d strictly exceeds. With the
// default bands 5000/10000/20000 that is level 0 to 3.
func LODForDistance(d float32, bands []float32) int {
	lod := 0
	for _, b := range bands {
		if d > b {
			lod++
		}
	}
	return lod
}
