package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"cavern/internal/density"
	"cavern/internal/meshing"
	"cavern/internal/profiling"
)

const (
	MinReachDistance = 0.1
	refineSteps      = 12
)

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3 // points into open space
	Distance float32
	Hit      bool
}

// Raycast marches from start along direction in steps of stepSize and
// stops at the first sample at or above threshold. The crossing is then
// refined by bisection against the last open sample.
func Raycast(start, direction mgl32.Vec3, minDist, maxDist, stepSize, threshold float32, fn density.Function) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	if stepSize <= 0 || direction.Len() == 0 {
		return RaycastResult{}
	}
	dir := direction.Normalize()
	steps := int(maxDist / stepSize)

	lastOpen := float32(-1)
	for i := 0; i <= steps; i++ {
		dist := float32(i) * stepSize
		if dist < minDist {
			continue
		}
		if fn.Density(start.Add(dir.Mul(dist))) < threshold {
			lastOpen = dist
			continue
		}

		hit := dist
		if lastOpen >= 0 {
			lo := lastOpen
			for range refineSteps {
				mid := (lo + hit) / 2
				if fn.Density(start.Add(dir.Mul(mid))) < threshold {
					lo = mid
				} else {
					hit = mid
				}
			}
		}
		p := start.Add(dir.Mul(hit))
		return RaycastResult{
			Point:    p,
			Normal:   meshing.Gradient(fn, p, stepSize*0.5),
			Distance: hit,
			Hit:      true,
		}
	}
	return RaycastResult{}
}
