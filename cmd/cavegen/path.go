package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type viewerPath interface {
	At(tick int) mgl32.Vec3
}

type stillPath struct{ pos mgl32.Vec3 }

func (p stillPath) At(int) mgl32.Vec3 { return p.pos }

// linePath walks along +X.
type linePath struct {
	speed, height float32
}

func (p linePath) At(tick int) mgl32.Vec3 {
	return mgl32.Vec3{float32(tick) * p.speed, 0, p.height}
}

// circlePath orbits the origin at constant speed.
type circlePath struct {
	speed, radius, height float32
}

func (p circlePath) At(tick int) mgl32.Vec3 {
	a := float64(float32(tick)*p.speed) / float64(p.radius)
	return mgl32.Vec3{
		p.radius * float32(math.Cos(a)),
		p.radius * float32(math.Sin(a)),
		p.height,
	}
}

func newViewerPath(kind string, speed, radius, height float32) (viewerPath, error) {
	switch kind {
	case "still":
		return stillPath{pos: mgl32.Vec3{0, 0, height}}, nil
	case "line":
		return linePath{speed: speed, height: height}, nil
	case "circle":
		if radius <= 0 {
			return nil, fmt.Errorf("circle path needs a positive radius, got %v", radius)
		}
		return circlePath{speed: speed, radius: radius, height: height}, nil
	default:
		return nil, fmt.Errorf("unknown viewer path %q", kind)
	}
}
