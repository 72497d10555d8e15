package main

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestViewerPaths(t *testing.T) {
	line, err := newViewerPath("line", 10, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got := line.At(3); got != (mgl32.Vec3{30, 0, 5}) {
		t.Errorf("line.At(3) = %v", got)
	}

	circle, err := newViewerPath("circle", 100, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	for tick := 0; tick < 50; tick += 7 {
		p := circle.At(tick)
		if r := math.Hypot(float64(p[0]), float64(p[1])); math.Abs(r-1000) > 0.1 {
			t.Errorf("circle.At(%d) radius %v", tick, r)
		}
	}

	if _, err := newViewerPath("circle", 1, 0, 0); err == nil {
		t.Error("circle with zero radius accepted")
	}
	if _, err := newViewerPath("spiral", 1, 1, 0); err == nil {
		t.Error("unknown path accepted")
	}
}

func TestParseVec3(t *testing.T) {
	v, err := parseVec3("1, -2.5,3e2")
	if err != nil {
		t.Fatal(err)
	}
	if v != (mgl32.Vec3{1, -2.5, 300}) {
		t.Errorf("parseVec3 = %v", v)
	}
	for _, bad := range []string{"", "1,2", "1,2,x", "1,2,3,4"} {
		if _, err := parseVec3(bad); err == nil {
			t.Errorf("parseVec3(%q) accepted", bad)
		}
	}
}
