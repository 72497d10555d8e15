package noise

import (
	"math"
	"math/rand"
	"testing"
)

func TestPermutationIsBijective(t *testing.T) {
	var seen [256]bool
	for _, p := range permutation {
		if seen[p] {
			t.Fatalf("permutation repeats %d", p)
		}
		seen[p] = true
	}
	for i := range 256 {
		if perm[i] != perm[i+256] {
			t.Fatalf("perm[%d]=%d but perm[%d]=%d", i, perm[i], i+256, perm[i+256])
		}
	}
}

// TestReferenceGolden pins the output so terrain regenerates identically.
func TestReferenceGolden(t *testing.T) {
	cases := []struct {
		x, y, z float64
		want    float64
	}{
		{0.5, 0.5, 0.5, -0.2425},
		{1.25, -3.75, 2.5, 0.4387689971923828},
		{12.3, 4.56, -7.89, -0.321423500264257},
		{-0.1, 0.2, 0.3, 0.21497855420289813},
		{100.5, 200.25, -50.125, -0.21714592300355434},
	}
	var src Reference
	for _, c := range cases {
		got := src.Noise3D(c.x, c.y, c.z)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Noise3D(%v, %v, %v) = %v, want %v", c.x, c.y, c.z, got, c.want)
		}
	}
}

func TestReferenceZeroOnLattice(t *testing.T) {
	var src Reference
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			for z := -3; z <= 3; z++ {
				if v := src.Noise3D(float64(x), float64(y), float64(z)); v != 0 {
					t.Errorf("Noise3D(%d, %d, %d) = %v, want 0", x, y, z, v)
				}
			}
		}
	}
}

func TestSourcesRange(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	sources := map[string]Source{
		"reference": Reference{},
		"seeded":    NewSeeded(42),
		"value":     Value{Seed: 42},
	}
	for name, src := range sources {
		for range 2000 {
			x := rng.Float64()*200 - 100
			y := rng.Float64()*200 - 100
			z := rng.Float64()*200 - 100
			v := src.Noise3D(x, y, z)
			if v < -1 || v > 1 || math.IsNaN(v) {
				t.Fatalf("%s: Noise3D(%f, %f, %f) = %f, expected in [-1,1]", name, x, y, z, v)
			}
		}
	}
}

func TestSourcesDeterministic(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	va, vb := Value{Seed: 7}, Value{Seed: 7}
	for i := range 50 {
		x, y, z := float64(i)*0.37, float64(i)*-0.11, float64(i)*0.73
		if a.Noise3D(x, y, z) != b.Noise3D(x, y, z) {
			t.Fatalf("seeded noise differs for equal seeds at %d", i)
		}
		if va.Noise3D(x, y, z) != vb.Noise3D(x, y, z) {
			t.Fatalf("value noise differs for equal seeds at %d", i)
		}
	}
}

// TestReferenceContinuity checks small input steps give small output steps.
func TestReferenceContinuity(t *testing.T) {
	var src Reference
	const step = 1e-4
	for i := range 500 {
		x := float64(i) * 0.0173
		v1 := src.Noise3D(x, 0.31, 0.77)
		v2 := src.Noise3D(x+step, 0.31, 0.77)
		if math.Abs(v2-v1) > 0.01 {
			t.Errorf("discontinuity at x=%f: %f -> %f", x, v1, v2)
		}
	}
}

func TestValueNoiseMatchesLatticeAtGridPoints(t *testing.T) {
	n := Value{Seed: 3}
	for x := int64(-2); x <= 2; x++ {
		got := n.Noise3D(float64(x), 1, -1)
		want := lattice(x, 1, -1, 3)
		if got != want {
			t.Errorf("Noise3D at lattice (%d,1,-1) = %f, want %f", x, got, want)
		}
	}
}

func TestFractal(t *testing.T) {
	var src Reference
	// one octave at frequency 1 is the raw source
	if got, want := Fractal(src, 0.5, 0.5, 0.5, 1, 1, 2, 0.5), src.Noise3D(0.5, 0.5, 0.5); got != want {
		t.Errorf("single octave = %f, want %f", got, want)
	}
	if got := Fractal(src, 1, 2, 3, 0, 1, 2, 0.5); got != 0 {
		t.Errorf("zero octaves = %f, want 0", got)
	}
	rng := rand.New(rand.NewSource(1))
	for range 500 {
		v := Fractal(src, rng.Float64()*50, rng.Float64()*50, rng.Float64()*50, 4, 0.3, 2, 0.5)
		if v < -1 || v > 1 {
			t.Fatalf("fractal out of range: %f", v)
		}
	}
}

func TestNewSelectsSource(t *testing.T) {
	if _, ok := New("reference", 0).(Reference); !ok {
		t.Error("reference kind should give Reference")
	}
	if _, ok := New("seeded", 1).(*Seeded); !ok {
		t.Error("seeded kind should give *Seeded")
	}
	if v, ok := New("value", 9).(Value); !ok || v.Seed != 9 {
		t.Error("value kind should give Value with the seed")
	}
}
