package density

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinSize = 1
	MaxSize = 128

	// OutOfBounds is returned for lattice lookups outside the field. It is
	// solid so no surface is invented at the chunk boundary.
	OutOfBounds float32 = 1.0
)

var ErrInvalidSize = errors.New("density: field size out of range")

// Field is an (N+1)^3 lattice of density samples for an N-voxel chunk,
// stored x-fastest: index = x + y*(N+1) + z*(N+1)^2.
type Field struct {
	Size   int
	Values []float32
}

// Len returns the sample count for a chunk of n voxels per axis.
func Len(n int) int {
	s := n + 1
	return s * s * s
}

func checkSize(n int) error {
	if n < MinSize || n > MaxSize {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidSize, n, MinSize, MaxSize)
	}
	return nil
}

// Build samples fn at origin + (x,y,z)*voxelSize for every lattice point.
// It reads nothing but its arguments, so it may run on any goroutine.
func Build(fn Function, origin mgl32.Vec3, voxelSize float32, size int) (*Field, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, errors.New("density: nil function")
	}
	f := &Field{Size: size, Values: make([]float32, Len(size))}
	s := size + 1
	i := 0
	for z := range s {
		pz := origin[2] + float32(z)*voxelSize
		for y := range s {
			py := origin[1] + float32(y)*voxelSize
			for x := range s {
				px := origin[0] + float32(x)*voxelSize
				f.Values[i] = fn.Density(mgl32.Vec3{px, py, pz})
				i++
			}
		}
	}
	return f, nil
}

// FromValues wraps precomputed samples. len(values) must equal Len(size).
func FromValues(size int, values []float32) (*Field, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if len(values) != Len(size) {
		return nil, fmt.Errorf("density: %d values for size %d, want %d", len(values), size, Len(size))
	}
	return &Field{Size: size, Values: values}, nil
}

// Index flattens lattice coordinates.
func (f *Field) Index(x, y, z int) int {
	s := f.Size + 1
	return x + y*s + z*s*s
}

// At returns the sample at (x,y,z), or OutOfBounds outside [0,Size].
func (f *Field) At(x, y, z int) float32 {
	if x < 0 || y < 0 || z < 0 || x > f.Size || y > f.Size || z > f.Size {
		return OutOfBounds
	}
	return f.Values[f.Index(x, y, z)]
}

// Set writes one sample; out-of-range writes are ignored.
func (f *Field) Set(x, y, z int, v float32) {
	if x < 0 || y < 0 || z < 0 || x > f.Size || y > f.Size || z > f.Size {
		return
	}
	f.Values[f.Index(x, y, z)] = v
}
