// Package geom holds the N-dimensional geometry and element-type vocabulary
// shared by the loader core and the halo policies, kept separate from both
// so that halo.Policy implementations need not import the core package.
package geom

import "fmt"

// Shape is an ordered vector of dimension sizes. Its length is the
// dimensionality D of the dataset it describes.
type Shape []int

// Index is an ordered vector of non-negative integers, one per dimension of
// a Shape. Indices compare lexicographically where an ordering is needed.
type Index []int

// Dims returns the dimensionality described by s.
func (s Shape) Dims() int { return len(s) }

// Volume returns the product of every dimension size in s.
func (s Shape) Volume() int {
	v := 1
	for _, d := range s {
		v *= d
	}
	return v
}

// Clone returns an independent copy of s.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Strides returns the row-major (last dimension fastest, i.e. contiguous)
// strides for a buffer laid out according to s.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	stride := 1
	for d := len(s) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= s[d]
	}
	return strides
}

// NumTiles returns ceil(s[d] / tileShape[d]) per dimension: the shape of the
// tile grid that tiles s using tiles of tileShape.
func (s Shape) NumTiles(tileShape Shape) Shape {
	out := make(Shape, len(s))
	for d := range s {
		out[d] = ceilDiv(s[d], tileShape[d])
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}

// Clone returns an independent copy of idx.
func (idx Index) Clone() Index {
	out := make(Index, len(idx))
	copy(out, idx)
	return out
}

// Less reports whether idx sorts lexicographically before other. Both must
// have the same length.
func (idx Index) Less(other Index) bool {
	for d := range idx {
		if idx[d] != other[d] {
			return idx[d] < other[d]
		}
	}
	return false
}

// Equal reports whether idx and other describe the same coordinate.
func (idx Index) Equal(other Index) bool {
	if len(idx) != len(other) {
		return false
	}
	for d := range idx {
		if idx[d] != other[d] {
			return false
		}
	}
	return true
}

func (idx Index) String() string {
	return fmt.Sprintf("%v", []int(idx))
}

// InBounds reports whether idx is a valid tile index into a tile grid of
// shape grid (i.e. idx[d] is in [0, grid[d]) for every dimension).
func (idx Index) InBounds(grid Shape) bool {
	if len(idx) != len(grid) {
		return false
	}
	for d := range idx {
		if idx[d] < 0 || idx[d] >= grid[d] {
			return false
		}
	}
	return true
}

// Interval is a per-dimension half-open range [Lo, Hi).
type Interval struct {
	Lo, Hi int
}

// Len returns Hi-Lo, clamped to zero.
func (iv Interval) Len() int {
	if iv.Hi <= iv.Lo {
		return 0
	}
	return iv.Hi - iv.Lo
}

// Intersect returns the overlap of iv and other; Len() is 0 if disjoint.
func (iv Interval) Intersect(other Interval) Interval {
	lo := iv.Lo
	if other.Lo > lo {
		lo = other.Lo
	}
	hi := iv.Hi
	if other.Hi < hi {
		hi = other.Hi
	}
	if hi < lo {
		hi = lo
	}
	return Interval{Lo: lo, Hi: hi}
}

// Box is a per-dimension set of Intervals describing an axis-aligned region
// in global dataset coordinates.
type Box []Interval

// Shape returns the per-dimension extents of b.
func (b Box) Shape() Shape {
	out := make(Shape, len(b))
	for d, iv := range b {
		out[d] = iv.Len()
	}
	return out
}

// Intersect returns the overlap of b and other, dimension by dimension.
func (b Box) Intersect(other Box) Box {
	out := make(Box, len(b))
	for d := range b {
		out[d] = b[d].Intersect(other[d])
	}
	return out
}

// Empty reports whether b has zero volume in any dimension.
func (b Box) Empty() bool {
	for _, iv := range b {
		if iv.Len() <= 0 {
			return true
		}
	}
	return false
}

// Window describes one per-dimension copy: a source offset and destination
// offset (both relative to the origin of their own buffer), a shared length
// per dimension, and a per-dimension reverse flag used by halo policies such
// as Reflect and Reflect101.
type Window struct {
	SrcOffset []int
	DstOffset []int
	Length    []int
	Reverse   []bool
}

// Volume returns the number of elements this window copies.
func (w Window) Volume() int {
	v := 1
	for _, l := range w.Length {
		v *= l
	}
	return v
}

// NewWindow allocates a D-dimensional window with all reverse flags false.
func NewWindow(d int) Window {
	return Window{
		SrcOffset: make([]int, d),
		DstOffset: make([]int, d),
		Length:    make([]int, d),
		Reverse:   make([]bool, d),
	}
}
