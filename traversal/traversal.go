// Package traversal implements the enumeration order RequestAllViews uses
// to submit one request per cell of a level's tile grid. Only naive
// (increasing lexicographic index) and a user-supplied Custom hook are
// implemented.
package traversal

import "github.com/gracefulearth/tileloader/geom"

// Policy enumerates every Index of a tile grid of shape grid, calling
// yield once per index in the policy's chosen order. Iteration stops early
// if yield returns false.
type Policy interface {
	Traverse(grid geom.Shape, yield func(idx geom.Index) bool)
}

// Naive visits indices in increasing lexicographic order - the default and
// only built-in ordering this module requires.
type Naive struct{}

func (Naive) Traverse(grid geom.Shape, yield func(idx geom.Index) bool) {
	grid.Iterate(func(idx []int) bool {
		return yield(geom.Index(idx).Clone())
	})
}

// Custom adapts a plain enumeration function into a Policy, for callers
// that want a traversal order the naive strategy doesn't provide.
type Custom struct {
	Fn func(grid geom.Shape, yield func(idx geom.Index) bool)
}

func (c Custom) Traverse(grid geom.Shape, yield func(idx geom.Index) bool) {
	c.Fn(grid, yield)
}
