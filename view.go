package loader

import "github.com/gracefulearth/tileloader/geom"

// ViewState is the per-view state machine: Planned
// -> Fetching -> AssemblingHalo -> Ready -> Emitted -> Released. No
// transition is cancellable. This package assigns only StateReady (when a
// view is assembled) and StateReleased (on its final release); the other
// states are declared but never stored in a View.
type ViewState int

const (
	StatePlanned ViewState = iota
	StateFetching
	StateAssemblingHalo
	StateReady
	StateEmitted
	StateReleased
)

// View is a fully assembled, contiguous N-D buffer: a central tile
// optionally surrounded by a per-dimension halo, handed to the consumer by
// NextView and returned to its level's buffer pool after exactly
// releaseTarget calls to System.Release.
type View struct {
	Level     int
	Index     Index
	TileShape Shape
	FullShape Shape
	Radii     []int
	ViewShape Shape
	DType     DataType
	Data      []byte

	state         ViewState
	releaseCount  int
	releaseTarget int
	lp            *levelPipeline
}

// Geometry returns the geom.ViewGeometry describing v, for passing to a
// halo.Policy or the plan generator.
func (v *View) Geometry() geom.ViewGeometry {
	return geom.ViewGeometry{
		Level:        v.Level,
		CentralIndex: v.Index,
		TileShape:    v.TileShape,
		FullShape:    v.FullShape,
		Radii:        v.Radii,
		ViewShape:    v.ViewShape,
		DType:        v.DType,
	}
}

// RealDataBox returns the sub-region of the view, in view-local
// coordinates, that file data actually covers; cells outside it are
// halo-synthesized or undefined border-tile padding that must never be
// read by the consumer.
func (v *View) RealDataBox() geom.Box {
	g := v.Geometry()
	clipped := g.ClippedWindow()
	unclipped := g.UnclippedWindow()
	out := make(geom.Box, len(clipped))
	for d := range clipped {
		out[d] = geom.Interval{
			Lo: clipped[d].Lo - unclipped[d].Lo,
			Hi: clipped[d].Hi - unclipped[d].Lo,
		}
	}
	return out
}

// Result is what NextView hands back: exactly one of View or Err is set.
type Result struct {
	Request Request
	View    *View
	Err     error
}

// Request identifies one submitted (or completed) view by logical tile
// index and pyramid level.
type Request struct {
	Index Index
	Level int
}
