package geom

// CopyRecord describes one rectangular N-D copy: read the window from the
// tile at SourceTile (in the file's physical tile grid, at Level) and write
// it into a destination buffer (a view, or in adaptive mode a logical
// tile). CopyRecord is a plain value owned by the in-flight plan; it holds
// no back-pointers.
type CopyRecord struct {
	SourceTile Index
	Level      int
	Window     Window
}

// ViewGeometry carries the geometry a halo policy or plan generator needs
// to reason about one view, without exposing the view's storage.
type ViewGeometry struct {
	Level        int
	CentralIndex Index  // index of the central tile, in the file's tile grid
	TileShape    Shape  // physical (or, in adaptive mode, logical) tile shape
	FullShape    Shape  // full extent of the dataset at Level
	Radii        []int  // per-dimension halo radius
	ViewShape    Shape  // TileShape + 2*Radii elementwise
	DType        DataType

	// SourceTileShape is the grid spacing the plan generator splits copy
	// records at - normally identical to TileShape. The adaptive
	// remapper's logical-tile fill is the one case where they differ: a
	// logical tile's origin and extent are sized by the logical tile
	// shape (TileShape), but the plan must still split at physical tile
	// boundaries (SourceTileShape = the file's physical tile shape) so
	// SourceTile indices land in the physical tile grid the file cache is
	// keyed by. Left nil, it defaults to TileShape.
	SourceTileShape Shape
}

// SplitTileShape returns SourceTileShape if set, else TileShape - the grid
// spacing GenerateMainPlan and GenerateFoldedHalo split copy records at.
func (g ViewGeometry) SplitTileShape() Shape {
	if g.SourceTileShape != nil {
		return g.SourceTileShape
	}
	return g.TileShape
}

// CentralOrigin returns the central tile's offset in global coordinates.
func (g ViewGeometry) CentralOrigin() []int {
	origin := make([]int, len(g.CentralIndex))
	for d := range origin {
		origin[d] = g.CentralIndex[d] * g.TileShape[d]
	}
	return origin
}

// UnclippedWindow returns, per dimension, the [lo,hi) of the view's
// requested coverage in global coordinates before clipping to the file's
// extent - i.e. the central region expanded by Radii on each side.
func (g ViewGeometry) UnclippedWindow() Box {
	origin := g.CentralOrigin()
	out := make(Box, len(origin))
	for d := range origin {
		out[d] = Interval{Lo: origin[d] - g.Radii[d], Hi: origin[d] + g.TileShape[d] + g.Radii[d]}
	}
	return out
}

// ClippedWindow returns UnclippedWindow intersected with [0, FullShape)
// per dimension - the portion of the view that file data actually covers.
func (g ViewGeometry) ClippedWindow() Box {
	unclipped := g.UnclippedWindow()
	out := make(Box, len(unclipped))
	for d := range unclipped {
		out[d] = unclipped[d].Intersect(Interval{Lo: 0, Hi: g.FullShape[d]})
	}
	return out
}

// TileGrid returns the shape of the file's tile grid at this geometry's
// Level (ceil(FullShape[d] / TileShape[d]) per dimension).
func (g ViewGeometry) TileGrid() Shape {
	return g.FullShape.NumTiles(g.TileShape)
}
