package halo

import "github.com/gracefulearth/tileloader/geom"

// Reflect fills halo cells by mirroring across the file boundary with the
// edge cell duplicated (OpenCV's BORDER_REFLECT): for a 1-D domain 0,1,2
// the halo reads ...,2,1,0,|0,1,2|,2,1,0,...
//
// fold only mirrors once, so Reflect requires Radii[axis] <= FullShape[axis]
// for every axis; a larger radius would need a second bounce off the far
// boundary, which FillExisting's no-op leaves uncovered and the reused view
// buffer would then surface stale data from a previous view instead.
type Reflect struct{}

func (Reflect) TileRequestsForHalo(g geom.ViewGeometry) []geom.CopyRecord {
	full := g.FullShape
	// fold computes the folded source coordinate for a ghost cell k>=1
	// steps beyond the boundary named by side. On the low side
	// (coordinate -k) it mirrors to k-1; on the high side (coordinate
	// full-1+k) it mirrors to full-k.
	fold := func(axis, k, side int) int {
		if side < 0 {
			return k - 1
		}
		return full[axis] - k
	}
	return geom.GenerateFoldedHalo(g, fold)
}

func (Reflect) FillExisting(data []byte, g geom.ViewGeometry) {}

// Reflect101 is Reflect without duplicating the edge cell (OpenCV's
// BORDER_REFLECT_101 / BORDER_REFLECT101): for a 1-D domain 0,1,2 the halo
// reads ...,2,1,|0,1,2|,1,0,...
//
// Single-bounce precondition, one tighter than Reflect's because the edge
// cell is skipped: Radii[axis] <= FullShape[axis]-1.
type Reflect101 struct{}

func (Reflect101) TileRequestsForHalo(g geom.ViewGeometry) []geom.CopyRecord {
	full := g.FullShape
	fold := func(axis, k, side int) int {
		if side < 0 {
			return k
		}
		return full[axis] - 1 - k
	}
	return geom.GenerateFoldedHalo(g, fold)
}

func (Reflect101) FillExisting(data []byte, g geom.ViewGeometry) {}
