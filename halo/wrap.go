package halo

import "github.com/gracefulearth/tileloader/geom"

// Wrap fills halo cells by wrapping around to the opposite edge of the
// file (periodic boundary): for a 1-D domain 0,1,2 the halo reads
// ...,0,1,2,|0,1,2|,0,1,2,...
//
// fold only wraps once, so Wrap requires Radii[axis] <= FullShape[axis] for
// every axis; a larger radius would need to wrap around more than once,
// which FillExisting's no-op leaves uncovered, surfacing stale data from
// the reused view buffer.
type Wrap struct{}

func (Wrap) TileRequestsForHalo(g geom.ViewGeometry) []geom.CopyRecord {
	full := g.FullShape
	fold := func(axis, k, side int) int {
		if side < 0 {
			return full[axis] - k
		}
		return k - 1
	}
	return geom.GenerateFoldedHalo(g, fold)
}

func (Wrap) FillExisting(data []byte, g geom.ViewGeometry) {}
