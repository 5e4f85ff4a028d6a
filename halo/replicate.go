package halo

import "github.com/gracefulearth/tileloader/geom"

// Replicate fills each halo cell with the nearest in-view cell along each
// dimension (clamp-to-edge). Like Constant, it needs no extra file reads.
type Replicate struct{}

func (Replicate) TileRequestsForHalo(g geom.ViewGeometry) []geom.CopyRecord { return nil }

func (Replicate) FillExisting(data []byte, g geom.ViewGeometry) {
	elemSize := g.DType.Size()
	strides := g.ViewShape.Strides()
	clipped := g.ClippedWindow()
	unclipped := g.UnclippedWindow()

	srcIdx := make([]int, len(g.ViewShape))
	g.ViewShape.Iterate(func(idx []int) bool {
		outOfBounds := false
		for d := range idx {
			global := unclipped[d].Lo + idx[d]
			clampedLocalLo := clipped[d].Lo - unclipped[d].Lo
			clampedLocalHi := clipped[d].Hi - unclipped[d].Lo
			if global < clipped[d].Lo || global >= clipped[d].Hi {
				outOfBounds = true
			}
			switch {
			case idx[d] < clampedLocalLo:
				srcIdx[d] = clampedLocalLo
			case idx[d] >= clampedLocalHi:
				srcIdx[d] = clampedLocalHi - 1
			default:
				srcIdx[d] = idx[d]
			}
		}
		if outOfBounds {
			dstOff := geom.Offset(idx, strides) * elemSize
			srcOff := geom.Offset(srcIdx, strides) * elemSize
			copy(data[dstOff:dstOff+elemSize], data[srcOff:srcOff+elemSize])
		}
		return true
	})
}
