package halo

import (
	"encoding/binary"

	"github.com/gracefulearth/tileloader/geom"
)

// Constant fills every halo cell with a fixed, user-specified value. It
// needs no extra file reads; FillExisting writes the encoded constant into
// every destination cell that lies outside the view's clipped (in-file)
// window.
type Constant struct {
	raw []byte
}

// NewConstant encodes value (the Go value naturally associated with t, see
// geom.DataType) once, at construction, using byte order o.
func NewConstant(t geom.DataType, o binary.ByteOrder, value any) *Constant {
	raw := make([]byte, t.Size())
	t.PutConstant(raw, o, value)
	return &Constant{raw: raw}
}

func (c *Constant) TileRequestsForHalo(g geom.ViewGeometry) []geom.CopyRecord { return nil }

func (c *Constant) FillExisting(data []byte, g geom.ViewGeometry) {
	elemSize := g.DType.Size()
	strides := g.ViewShape.Strides()
	clipped := g.ClippedWindow()
	unclipped := g.UnclippedWindow()

	g.ViewShape.Iterate(func(idx []int) bool {
		for d := range idx {
			global := unclipped[d].Lo + idx[d]
			if global < clipped[d].Lo || global >= clipped[d].Hi {
				off := geom.Offset(idx, strides) * elemSize
				copy(data[off:off+elemSize], c.raw)
				return true
			}
		}
		return true
	})
}
