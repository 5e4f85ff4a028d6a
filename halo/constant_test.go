package halo

import (
	"encoding/binary"
	"testing"

	"github.com/gracefulearth/tileloader/geom"
)

// TestConstant1D mirrors spec.md's end-to-end scenario 2: a 5-element 1-D
// file [1,2,3,4,5], tile=2, radii=1, Constant(0). View 2's in-bounds cells
// are file[3:5] (values 4,5) at view-local offsets 0,1; offsets 2 and 3
// fall outside the file and must read back as the constant, giving [4,5,0,0].
func TestConstant1D(t *testing.T) {
	g := geom.ViewGeometry{
		CentralIndex: geom.Index{2},
		TileShape:    geom.Shape{2},
		FullShape:    geom.Shape{5},
		Radii:        []int{1},
		ViewShape:    geom.Shape{4},
		DType:        geom.Uint8,
	}
	data := make([]byte, 4)
	// Simulate the in-bounds copy the plan generator would have already
	// performed: file[3],file[4] (values 4,5) land at view-local offsets 0,1.
	data[0] = 4
	data[1] = 5

	c := NewConstant(geom.Uint8, binary.BigEndian, uint8(0))
	c.FillExisting(data, g)

	want := []byte{4, 5, 0, 0}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("data[%d] = %d, want %d (expected %v got %v)", i, data[i], want[i], want, data)
		}
	}
}

func TestConstantNoExtraTileRequests(t *testing.T) {
	c := NewConstant(geom.Uint8, binary.BigEndian, uint8(9))
	recs := c.TileRequestsForHalo(geom.ViewGeometry{})
	if recs != nil {
		t.Errorf("Constant must not request extra tiles, got %d records", len(recs))
	}
}

func TestConstantLeavesInBoundsCellsUntouched(t *testing.T) {
	g := geom.ViewGeometry{
		CentralIndex: geom.Index{0},
		TileShape:    geom.Shape{2},
		FullShape:    geom.Shape{5},
		Radii:        []int{0},
		ViewShape:    geom.Shape{2},
		DType:        geom.Uint8,
	}
	data := []byte{1, 2}
	c := NewConstant(geom.Uint8, binary.BigEndian, uint8(255))
	c.FillExisting(data, g)
	if data[0] != 1 || data[1] != 2 {
		t.Errorf("expected in-bounds cells unchanged, got %v", data)
	}
}
