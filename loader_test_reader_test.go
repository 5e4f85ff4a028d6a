package loader

import (
	"sync"

	"github.com/gracefulearth/tileloader/geom"
)

// arrayReader is an in-memory Reader over a flat uint8 array laid out
// row-major per dataShape, used across the package's tests to exercise the
// full request/plan/cache/copy/assemble pipeline without any real file.
type arrayReader struct {
	data      []byte
	dataShape geom.Shape
	tile      geom.Shape
	logical   []geom.Shape // per-level, only used by NumLevels/adaptive test setups; unused here
	levels    int

	fillMu    sync.Mutex
	fillCalls []geom.Index // records every Fill call; the core invokes Fill concurrently across per-tile goroutines, so appends are mutex-guarded
}

func newArrayReader(dataShape, tile geom.Shape, data []byte) *arrayReader {
	return &arrayReader{data: data, dataShape: dataShape, tile: tile, levels: 1}
}

// fillCountFor reports how many times Fill was called for index, for
// at-most-once-concurrent-fill assertions.
func (r *arrayReader) fillCountFor(index geom.Index) int {
	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	n := 0
	for _, c := range r.fillCalls {
		if c.Equal(index) {
			n++
		}
	}
	return n
}

func (r *arrayReader) Fill(out []byte, index geom.Index, level int) error {
	r.fillMu.Lock()
	r.fillCalls = append(r.fillCalls, index.Clone())
	r.fillMu.Unlock()
	strides := r.dataShape.Strides()
	tileStrides := r.tile.Strides()
	d := len(r.dataShape)
	origin := make([]int, d)
	for i := 0; i < d; i++ {
		origin[i] = index[i] * r.tile[i]
	}
	r.tile.Iterate(func(local []int) bool {
		global := make([]int, d)
		inBounds := true
		for i := 0; i < d; i++ {
			global[i] = origin[i] + local[i]
			if global[i] >= r.dataShape[i] {
				inBounds = false
			}
		}
		if inBounds {
			out[geom.Offset(local, tileStrides)] = r.data[geom.Offset(global, strides)]
		}
		return true
	})
	return nil
}

func (r *arrayReader) TileShape(level int) geom.Shape   { return r.tile }
func (r *arrayReader) FullShape(level int) geom.Shape   { return r.dataShape }
func (r *arrayReader) DataType(level int) geom.DataType { return geom.Uint8 }
func (r *arrayReader) NumLevels() int                   { return r.levels }
func (r *arrayReader) NumDims() int                     { return len(r.dataShape) }
func (r *arrayReader) DimNames() []string {
	names := make([]string, len(r.dataShape))
	for i := range names {
		names[i] = "d"
	}
	return names
}
func (r *arrayReader) DownScaleFactor(level int) float64 { return 1 }

// failingReader wraps another Reader and fails Fill for one specific tile
// index, to exercise ErrReader propagation.
type failingReader struct {
	*arrayReader
	failIndex geom.Index
	failErr   error
}

func (r *failingReader) Fill(out []byte, index geom.Index, level int) error {
	if index.Equal(r.failIndex) {
		return r.failErr
	}
	return r.arrayReader.Fill(out, index, level)
}
