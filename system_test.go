package loader

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/gracefulearth/tileloader/geom"
	"github.com/gracefulearth/tileloader/halo"
	"github.com/gracefulearth/tileloader/traversal"
)

func mustNextView(t *testing.T, sys *System) *View {
	t.Helper()
	res, ok := sys.NextView()
	if !ok {
		t.Fatal("NextView returned shutdown (ok=false) before expecting one")
	}
	if res.Err != nil {
		t.Fatalf("NextView returned error: %v", res.Err)
	}
	return res.View
}

// TestScenario1NoRadiusConstant mirrors spec.md §8 scenario 1: 1-D, 5
// elements, tile=2, radii=0, Constant(0). Views 0,1,2 equal [1,2],[3,4],
// [5,undef] - the undefined tail is never read, so only the in-bounds
// prefix is checked.
func TestScenario1NoRadiusConstant(t *testing.T) {
	file := []byte{1, 2, 3, 4, 5}
	reader := newArrayReader(geom.Shape{5}, geom.Shape{2}, file)
	cfg := &Config{
		Reader:     reader,
		HaloPolicy: halo.NewConstant(geom.Uint8, binary.BigEndian, uint8(0)),
		Radii:      []int{0},
	}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	want := [][]byte{{1, 2}, {3, 4}, {5}}
	for i, w := range want {
		if err := sys.RequestView(geom.Index{i}, 0); err != nil {
			t.Fatalf("RequestView(%d): %v", i, err)
		}
		v := mustNextView(t, sys)
		box := v.RealDataBox()
		got := v.Data[box[0].Lo:box[0].Hi]
		if !bytesEqual(got, w) {
			t.Errorf("view %d in-bounds data = %v, want %v", i, got, w)
		}
		sys.Release(v)
	}
	sys.FinishRequesting()
	sys.WaitForTermination()
}

// TestScenario2RadiusConstant mirrors spec.md §8 scenario 2: radii=1,
// Constant(0). Views 0,1,2 equal [0,1,2,3], [2,3,4,5], [4,5,0,0].
func TestScenario2RadiusConstant(t *testing.T) {
	file := []byte{1, 2, 3, 4, 5}
	reader := newArrayReader(geom.Shape{5}, geom.Shape{2}, file)
	cfg := &Config{
		Reader:     reader,
		HaloPolicy: halo.NewConstant(geom.Uint8, binary.BigEndian, uint8(0)),
		Radii:      []int{1},
	}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	want := [][]byte{{0, 1, 2, 3}, {2, 3, 4, 5}, {4, 5, 0, 0}}
	for i, w := range want {
		if err := sys.RequestView(geom.Index{i}, 0); err != nil {
			t.Fatalf("RequestView(%d): %v", i, err)
		}
		v := mustNextView(t, sys)
		if !bytesEqual(v.Data, w) {
			t.Errorf("view %d data = %v, want %v", i, v.Data, w)
		}
		sys.Release(v)
	}
	sys.FinishRequesting()
	sys.WaitForTermination()
}

// TestScenario3RadiusReplicate mirrors spec.md §8 scenario 3: same setup as
// scenario 2 but Replicate. View 2's trailing halo clamps to [4,5,5,5], and
// view 0's leading halo clamps to [1,1,2,3].
func TestScenario3RadiusReplicate(t *testing.T) {
	file := []byte{1, 2, 3, 4, 5}
	reader := newArrayReader(geom.Shape{5}, geom.Shape{2}, file)
	cfg := &Config{
		Reader:     reader,
		HaloPolicy: halo.Replicate{},
		Radii:      []int{1},
	}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	want := map[int][]byte{0: {1, 1, 2, 3}, 2: {4, 5, 5, 5}}
	for i, w := range want {
		if err := sys.RequestView(geom.Index{i}, 0); err != nil {
			t.Fatalf("RequestView(%d): %v", i, err)
		}
		v := mustNextView(t, sys)
		if !bytesEqual(v.Data, w) {
			t.Errorf("view %d data = %v, want %v", i, v.Data, w)
		}
		sys.Release(v)
	}
	sys.FinishRequesting()
	sys.WaitForTermination()
}

// TestScenario4ThreeDSingleCell mirrors spec.md §8 scenario 4: a 5x5x5
// volume populated as F[l,r,c]=100(l+1)+10(r+1)+(c+1), tile=1^3, radii=0.
// Every request's single-cell view must equal F at that index.
func TestScenario4ThreeDSingleCell(t *testing.T) {
	shape := geom.Shape{5, 5, 5}
	data := make([]byte, shape.Volume())
	strides := shape.Strides()
	shape.Iterate(func(idx []int) bool {
		v := 100*(idx[0]+1) + 10*(idx[1]+1) + (idx[2] + 1)
		data[geom.Offset(idx, strides)] = byte(v)
		return true
	})
	reader := newArrayReader(shape, geom.Shape{1, 1, 1}, data)
	cfg := &Config{
		Reader:     reader,
		HaloPolicy: halo.NewConstant(geom.Uint8, binary.BigEndian, uint8(0)),
		Radii:      []int{0, 0, 0},
	}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	shape.Iterate(func(idx []int) bool {
		index := geom.Index(idx).Clone()
		if err := sys.RequestView(index, 0); err != nil {
			t.Fatalf("RequestView(%v): %v", index, err)
		}
		v := mustNextView(t, sys)
		want := byte(100*(idx[0]+1) + 10*(idx[1]+1) + (idx[2] + 1))
		if v.Data[0] != want {
			t.Errorf("view %v = %d, want %d", idx, v.Data[0], want)
		}
		sys.Release(v)
		return true
	})
	sys.FinishRequesting()
	sys.WaitForTermination()
}

// TestScenario5AdaptiveOrderedAllViews mirrors spec.md §8 scenario 5: 2-D
// 5x5, logical tile 2x2, physical tile 1x1, radii=0, ordered output,
// request-all. Emitted indices follow lexicographic order and each view's
// in-bounds data matches the corresponding 2x2 window of the file.
func TestScenario5AdaptiveOrderedAllViews(t *testing.T) {
	shape := geom.Shape{5, 5}
	data := make([]byte, shape.Volume())
	strides := shape.Strides()
	shape.Iterate(func(idx []int) bool {
		data[geom.Offset(idx, strides)] = byte(idx[0]*10 + idx[1])
		return true
	})
	reader := newArrayReader(shape, geom.Shape{1, 1}, data)
	cfg := &Config{
		Reader:                   reader,
		HaloPolicy:               halo.NewConstant(geom.Uint8, binary.BigEndian, uint8(0)),
		Radii:                    []int{0, 0},
		OrderedOutput:            true,
		LogicalTileShapePerLevel: []geom.Shape{{2, 2}},
		// Sized to the full 3x3 logical grid: RequestAllViews submits every
		// request before this test starts draining NextView, so the view
		// pool must hold all of them at once to avoid a worker blocking on
		// Pool.Acquire with nobody left to drain the dispatch queue.
		ViewAvailablePerLevel: []int{9},
		TraversalPolicy:       traversal.Naive{},
	}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.RequestAllViews(0); err != nil {
		t.Fatalf("RequestAllViews: %v", err)
	}
	sys.FinishRequesting()

	wantOrder := []geom.Index{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}}
	for _, wantIdx := range wantOrder {
		v := mustNextView(t, sys)
		if !v.Index.Equal(wantIdx) {
			t.Fatalf("expected emission order to reach %v next, got %v", wantIdx, v.Index)
		}
		box := v.RealDataBox()
		rowLen := box[0].Hi - box[0].Lo
		colLen := box[1].Hi - box[1].Lo
		for r := 0; r < rowLen; r++ {
			for c := 0; c < colLen; c++ {
				globalR := wantIdx[0]*2 + r
				globalC := wantIdx[1]*2 + c
				want := byte(globalR*10 + globalC)
				got := v.Data[(r)*2+c]
				if got != want {
					t.Errorf("view %v cell (%d,%d) = %d, want %d", wantIdx, r, c, got, want)
				}
			}
		}
		sys.Release(v)
	}
	sys.WaitForTermination()

	// Every one of the 25 physical tiles this run touches belongs to
	// exactly one logical tile, so - regardless of the concurrent fan-out
	// across dispatch workers and adaptive per-tile goroutines - the
	// reader must see exactly one Fill per physical index, never an
	// overlapping or duplicate one.
	physGrid := shape.NumTiles(geom.Shape{1, 1})
	physGrid.Iterate(func(idx []int) bool {
		index := geom.Index(idx).Clone()
		if n := reader.fillCountFor(index); n != 1 {
			t.Errorf("Fill(%v) called %d times, want exactly 1", index, n)
		}
		return true
	})
}

// TestScenario6AdaptiveMatchesNonAdaptive mirrors spec.md §8 scenario 6: in
// adaptive mode with logical tile shape equal to the physical tile shape,
// every view must agree byte-for-byte with the non-adaptive path.
func TestScenario6AdaptiveMatchesNonAdaptive(t *testing.T) {
	shape := geom.Shape{5, 5, 5}
	data := make([]byte, shape.Volume())
	for i := range data {
		data[i] = byte(i * 7)
	}

	run := func(adaptive bool) [][]byte {
		reader := newArrayReader(shape, geom.Shape{2, 2, 2}, data)
		cfg := &Config{
			Reader:     reader,
			HaloPolicy: halo.NewConstant(geom.Uint8, binary.BigEndian, uint8(0)),
			Radii:      []int{1, 1, 1},
		}
		if adaptive {
			cfg.LogicalTileShapePerLevel = []geom.Shape{{2, 2, 2}}
		}
		sys, err := New(cfg)
		if err != nil {
			t.Fatalf("New(adaptive=%v): %v", adaptive, err)
		}
		grid := shape.NumTiles(geom.Shape{2, 2, 2})
		var results [][]byte
		grid.Iterate(func(idx []int) bool {
			index := geom.Index(idx).Clone()
			if err := sys.RequestView(index, 0); err != nil {
				t.Fatalf("RequestView(%v): %v", index, err)
			}
			v := mustNextView(t, sys)
			cp := append([]byte(nil), v.Data...)
			results = append(results, cp)
			sys.Release(v)
			return true
		})
		sys.FinishRequesting()
		sys.WaitForTermination()
		return results
	}

	nonAdaptive := run(false)
	adaptive := run(true)
	if len(nonAdaptive) != len(adaptive) {
		t.Fatalf("view count mismatch: non-adaptive=%d adaptive=%d", len(nonAdaptive), len(adaptive))
	}
	for i := range nonAdaptive {
		if !bytesEqual(nonAdaptive[i], adaptive[i]) {
			t.Errorf("view %d mismatch: non-adaptive=%v adaptive=%v", i, nonAdaptive[i], adaptive[i])
		}
	}
}

func TestInvalidIndexRejectedSynchronously(t *testing.T) {
	reader := newArrayReader(geom.Shape{4}, geom.Shape{2}, make([]byte, 4))
	cfg := &Config{Reader: reader, HaloPolicy: halo.Replicate{}}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.RequestView(geom.Index{5}, 0); err == nil {
		t.Error("expected ErrInvalidIndex for an out-of-range index")
	}
	if err := sys.RequestView(geom.Index{0}, 3); err == nil {
		t.Error("expected an error for an out-of-range level")
	}
}

func TestRequestRejectedAfterFinishRequesting(t *testing.T) {
	reader := newArrayReader(geom.Shape{4}, geom.Shape{2}, make([]byte, 4))
	cfg := &Config{Reader: reader, HaloPolicy: halo.Replicate{}}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sys.FinishRequesting()
	if err := sys.RequestView(geom.Index{0}, 0); err == nil {
		t.Error("expected ErrFinalized after FinishRequesting")
	}
	sys.WaitForTermination()
}

// TestReaderErrorAbandonsViewOnly verifies that one failing tile fetch
// propagates an ErrReader for its own view and does not prevent other
// requests from completing.
func TestReaderErrorAbandonsViewOnly(t *testing.T) {
	inner := newArrayReader(geom.Shape{4}, geom.Shape{2}, []byte{1, 2, 3, 4})
	boom := &failingReader{arrayReader: inner, failIndex: geom.Index{0}, failErr: errBoom{}}
	cfg := &Config{Reader: boom, HaloPolicy: halo.Replicate{}}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := sys.RequestView(geom.Index{0}, 0); err != nil {
		t.Fatal(err)
	}
	if err := sys.RequestView(geom.Index{1}, 0); err != nil {
		t.Fatal(err)
	}

	var sawErr, sawOK bool
	for i := 0; i < 2; i++ {
		res, ok := sys.NextView()
		if !ok {
			t.Fatal("unexpected shutdown")
		}
		if res.Err != nil {
			sawErr = true
			var rerr ErrReader
			if !asErrReader(res.Err, &rerr) {
				t.Errorf("expected ErrReader, got %T: %v", res.Err, res.Err)
			}
		} else {
			sawOK = true
			sys.Release(res.View)
		}
	}
	if !sawErr || !sawOK {
		t.Errorf("expected one failed and one successful view, sawErr=%v sawOK=%v", sawErr, sawOK)
	}
	sys.FinishRequesting()
	sys.WaitForTermination()
}

func asErrReader(err error, out *ErrReader) bool {
	if rerr, ok := err.(ErrReader); ok {
		*out = rerr
		return true
	}
	return false
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// TestReleaseTargetGatesPoolReturn verifies a view's buffer is not returned
// to the pool until it has been released exactly releaseTarget times.
func TestReleaseTargetGatesPoolReturn(t *testing.T) {
	reader := newArrayReader(geom.Shape{2}, geom.Shape{2}, []byte{1, 2})
	cfg := &Config{
		Reader:                reader,
		HaloPolicy:            halo.Replicate{},
		ReleaseCountPerLevel:  []int{2},
		ViewAvailablePerLevel: []int{1},
	}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.RequestView(geom.Index{0}, 0); err != nil {
		t.Fatal(err)
	}
	v := mustNextView(t, sys)
	sys.Release(v)

	// With view_available=1 and this view released only once (target=2),
	// the pool has no free slot: a second request must block.
	done := make(chan struct{})
	go func() {
		sys.RequestView(geom.Index{0}, 0)
		<-sys.out
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("second view was emitted before the first view's buffer was fully released")
	case <-time.After(30 * time.Millisecond):
	}

	sys.Release(v) // second release: returns buffer to the pool
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second view never emitted after the pool slot was freed")
	}
}

func TestEstimatedMaxMemoryMB(t *testing.T) {
	reader := newArrayReader(geom.Shape{100, 100}, geom.Shape{10, 10}, make([]byte, 100*100))
	cfg := &Config{
		Reader:                reader,
		HaloPolicy:            halo.Replicate{},
		CacheCapacityPerLevel: []int{5},
		ViewAvailablePerLevel: []int{2},
	}
	sys, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := sys.EstimatedMaxMemoryMB(); got < 0 {
		t.Errorf("EstimatedMaxMemoryMB() = %d, want >= 0", got)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
