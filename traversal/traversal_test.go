package traversal

import (
	"testing"

	"github.com/gracefulearth/tileloader/geom"
)

func TestNaiveLexicographicOrder(t *testing.T) {
	var got []geom.Index
	Naive{}.Traverse(geom.Shape{2, 2}, func(idx geom.Index) bool {
		got = append(got, idx.Clone())
		return true
	})
	want := []geom.Index{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d indices, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("index %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNaiveStopsEarly(t *testing.T) {
	count := 0
	Naive{}.Traverse(geom.Shape{3, 3}, func(idx geom.Index) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("expected traversal to stop after 3 yields, got %d", count)
	}
}

func TestCustomDelegatesToFn(t *testing.T) {
	calls := 0
	c := Custom{Fn: func(grid geom.Shape, yield func(idx geom.Index) bool) {
		calls++
		yield(geom.Index{9, 9})
	}}
	var got geom.Index
	c.Traverse(geom.Shape{3, 3}, func(idx geom.Index) bool {
		got = idx
		return true
	})
	if calls != 1 {
		t.Fatalf("expected Fn invoked exactly once, got %d", calls)
	}
	if !got.Equal(geom.Index{9, 9}) {
		t.Errorf("expected custom traversal's yielded index to pass through, got %v", got)
	}
}
