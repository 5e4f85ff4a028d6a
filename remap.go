package loader

import (
	"sync"

	"github.com/gracefulearth/tileloader/geom"
	"github.com/gracefulearth/tileloader/internal/cache"
)

// adaptiveFetch implements the logical-tile half of the adaptive remapper
// (C8): it fetches (filling on demand from the physical file cache) the
// logical tile at index, and returns its buffer plus a release function.
// Unlike the direct file-cache fetch, a miss here fans out into N
// physical-tile copy records, each on its own goroutine, joined with a
// sync.WaitGroup before the logical entry is marked Filled. The fan-out
// deliberately avoids lp.dispatch: processRequest itself may already be
// running on a dispatch worker when it calls through to here, and routing
// this nested work through the same bounded pool risks a deadlock. The
// logical-cache acquisition and every nested physical-tile fetch (via
// lp.directFetchByIndex) each report their own CacheHit/CacheMiss to this
// level's Metrics.
func (lp *levelPipeline) adaptiveFetch(index geom.Index) ([]byte, error, func()) {
	entry, hit := lp.logicalCache.Acquire(index)
	if hit {
		lp.metrics.CacheHit(lp.level)
	} else {
		lp.metrics.CacheMiss(lp.level)
	}
	if entry.Status == cache.Filled {
		return entry.Buffer, nil, func() { lp.logicalCache.Release(entry) }
	}

	logicalGeom := geom.ViewGeometry{
		Level:        lp.level,
		CentralIndex: index,
		TileShape:    lp.logicalTileShape,
		FullShape:    lp.fullShape,
		Radii:        make([]int, len(lp.fullShape)),
		ViewShape:    lp.logicalTileShape,
		DType:        lp.dtype,
		// The logical tile's origin/extent are sized by the logical tile
		// shape above, but the plan must split at physical tile
		// boundaries so SourceTile lands in lp.cache's (physical) grid.
		SourceTileShape: lp.physTileShape,
	}
	plans := buildPlan(logicalGeom, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for _, p := range plans {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			physBuf, err, release := lp.directFetchByIndex(p.SourceTile)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			defer release()
			for _, w := range p.Windows {
				executeCopy(entry.Buffer, lp.logicalTileShape, physBuf, lp.physTileShape, w, lp.dtype.Size())
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		lp.logicalCache.Release(entry)
		return nil, firstErr, func() {}
	}
	entry.Status = cache.Filled
	return entry.Buffer, nil, func() { lp.logicalCache.Release(entry) }
}
